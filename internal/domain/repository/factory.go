package repository

// Factory describes access to different domain repositories.
type Factory interface {
	Rules() RuleRepository
	Ledger() LedgerRepository
	Jobs() AccrualJobRepository
}

package auth

import "time"

// Strategy issues and verifies bearer tokens bound to a subject id.
type Strategy interface {
	IssueToken(subjectID int64) (string, error)
	ParseToken(token string) (int64, error)
	Name() string
}

type Options struct {
	TTL time.Duration
	Now func() time.Time
}

package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainErrors "github.com/polkiloo/rewardengine/internal/domain/errors"
	"github.com/polkiloo/rewardengine/internal/domain/model"
	testhelpers "github.com/polkiloo/rewardengine/internal/test"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func TestLedgerWriterRecordCreatesEntry(t *testing.T) {
	repo := testhelpers.NewLedgerRepositoryStub()
	writer := NewLedgerWriter(repo, LedgerOptions{Now: fixedClock})

	entry, created, err := writer.Record(context.Background(), 1, 10, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatalf("expected a new entry")
	}
	if entry.Points != 25 || entry.IsUsed {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if !entry.EarnedAt.Equal(fixedNow) {
		t.Fatalf("unexpected earn time %v", entry.EarnedAt)
	}
	if want := fixedNow.Add(90 * 24 * time.Hour); !entry.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, entry.ExpiresAt)
	}
}

func TestLedgerWriterCustomHorizon(t *testing.T) {
	writer := NewLedgerWriter(testhelpers.NewLedgerRepositoryStub(), LedgerOptions{ExpiryHorizon: time.Hour, Now: fixedClock})
	entry, _, err := writer.Record(context.Background(), 1, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.ExpiresAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("unexpected expiry %v", entry.ExpiresAt)
	}
}

func TestLedgerWriterRecordIsIdempotent(t *testing.T) {
	repo := testhelpers.NewLedgerRepositoryStub()
	writer := NewLedgerWriter(repo, LedgerOptions{Now: fixedClock})

	first, _, err := writer.Record(context.Background(), 1, 10, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, created, err := writer.Record(context.Background(), 1, 10, 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatalf("expected existing entry to be reused")
	}
	if second.ID != first.ID || second.Points != 25 {
		t.Fatalf("expected original entry, got %+v", second)
	}
	if repo.Len() != 1 {
		t.Fatalf("expected a single entry, got %d", repo.Len())
	}
}

func TestLedgerWriterRecoversFromConflict(t *testing.T) {
	repo := testhelpers.NewLedgerRepositoryStub()
	repo.BeforeInsert = func(entry model.LedgerEntry) {
		repo.BeforeInsert = nil
		repo.Put(model.LedgerEntry{UserID: entry.UserID, OrderID: entry.OrderID, Points: 7, EarnedAt: fixedNow, ExpiresAt: fixedNow.Add(time.Hour)})
	}
	writer := NewLedgerWriter(repo, LedgerOptions{Now: fixedClock})

	entry, created, err := writer.Record(context.Background(), 3, 4, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created || entry.Points != 7 {
		t.Fatalf("expected concurrent writer's entry, got %+v created=%v", entry, created)
	}
}

func TestLedgerWriterConcurrentRecord(t *testing.T) {
	repo := testhelpers.NewLedgerRepositoryStub()
	writer := NewLedgerWriter(repo, LedgerOptions{Now: fixedClock})

	const writers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = make(map[int64]struct{})
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, isNew, err := writer.Record(context.Background(), 1, 99, 10)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if isNew {
				created++
			}
			ids[entry.ID] = struct{}{}
		}()
	}
	wg.Wait()

	if created != 1 || len(ids) != 1 || repo.Len() != 1 {
		t.Fatalf("expected exactly one entry, created=%d ids=%d stored=%d", created, len(ids), repo.Len())
	}
}

func TestLedgerWriterRejectsNegativePoints(t *testing.T) {
	writer := NewLedgerWriter(testhelpers.NewLedgerRepositoryStub(), LedgerOptions{})
	if _, _, err := writer.Record(context.Background(), 1, 1, -1); !errors.Is(err, domainErrors.ErrInvalidLineInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestLedgerWriterPropagatesStoreErrors(t *testing.T) {
	storeErr := errors.New("disk full")

	repo := testhelpers.NewLedgerRepositoryStub()
	repo.InsertErr = storeErr
	if _, _, err := NewLedgerWriter(repo, LedgerOptions{}).Record(context.Background(), 1, 1, 1); !errors.Is(err, storeErr) {
		t.Fatalf("expected insert error, got %v", err)
	}

	repo = testhelpers.NewLedgerRepositoryStub()
	repo.FindErr = storeErr
	if _, _, err := NewLedgerWriter(repo, LedgerOptions{}).Record(context.Background(), 1, 1, 1); !errors.Is(err, storeErr) {
		t.Fatalf("expected find error, got %v", err)
	}
}

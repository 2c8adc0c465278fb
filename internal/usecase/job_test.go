package usecase

import (
	"context"
	"testing"

	"github.com/polkiloo/rewardengine/internal/domain/model"
	testhelpers "github.com/polkiloo/rewardengine/internal/test"
)

func TestAccrualJobUseCaseDefaults(t *testing.T) {
	uc := NewAccrualJobUseCase(&testhelpers.AccrualJobRepositoryStub{}, 0)
	if uc.maxAttempts != DefaultMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", uc.maxAttempts)
	}
}

func TestAccrualJobUseCaseLifecycle(t *testing.T) {
	repo := &testhelpers.AccrualJobRepositoryStub{}
	uc := NewAccrualJobUseCase(repo, 3)
	ctx := context.Background()

	job, created, err := uc.Enqueue(ctx, 1, 2)
	if err != nil || !created {
		t.Fatalf("expected new job, got %v %v", created, err)
	}
	if _, created, _ := uc.Enqueue(ctx, 1, 2); created {
		t.Fatalf("expected duplicate enqueue to reuse job")
	}

	batch, err := uc.SelectBatchForProcessing(ctx, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch) != 1 || batch[0].ID != job.ID || batch[0].Status != model.AccrualJobPending {
		t.Fatalf("unexpected batch: %+v", batch)
	}

	if err := uc.Fail(ctx, job.ID, "timeout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := uc.Complete(ctx, job.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.Failed) != 1 || repo.Failed[0].MaxAttempts != 3 || repo.Failed[0].Reason != "timeout" {
		t.Fatalf("unexpected failures: %+v", repo.Failed)
	}
	if len(repo.Completed) != 1 || repo.Completed[0] != job.ID {
		t.Fatalf("unexpected completions: %+v", repo.Completed)
	}
}

func TestAccrualJobUseCaseReleaseKeepsAttempts(t *testing.T) {
	repo := &testhelpers.AccrualJobRepositoryStub{}
	uc := NewAccrualJobUseCase(repo, 3)

	if err := uc.Release(context.Background(), 4, "rate limited"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.Released) != 1 || repo.Released[0] != 4 {
		t.Fatalf("unexpected releases: %+v", repo.Released)
	}
	if len(repo.Failed) != 0 {
		t.Fatalf("release must not record a failed attempt: %+v", repo.Failed)
	}
}

//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"district-ai-portal/internal/domain"
	"district-ai-portal/internal/domain/model"
)

func seedJob(t *testing.T, repo *jobRepo, modelID int64) *model.CompletionJob {
	t.Helper()
	job := &model.CompletionJob{
		UserID:      "user-1",
		Correlation: model.Correlation{Kind: model.CorrelationConversation, ID: "conv-1"},
		ModelID:     modelID,
		Provider:    "openai",
		ModelName:   "gpt-4o",
		Source:      model.JobSourceChat,
		Request:     model.RequestData{Messages: []model.Message{{Role: "user", Content: "hi"}}},
		Status:      model.JobStatusPending,
		CreatedAt:   time.Now(),
	}
	if err := repo.Save(context.Background(), nil, job); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return job
}

func TestJobRepo_SaveAndFind(t *testing.T) {
	cleanup(t)
	repo := NewJobRepo(testPool)
	ctx := context.Background()
	modelID := seedModelConfig(t, "gpt-4o", "openai", "fast", true, true)

	job := seedJob(t, repo, modelID)

	got, err := repo.FindByID(ctx, nil, job.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got.Status != model.JobStatusPending || got.UserID != "user-1" {
		t.Errorf("got %+v", got)
	}
	if got.Correlation != job.Correlation {
		t.Errorf("correlation = %+v, want %+v", got.Correlation, job.Correlation)
	}
	if len(got.Request.Messages) != 1 || got.Request.Messages[0].Content != "hi" {
		t.Errorf("request data mismatch: %+v", got.Request)
	}
	if got.PartialContent != "" || got.Response != nil || got.ErrorMessage != "" {
		t.Errorf("fresh job must have empty progress fields: %+v", got)
	}

	if _, err := repo.FindByID(ctx, nil, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestJobRepo_TransitionGuards(t *testing.T) {
	cleanup(t)
	repo := NewJobRepo(testPool)
	ctx := context.Background()
	modelID := seedModelConfig(t, "gpt-4o", "openai", "fast", true, true)
	job := seedJob(t, repo, modelID)

	// streaming requires processing first
	if ok, _ := repo.MarkStreaming(ctx, job.ID); ok {
		t.Error("MarkStreaming on a pending job must not match")
	}

	if ok, err := repo.MarkProcessing(ctx, job.ID); err != nil || !ok {
		t.Fatalf("MarkProcessing = %v, %v", ok, err)
	}
	// second MarkProcessing finds no pending row
	if ok, _ := repo.MarkProcessing(ctx, job.ID); ok {
		t.Error("MarkProcessing must be single-shot")
	}

	if ok, err := repo.AppendPartial(ctx, job.ID, "Hel", nil); err != nil || !ok {
		t.Fatalf("AppendPartial = %v, %v", ok, err)
	}
	if ok, err := repo.MarkStreaming(ctx, job.ID); err != nil || !ok {
		t.Fatalf("MarkStreaming = %v, %v", ok, err)
	}
	if ok, err := repo.AppendPartial(ctx, job.ID, "lo", []byte(`{"tokens":2}`)); err != nil || !ok {
		t.Fatalf("AppendPartial = %v, %v", ok, err)
	}

	got, _ := repo.FindByID(ctx, nil, job.ID)
	if got.PartialContent != "Hello" {
		t.Errorf("partial = %q, chunks must concatenate", got.PartialContent)
	}
	if got.StartedAt == nil {
		t.Error("startedAt must be set by MarkProcessing")
	}

	resp := model.ResponseData{Text: "Hello!", FinishReason: "stop", Usage: model.Usage{TotalTokens: 5}}
	if ok, err := repo.Complete(ctx, job.ID, resp); err != nil || !ok {
		t.Fatalf("Complete = %v, %v", ok, err)
	}

	got, _ = repo.FindByID(ctx, nil, job.ID)
	if got.Status != model.JobStatusCompleted || got.Response == nil || got.Response.Text != "Hello!" {
		t.Errorf("completed job = %+v", got)
	}
	if got.CompletedAt == nil {
		t.Error("completedAt must be set")
	}
}

// Terminal statuses are immutable: every later conditional write must miss.
func TestJobRepo_TerminalIsImmutable(t *testing.T) {
	cleanup(t)
	repo := NewJobRepo(testPool)
	ctx := context.Background()
	modelID := seedModelConfig(t, "gpt-4o", "openai", "fast", true, true)
	job := seedJob(t, repo, modelID)

	if ok, _ := repo.Cancel(ctx, job.ID); !ok {
		t.Fatal("Cancel on pending job must match")
	}

	if ok, _ := repo.Cancel(ctx, job.ID); ok {
		t.Error("second Cancel must not match")
	}
	if ok, _ := repo.Fail(ctx, job.ID, "late failure"); ok {
		t.Error("Fail after cancel must not match")
	}
	if ok, _ := repo.MarkProcessing(ctx, job.ID); ok {
		t.Error("MarkProcessing after cancel must not match")
	}
	if ok, _ := repo.AppendPartial(ctx, job.ID, "late", nil); ok {
		t.Error("AppendPartial after cancel must not match")
	}
	if ok, _ := repo.Complete(ctx, job.ID, model.ResponseData{Text: "late"}); ok {
		t.Error("Complete after cancel must not match")
	}

	got, _ := repo.FindByID(ctx, nil, job.ID)
	if got.Status != model.JobStatusCancelled || got.PartialContent != "" || got.ErrorMessage != "" {
		t.Errorf("cancelled job mutated: %+v", got)
	}
}

func TestJobRepo_FailExpired(t *testing.T) {
	cleanup(t)
	repo := NewJobRepo(testPool)
	ctx := context.Background()
	modelID := seedModelConfig(t, "gpt-4o", "openai", "fast", true, true)

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)

	expired := seedJob(t, repo, modelID)
	setExpiry(t, expired.ID, past)

	fresh := seedJob(t, repo, modelID)
	setExpiry(t, fresh.ID, future)

	finished := seedJob(t, repo, modelID)
	setExpiry(t, finished.ID, past)
	if ok, _ := repo.Cancel(ctx, finished.ID); !ok {
		t.Fatal("cancel seed")
	}

	n, err := repo.FailExpired(ctx, time.Now(), "job expired before completing")
	if err != nil {
		t.Fatalf("FailExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired count = %d, want 1", n)
	}

	got, _ := repo.FindByID(ctx, nil, expired.ID)
	if got.Status != model.JobStatusFailed || got.ErrorMessage == "" {
		t.Errorf("expired job = %+v", got)
	}
	if got, _ := repo.FindByID(ctx, nil, fresh.ID); got.Status != model.JobStatusPending {
		t.Errorf("unexpired job must stay pending, got %s", got.Status)
	}
	if got, _ := repo.FindByID(ctx, nil, finished.ID); got.Status != model.JobStatusCancelled {
		t.Errorf("terminal job must not be re-failed, got %s", got.Status)
	}
}

func setExpiry(t *testing.T, jobID string, at time.Time) {
	t.Helper()
	if _, err := testPool.Exec(context.Background(),
		`UPDATE completion_jobs SET expires_at = $2 WHERE id = $1`, jobID, at); err != nil {
		t.Fatalf("set expiry: %v", err)
	}
}

package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docredact/internal/redaction"
)

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	// SHA-256 of "hello world" is well-known.
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestNewJob(t *testing.T) {
	job := NewJob("notes.txt", []byte("hello world"))
	if job.ID == "" {
		t.Fatal("expected job id")
	}
	if job.Status != StatusQueued || job.Phase != "queued" {
		t.Errorf("expected queued job, got %q/%q", job.Status, job.Phase)
	}
	if job.ContentHash != ContentHashHex([]byte("hello world")) {
		t.Errorf("unexpected content hash %q", job.ContentHash)
	}
	if string(job.FileData()) != "hello world" {
		t.Errorf("expected file data to be kept, got %q", job.FileData())
	}
	if other := NewJob("notes.txt", nil); other.ID == job.ID {
		t.Error("expected distinct job ids")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	job.SetFileData([]byte("x"))

	before := job.UpdatedAt
	time.Sleep(time.Millisecond)
	job.SetStatus(StatusAnalyzing, "analyzing")
	if job.Status != StatusAnalyzing {
		t.Errorf("expected status %q, got %q", StatusAnalyzing, job.Status)
	}
	if !job.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance after SetStatus")
	}

	a := &redaction.Analysis{FileID: "f1"}
	job.Complete(a)
	snap := job.Snapshot()
	if snap.Status != StatusCompleted || snap.Phase != "done" {
		t.Errorf("expected completed/done, got %q/%q", snap.Status, snap.Phase)
	}
	if snap.Result != a {
		t.Error("expected analysis in snapshot")
	}
	if job.FileData() != nil {
		t.Error("expected file data released after completion")
	}
}

func TestJob_Fail(t *testing.T) {
	job := &Job{ID: "test-fail", Status: StatusAnalyzing, UpdatedAt: time.Now()}
	job.SetFileData([]byte("x"))
	job.AddError("boom")
	job.Fail("parse")

	snap := job.Snapshot()
	if snap.Status != StatusFailed || snap.Phase != "parse" {
		t.Errorf("expected failed/parse, got %q/%q", snap.Status, snap.Phase)
	}
	if snap.Result != nil {
		t.Error("expected no result for failed job")
	}
	if job.FileData() != nil {
		t.Error("expected file data released after failure")
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("attempt 1 failed")
	job.AddError("attempt 2 failed")

	snap := job.Snapshot()
	if len(snap.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Errors))
	}
	if snap.Errors[0] != "attempt 1 failed" {
		t.Errorf("expected first error %q, got %q", "attempt 1 failed", snap.Errors[0])
	}

	// Snapshots must not alias the job's error slice.
	snap.Errors[0] = "mutated"
	if job.Snapshot().Errors[0] != "attempt 1 failed" {
		t.Error("snapshot errors alias job state")
	}
}

func TestJob_IncrAttempts(t *testing.T) {
	job := &Job{ID: "incr-test", UpdatedAt: time.Now()}
	job.IncrAttempts()
	job.IncrAttempts()

	if got := job.Snapshot().Attempts; got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(time.Minute)

	expired := &Job{ID: "old", UpdatedAt: time.Now().Add(-2 * time.Minute)}
	store.Put(expired)
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}

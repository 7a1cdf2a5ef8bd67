package inmemory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/numa-labs/numa/internal/jobs"
)

func TestPublishAndProcess(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var (
		mu        sync.Mutex
		processed []string
		done      = make(chan struct{})
	)

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		processed = append(processed, job.GetID())
		mu.Unlock()
		close(done)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	job := &jobs.ExportTransactionJob{TransactionID: "tx-1", UserID: "user-1"}
	if err := q.PublishExport(ctx, job); err != nil {
		t.Fatalf("PublishExport returned error: %v", err)
	}
	if job.JobID == "" {
		t.Fatal("PublishExport did not assign a job ID")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed in time")
	}

	// The completion write races with the handler signal; poll briefly.
	deadline := time.Now().Add(time.Second)
	for {
		saved, err := store.GetJob(ctx, job.JobID)
		if err != nil {
			t.Fatalf("GetJob returned error: %v", err)
		}
		if saved.Status == jobs.JobStatusCompleted {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job status = %q, want completed", saved.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRetryOnFailure(t *testing.T) {
	store := NewStore()
	q := NewQueue(10, store)
	defer q.Close()

	var (
		mu       sync.Mutex
		attempts int
		done     = make(chan struct{})
	)

	handler := func(ctx context.Context, job jobs.Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return errors.New("transient export failure")
		}
		close(done)
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := q.Start(ctx, handler); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	job := &jobs.ExportTransactionJob{TransactionID: "tx-2", UserID: "user-1", MaxRetries: 3}
	if err := q.PublishExport(ctx, job); err != nil {
		t.Fatalf("PublishExport returned error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not retried in time")
	}

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestPublishAfterClose(t *testing.T) {
	q := NewQueue(1, nil)
	if err := q.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	err := q.PublishExport(context.Background(), &jobs.ExportTransactionJob{TransactionID: "tx-3"})
	if err == nil {
		t.Fatal("PublishExport on closed queue succeeded, want error")
	}
}

func TestStoreListFilters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	for _, j := range []*jobs.ExportTransactionJob{
		{JobID: "j1", TransactionID: "tx-1", Status: jobs.JobStatusCompleted},
		{JobID: "j2", TransactionID: "tx-1", Status: jobs.JobStatusFailed},
		{JobID: "j3", TransactionID: "tx-2", Status: jobs.JobStatusCompleted},
	} {
		if err := store.SaveJob(ctx, j); err != nil {
			t.Fatalf("SaveJob: %v", err)
		}
	}

	byTx, err := store.ListJobs(ctx, jobs.JobFilter{TransactionID: "tx-1"})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byTx) != 2 {
		t.Errorf("by transaction: got %d jobs, want 2", len(byTx))
	}

	byStatus, err := store.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].JobID != "j2" {
		t.Errorf("by status: got %+v, want only j2", byStatus)
	}
}

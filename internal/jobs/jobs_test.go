package jobs

import (
	"testing"
	"time"

	"github.com/sitekit/sitekit/internal/events"
)

func TestStartReturnsInProgressJob(t *testing.T) {
	m := NewManager(nil)

	job := m.Start("publishing")
	if job.JobID == "" {
		t.Fatal("expected a non-empty job id")
	}
	if job.Status != StatusInProgress {
		t.Errorf("expected status %s, got %s", StatusInProgress, job.Status)
	}
	if job.Message != "publishing" {
		t.Errorf("expected message %q, got %q", "publishing", job.Message)
	}
	if len(job.Logs) != 1 || len(job.Logs[0]) != 1 || job.Logs[0][0] != "publishing" {
		t.Errorf("expected initial log group with the start message, got %v", job.Logs)
	}
	if len(job.Errors) != 1 || len(job.Errors[0]) != 0 {
		t.Errorf("expected one empty error group, got %v", job.Errors)
	}
	if job.StartTime == 0 {
		t.Error("expected a start timestamp")
	}
	if job.EndTime != 0 {
		t.Error("end time must be unset while in progress")
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	m := NewManager(nil)
	job := m.Start("work")

	got := m.Get(job.JobID)
	if got == nil {
		t.Fatal("expected to find the job")
	}
	got.Log("local mutation")
	got.Status = StatusError

	again := m.Get(job.JobID)
	if again.Status != StatusInProgress {
		t.Error("mutating a returned copy must not affect the registry")
	}
	if len(again.Logs[0]) != 1 {
		t.Errorf("expected registry logs untouched, got %v", again.Logs)
	}
}

func TestCallerCopyStaysLocal(t *testing.T) {
	m := NewManager(nil)
	job := m.Start("work")

	// Progress written into the caller's copy is not visible via Get.
	job.Log("step 1")
	job.Log("step 2")

	stored := m.Get(job.JobID)
	if len(stored.Logs[0]) != 1 {
		t.Errorf("expected only the start message in the registry, got %v", stored.Logs)
	}
}

func TestGetUnknownID(t *testing.T) {
	m := NewManager(nil)
	if got := m.Get("no-such-job"); got != nil {
		t.Errorf("expected nil for unknown id, got %+v", got)
	}
}

func TestComplete(t *testing.T) {
	m := NewManager(nil)
	job := m.Start("work")

	m.Complete(job.JobID)

	got := m.Get(job.JobID)
	if got.Status != StatusSuccess {
		t.Errorf("expected status %s, got %s", StatusSuccess, got.Status)
	}
	if got.EndTime == 0 {
		t.Error("expected an end timestamp")
	}
}

func TestFail(t *testing.T) {
	m := NewManager(nil)
	job := m.Start("work")

	m.Fail(job.JobID, "disk full")

	got := m.Get(job.JobID)
	if got.Status != StatusError {
		t.Errorf("expected status %s, got %s", StatusError, got.Status)
	}
	if got.Message != "disk full" {
		t.Errorf("expected failure message, got %q", got.Message)
	}
	if len(got.Errors[0]) != 1 || got.Errors[0][0] != "disk full" {
		t.Errorf("expected the failure recorded in the error log, got %v", got.Errors)
	}
}

func TestTerminalTransitionsAreExactlyOnce(t *testing.T) {
	m := NewManager(nil)
	job := m.Start("work")

	m.Complete(job.JobID)
	first := m.Get(job.JobID)

	// Later transitions on a terminal job are no-ops.
	m.Fail(job.JobID, "too late")
	m.Complete(job.JobID)

	got := m.Get(job.JobID)
	if got.Status != StatusSuccess {
		t.Errorf("terminal status changed: %s", got.Status)
	}
	if got.EndTime != first.EndTime {
		t.Error("end time changed after the job was already terminal")
	}
	if got.Message != first.Message {
		t.Errorf("message changed after the job was already terminal: %q", got.Message)
	}
}

func TestTransitionsOnUnknownIDAreNoOps(t *testing.T) {
	m := NewManager(nil)
	m.Complete("missing")
	m.Fail("missing", "whatever")
	if got := m.Get("missing"); got != nil {
		t.Errorf("transitions must not create jobs, got %+v", got)
	}
}

func TestLifecycleEvents(t *testing.T) {
	b := events.NewBroadcaster()
	m := NewManager(b)

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	job := m.Start("work")
	m.Complete(job.JobID)

	want := []string{events.JobStarted, events.JobSucceeded}
	for _, wantType := range want {
		select {
		case ev := <-ch:
			if ev.Type != wantType {
				t.Errorf("expected event %s, got %s", wantType, ev.Type)
			}
			if ev.JobID != job.JobID {
				t.Errorf("expected job id %s, got %s", job.JobID, ev.JobID)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s event", wantType)
		}
	}
}

func TestConcurrentStarts(t *testing.T) {
	m := NewManager(nil)

	const n = 50
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			ids <- m.Start("concurrent").JobID
		}()
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := <-ids
		if seen[id] {
			t.Fatalf("duplicate job id %s", id)
		}
		seen[id] = true
		if m.Get(id) == nil {
			t.Fatalf("job %s not registered", id)
		}
	}
}

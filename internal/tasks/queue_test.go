package tasks

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"testing"
	"time"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testQueue(size int) (*Queue, *syncBuffer) {
	out := &syncBuffer{}
	return New(size, log.New(out, "", 0)), out
}

func TestQueueRunsJobsInOrder(t *testing.T) {
	q, _ := testQueue(8)

	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Submit(Job{Name: "record", Run: func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}})
	}
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	for i, v := range order {
		if v != i {
			t.Fatalf("order = %v", order)
		}
	}
	if st := q.Stats(); st.Completed != 5 || st.Failed != 0 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestQueueLogsFailuresAndPanics(t *testing.T) {
	q, out := testQueue(8)

	q.Submit(Job{Name: "save_high_score", Run: func(ctx context.Context) error {
		return errors.New("disk full")
	}})
	q.Submit(Job{Name: "explode", Run: func(ctx context.Context) error {
		panic("boom")
	}})
	q.Submit(Job{Name: "fine", Run: func(ctx context.Context) error { return nil }})
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	logs := out.String()
	if !strings.Contains(logs, "task_failed name=save_high_score") || !strings.Contains(logs, "disk full") {
		t.Fatalf("failure not logged: %s", logs)
	}
	if !strings.Contains(logs, "task_failed name=explode") {
		t.Fatalf("panic not logged: %s", logs)
	}
	if st := q.Stats(); st.Completed != 1 || st.Failed != 2 {
		t.Fatalf("stats = %+v", st)
	}
}

func TestQueueDropsWhenFull(t *testing.T) {
	q, out := testQueue(1)

	release := make(chan struct{})
	started := make(chan struct{})
	q.Submit(Job{Name: "block", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}})
	<-started

	if !q.Submit(Job{Name: "queued"}) {
		t.Fatalf("expected one slot to be free")
	}
	if q.Submit(Job{Name: "overflow"}) {
		t.Fatalf("expected overflow job to be dropped")
	}
	close(release)
	q.Close(context.Background())

	if !strings.Contains(out.String(), "task_dropped name=overflow reason=full") {
		t.Fatalf("drop not logged: %s", out.String())
	}
	if q.Submit(Job{Name: "late"}) {
		t.Fatalf("submit after close should fail")
	}
}

func TestQueueCloseCancelsOnDeadline(t *testing.T) {
	q, _ := testQueue(4)

	q.Submit(Job{Name: "slow", Timeout: time.Minute, Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Close error = %v, want deadline exceeded", err)
	}
	if st := q.Stats(); st.Failed != 1 {
		t.Fatalf("stats = %+v", st)
	}
}

package watch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestValueSubscribeReceivesLatestAndSubsequent(t *testing.T) {
	v := NewValue("USD")
	sub := v.Subscribe()
	defer sub.Close()

	if got := receive(t, sub.C()); got != "USD" {
		t.Fatalf("initial value = %q", got)
	}

	v.Set("EUR")
	if got := receive(t, sub.C()); got != "EUR" {
		t.Fatalf("next value = %q", got)
	}
}

func TestValueLatestWinsForSlowSubscriber(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	defer sub.Close()

	for i := 1; i <= 100; i++ {
		v.Set(i)
	}
	if got := receive(t, sub.C()); got != 100 {
		t.Fatalf("expected latest value 100, got %d", got)
	}
}

func TestValueUpdate(t *testing.T) {
	v := NewValue(false)
	if got := v.Update(func(b bool) bool { return !b }); !got {
		t.Fatal("expected toggle to true")
	}
	if !v.Get() {
		t.Fatal("Get after Update should be true")
	}
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	v := NewValue(1)
	sub := v.Subscribe()
	sub.Close()
	sub.Close()

	if v.Subscribers() != 0 {
		t.Fatalf("expected no subscribers, got %d", v.Subscribers())
	}
	// Set after close must not panic on the closed channel.
	v.Set(2)
}

func TestObserveClosesOnContextDone(t *testing.T) {
	v := NewValue("a")
	ctx, cancel := context.WithCancel(context.Background())
	ch := v.Observe(ctx)

	if got := receive(t, ch); got != "a" {
		t.Fatalf("initial = %q", got)
	}
	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestValueConcurrentSetters(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	defer sub.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if v.Get() != 50 {
		t.Fatalf("expected 50, got %d", v.Get())
	}
}

func TestQueryRerunsOnTrigger(t *testing.T) {
	trigger := NewValue(uint64(0))
	var mu sync.Mutex
	calls := 0

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := Query(ctx, trigger, func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return calls, nil
	})

	if got := receive(t, out); got != 1 {
		t.Fatalf("first result = %d", got)
	}
	trigger.Set(1)
	if got := receive(t, out); got != 2 {
		t.Fatalf("second result = %d", got)
	}
}

func TestQuerySkipsFailedRuns(t *testing.T) {
	trigger := NewValue(0)
	failed := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	first := true
	out := Query(ctx, trigger, func(context.Context) (string, error) {
		if first {
			first = false
			once.Do(func() { close(failed) })
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	<-failed
	trigger.Set(1)
	if got := receive(t, out); got != "ok" {
		t.Fatalf("expected ok after failure, got %q", got)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func TestQueryLogsFailureFields(t *testing.T) {
	var buf lockedBuffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	trigger := NewValue(0)
	failed := make(chan struct{})
	calls := 0
	out := Query(ctx, trigger, func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			close(failed)
			return 0, errors.New("disk I/O error")
		}
		return 1, nil
	})
	<-failed
	trigger.Set(1)
	if got := receive(t, out); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}

	line, _, _ := bytes.Cut(buf.Bytes(), []byte("\n"))
	var entry map[string]any
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	if entry["component"] != "storage" {
		t.Fatalf("component = %v", entry["component"])
	}
	if entry["error"] != "disk I/O error" {
		t.Fatalf("error = %v", entry["error"])
	}
}

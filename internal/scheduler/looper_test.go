package scheduler

import (
	"sync"
	"testing"
	"time"
)

type firing struct {
	id  int
	at  time.Time
	due time.Time
}

type recorder struct {
	mu     sync.Mutex
	fired  []firing
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 64)}
}

func (r *recorder) post(l *Looper, id int, delay time.Duration) {
	due := time.Now().Add(delay)
	l.PostDelayed(func() {
		r.mu.Lock()
		r.fired = append(r.fired, firing{id: id, at: time.Now(), due: due})
		r.mu.Unlock()
		r.notify <- struct{}{}
	}, delay)
}

func (r *recorder) wait(t *testing.T, n int) []firing {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-r.notify:
		case <-deadline:
			t.Fatalf("Expected %d actions to fire, got %d", n, i)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]firing(nil), r.fired...)
}

func TestPostDelayedRunsInDueOrder(t *testing.T) {
	l := New()
	defer l.Dispose()

	r := newRecorder()
	r.post(l, 3, 60*time.Millisecond)
	r.post(l, 1, 20*time.Millisecond)
	r.post(l, 2, 40*time.Millisecond)
	r.post(l, 0, 0)

	fired := r.wait(t, 4)
	for i, f := range fired {
		if f.id != i {
			t.Fatalf("Expected action %d at position %d, got %d", i, i, f.id)
		}
		if f.at.Before(f.due) {
			t.Errorf("Action %d fired %v before its due time", f.id, f.due.Sub(f.at))
		}
	}
}

func TestPostDelayedKeepsInsertionOrderForSameDelay(t *testing.T) {
	l := New()
	defer l.Dispose()

	r := newRecorder()
	for i := 0; i < 10; i++ {
		r.post(l, i, 30*time.Millisecond)
	}

	fired := r.wait(t, 10)
	for i, f := range fired {
		if f.id != i {
			t.Errorf("Expected action %d at position %d, got %d", i, i, f.id)
		}
	}
}

func TestEarlierActionIsNotStarvedByLongSleep(t *testing.T) {
	l := New()
	defer l.Dispose()

	r := newRecorder()
	r.post(l, 1, time.Hour)
	// ワーカーが1時間の待機に入るのを待つ
	time.Sleep(20 * time.Millisecond)
	r.post(l, 0, 10*time.Millisecond)

	start := time.Now()
	fired := r.wait(t, 1)
	if fired[0].id != 0 {
		t.Fatalf("Expected the short action to fire first, got %d", fired[0].id)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Expected short action within 1s, took %v", elapsed)
	}
	if got := l.pending(); got != 1 {
		t.Errorf("Expected 1 pending action, got %d", got)
	}
}

func TestDisposeDropsPendingActions(t *testing.T) {
	l := New()

	fired := make(chan struct{}, 1)
	l.PostDelayed(func() { fired <- struct{}{} }, 50*time.Millisecond)
	l.Dispose()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("Expected worker to exit after Dispose")
	}

	select {
	case <-fired:
		t.Fatal("Expected pending action to be dropped")
	case <-time.After(100 * time.Millisecond):
	}

	// Dispose 後の登録は無視される
	l.PostDelayed(func() { fired <- struct{}{} }, 0)
	if got := l.pending(); got != 0 {
		t.Errorf("Expected no pending actions after Dispose, got %d", got)
	}
	l.Dispose()
}

func TestPanickingActionDoesNotStopWorker(t *testing.T) {
	l := New()
	defer l.Dispose()

	l.PostDelayed(func() { panic("boom") }, 0)

	r := newRecorder()
	r.post(l, 0, 10*time.Millisecond)
	r.wait(t, 1)
}

func TestPostDelayedFromInsideAction(t *testing.T) {
	l := New()
	defer l.Dispose()

	r := newRecorder()
	l.PostDelayed(func() {
		r.post(l, 1, 5*time.Millisecond)
	}, 0)

	fired := r.wait(t, 1)
	if fired[0].id != 1 {
		t.Errorf("Expected nested action to fire, got %d", fired[0].id)
	}
}

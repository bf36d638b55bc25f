package debounce

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values []string
	fired  chan struct{}
}

func newRecorder() *recorder {
	return &recorder{fired: make(chan struct{}, 16)}
}

func (r *recorder) record(v string) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
	r.fired <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncer_CoalescesRapidValues(t *testing.T) {
	rec := newRecorder()
	d := New(50*time.Millisecond, rec.record)
	defer d.Stop()

	d.Set("p")
	d.Set("ps")
	d.Set("ps5")

	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("debounced callback never fired")
	}
	time.Sleep(100 * time.Millisecond)

	got := rec.snapshot()
	if len(got) != 1 || got[0] != "ps5" {
		t.Errorf("fired values = %v, want exactly [ps5]", got)
	}
}

func TestDebouncer_RestartsDelayOnEachSet(t *testing.T) {
	rec := newRecorder()
	d := New(80*time.Millisecond, rec.record)
	defer d.Stop()

	d.Set("a")
	time.Sleep(40 * time.Millisecond)
	d.Set("b")
	time.Sleep(40 * time.Millisecond)
	if n := len(rec.snapshot()); n != 0 {
		t.Fatalf("fired %d times before the delay elapsed after the last Set", n)
	}
	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("debounced callback never fired")
	}
	if got := rec.snapshot(); len(got) != 1 || got[0] != "b" {
		t.Errorf("fired values = %v, want [b]", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	rec := newRecorder()
	d := New(30*time.Millisecond, rec.record)
	d.Set("ps5")
	if !d.Pending() {
		t.Error("expected a pending value after Set")
	}
	d.Stop()
	time.Sleep(80 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("fired after Stop: %v", got)
	}
	d.Set("again")
	time.Sleep(80 * time.Millisecond)
	if got := rec.snapshot(); len(got) != 0 {
		t.Errorf("Set after Stop should be a no-op, fired %v", got)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	rec := newRecorder()
	d := New(time.Hour, rec.record)
	defer d.Stop()

	d.Flush()
	if got := rec.snapshot(); len(got) != 0 {
		t.Fatalf("Flush with nothing pending fired %v", got)
	}
	d.Set("x")
	d.Flush()
	if got := rec.snapshot(); len(got) != 1 || got[0] != "x" {
		t.Errorf("after Flush got %v, want [x]", got)
	}
	if d.Pending() {
		t.Error("nothing should be pending after Flush")
	}
}

func TestDebouncer_ZeroDelay(t *testing.T) {
	rec := newRecorder()
	d := New(-time.Second, rec.record)
	defer d.Stop()
	d.Set("now")
	select {
	case <-rec.fired:
	case <-time.After(time.Second):
		t.Fatal("zero-delay debouncer never fired")
	}
}

package autocomplete

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/NebXTeaath/GNT-Store-sub001/internal/models"
)

// gatedFetcher blocks each fetch until the test releases a response for its term.
type gatedFetcher struct {
	mu      sync.Mutex
	calls   []string
	gates   map[string]chan models.AutocompleteResult
	started chan string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:   make(map[string]chan models.AutocompleteResult),
		started: make(chan string, 16),
	}
}

func (f *gatedFetcher) gate(term string) chan models.AutocompleteResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.gates[term]
	if !ok {
		ch = make(chan models.AutocompleteResult, 1)
		f.gates[term] = ch
	}
	return ch
}

func (f *gatedFetcher) FetchAutocomplete(ctx context.Context, term string) models.AutocompleteResult {
	f.mu.Lock()
	f.calls = append(f.calls, term)
	f.mu.Unlock()
	ch := f.gate(term)
	f.started <- term
	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return models.AutocompleteResult{}
	}
}

func (f *gatedFetcher) release(term string, names ...string) {
	res := models.AutocompleteResult{}
	for _, n := range names {
		res.Results = append(res.Results, models.ProductSummary{Name: n})
	}
	f.gate(term) <- res
}

func (f *gatedFetcher) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// instantFetcher answers immediately with one result named after the term.
type instantFetcher struct {
	mu    sync.Mutex
	calls []string
}

func (f *instantFetcher) FetchAutocomplete(ctx context.Context, term string) models.AutocompleteResult {
	f.mu.Lock()
	f.calls = append(f.calls, term)
	f.mu.Unlock()
	return models.AutocompleteResult{
		Results:     []models.ProductSummary{{Name: term}},
		Suggestions: []models.Suggestion{{Text: term + "x", SimilarityScore: 0.9}},
		DidYouMean:  term + "x",
	}
}

func waitFor(t *testing.T, c *Controller, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := c.Snapshot(); cond(s) {
			return s
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached, last snapshot %+v", c.Snapshot())
	return Snapshot{}
}

func expectStarted(t *testing.T, f *gatedFetcher, term string) {
	t.Helper()
	select {
	case got := <-f.started:
		if got != term {
			t.Fatalf("fetch started for %q, want %q", got, term)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("fetch for %q never started", term)
	}
}

func TestController_DebounceCoalesces(t *testing.T) {
	f := &instantFetcher{}
	c := New(f, WithDelay(30*time.Millisecond))
	defer c.Close()

	c.SetTerm("p")
	c.SetTerm("ps")
	c.SetTerm("ps5")
	if s := c.Snapshot(); s.State != StateDebouncing {
		t.Errorf("state = %v, want debouncing", s.State)
	}

	s := waitFor(t, c, func(s Snapshot) bool { return s.State == StateSettled })
	time.Sleep(60 * time.Millisecond)

	f.mu.Lock()
	calls := append([]string(nil), f.calls...)
	f.mu.Unlock()
	if len(calls) != 1 || calls[0] != "ps5" {
		t.Errorf("fetches = %v, want exactly [ps5]", calls)
	}
	if len(s.Results) != 1 || s.Results[0].Name != "ps5" || s.DidYouMean != "ps5x" || s.IsLoading {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestController_MinLengthGate(t *testing.T) {
	f := &instantFetcher{}
	c := New(f, WithDelay(5*time.Millisecond))
	defer c.Close()

	c.SetTerm("p")
	s := waitFor(t, c, func(s Snapshot) bool { return s.State == StateSettled })
	if len(s.Results) != 0 || len(s.Suggestions) != 0 || s.DidYouMean != "" || s.IsLoading {
		t.Errorf("snapshot = %+v, want empty settled", s)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) != 0 {
		t.Errorf("fetched %v for a one-character term", f.calls)
	}
}

func TestController_RejectsStaleResponse(t *testing.T) {
	f := newGatedFetcher()
	c := New(f, WithDelay(5*time.Millisecond))
	defer c.Close()

	c.SetTerm("ps")
	expectStarted(t, f, "ps")
	if s := c.Snapshot(); !s.IsLoading || s.State != StateFetching {
		t.Errorf("snapshot = %+v, want fetching", s)
	}

	c.SetTerm("ps5")
	expectStarted(t, f, "ps5")

	f.release("ps5", "PS5 Console")
	waitFor(t, c, func(s Snapshot) bool { return s.State == StateSettled })

	// The older request resolves late and must be ignored.
	f.release("ps", "PS4 Slim")
	time.Sleep(30 * time.Millisecond)

	s := c.Snapshot()
	if s.Term != "ps5" || len(s.Results) != 1 || s.Results[0].Name != "PS5 Console" {
		t.Errorf("snapshot = %+v, want ps5 results only", s)
	}
	if calls := f.callList(); len(calls) != 2 {
		t.Errorf("calls = %v", calls)
	}
}

func TestController_KeystrokeInvalidatesInFlight(t *testing.T) {
	f := newGatedFetcher()
	c := New(f, WithDelay(20*time.Millisecond))
	defer c.Close()

	c.SetTerm("xbox")
	expectStarted(t, f, "xbox")
	c.SetTerm("x")
	f.release("xbox", "Xbox Series X")

	s := waitFor(t, c, func(s Snapshot) bool { return s.State == StateSettled })
	if s.Term != "x" || len(s.Results) != 0 {
		t.Errorf("snapshot = %+v, want gated empty result for x", s)
	}
}

func TestController_CloseDropsCommits(t *testing.T) {
	f := newGatedFetcher()
	c := New(f, WithDelay(5*time.Millisecond))
	id, ch := c.Subscribe()
	defer c.Unsubscribe(id)

	c.SetTerm("ps5")
	expectStarted(t, f, "ps5")
	c.Close()
	f.release("ps5", "PS5")
	time.Sleep(20 * time.Millisecond)

	if s := c.Snapshot(); s.State == StateSettled {
		t.Errorf("committed after Close: %+v", s)
	}
	c.SetTerm("again")
	if s := c.Snapshot(); s.Term != "ps5" {
		t.Errorf("SetTerm after Close changed state: %+v", s)
	}

	for range ch {
	}
}

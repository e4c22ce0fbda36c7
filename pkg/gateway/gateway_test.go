package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vestra-data/signalgate/pkg/models"
)

type fakeTransport struct {
	outcomes    map[string][]Outcome // consumed in order; the last one repeats
	calls       map[string]int
	unavailable map[string]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		outcomes:    make(map[string][]Outcome),
		calls:       make(map[string]int),
		unavailable: make(map[string]bool),
	}
}

func (f *fakeTransport) script(provider string, outs ...Outcome) {
	f.outcomes[provider] = outs
}

func (f *fakeTransport) Available(provider string) bool {
	return !f.unavailable[provider]
}

func (f *fakeTransport) Complete(ctx context.Context, provider string, payload []models.ChatMessage, temperature float64) Outcome {
	f.calls[provider]++
	seq := f.outcomes[provider]
	if len(seq) == 0 {
		return Rejected(500)
	}
	out := seq[0]
	if len(seq) > 1 {
		f.outcomes[provider] = seq[1:]
	}
	return out
}

type fakeCache struct {
	entries map[string]string
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]string)}
}

func (c *fakeCache) key(provider string, payload []models.ChatMessage) string {
	k := provider
	for _, m := range payload {
		k += "|" + m.Role + ":" + m.Content
	}
	return k
}

func (c *fakeCache) Get(provider string, payload []models.ChatMessage) (string, bool) {
	v, ok := c.entries[c.key(provider, payload)]
	return v, ok
}

func (c *fakeCache) Put(provider string, payload []models.ChatMessage, response string) {
	c.puts++
	c.entries[c.key(provider, payload)] = response
}

func testGateway(transport Transport, cache ResponseCache, guard Guard) (*Gateway, *[]time.Duration) {
	g := New(transport, cache, guard, RetryPolicy{
		MaxRetries:     2,
		BaseDelay:      5 * time.Second,
		TransientDelay: 2 * time.Second,
	})
	var sleeps []time.Duration
	g.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}
	return g, &sleeps
}

func payload() []models.ChatMessage {
	return []models.ChatMessage{{Role: "user", Content: "score this headline"}}
}

func TestInvokeReturnsAndCachesSuccess(t *testing.T) {
	tr := newFakeTransport()
	tr.script("a:free", Success("ok"))
	cache := newFakeCache()
	g, _ := testGateway(tr, cache, NewGuard(false, ""))

	got, err := g.Invoke(context.Background(), []string{"a:free"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if cache.puts != 1 {
		t.Errorf("expected 1 cache write, got %d", cache.puts)
	}
}

func TestInvokeIdempotentWithinDay(t *testing.T) {
	tr := newFakeTransport()
	tr.script("a:free", Success("first"))
	cache := newFakeCache()
	g, _ := testGateway(tr, cache, NewGuard(false, ""))

	first, err := g.Invoke(context.Background(), []string{"a:free"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}

	// Break the transport: the second call must be served from cache
	// without any network attempt.
	tr.script("a:free", Rejected(500))

	second, err := g.Invoke(context.Background(), []string{"a:free"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Errorf("second invoke = %q, want %q", second, first)
	}
	if tr.calls["a:free"] != 1 {
		t.Errorf("expected 1 transport call, got %d", tr.calls["a:free"])
	}
}

func TestFreeGuardNeverDispatchesPaidModel(t *testing.T) {
	tr := newFakeTransport()
	tr.script("free-model:free", Success("free result"))
	g, sleeps := testGateway(tr, newFakeCache(), NewGuard(true, ":free"))

	got, err := g.Invoke(context.Background(), []string{"paid-model", "free-model:free"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "free result" {
		t.Errorf("got %q, want free result", got)
	}
	if tr.calls["paid-model"] != 0 {
		t.Error("paid model must never be dispatched under the free guard")
	}
	if len(*sleeps) != 0 {
		t.Errorf("guard skip must not delay, got %v", *sleeps)
	}
}

func TestFallbackOnRateLimit(t *testing.T) {
	tr := newFakeTransport()
	tr.script("a", RateLimited())
	tr.script("b", Success("ok"))
	g, sleeps := testGateway(tr, newFakeCache(), NewGuard(false, ""))

	got, err := g.Invoke(context.Background(), []string{"a", "b"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if tr.calls["a"] != 3 {
		t.Errorf("expected 3 attempts against a, got %d", tr.calls["a"])
	}
	if tr.calls["b"] != 1 {
		t.Errorf("expected 1 attempt against b, got %d", tr.calls["b"])
	}

	want := []time.Duration{5 * time.Second, 10 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("expected %d backoffs, got %v", len(want), *sleeps)
	}
	for i, w := range want {
		if (*sleeps)[i] != w {
			t.Errorf("backoff %d = %v, want %v", i, (*sleeps)[i], w)
		}
	}
}

func TestRejectionAdvancesImmediately(t *testing.T) {
	tr := newFakeTransport()
	tr.script("a", Rejected(401))
	tr.script("b", Success("ok"))
	g, sleeps := testGateway(tr, newFakeCache(), NewGuard(false, ""))

	got, err := g.Invoke(context.Background(), []string{"a", "b"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if tr.calls["a"] != 1 {
		t.Errorf("rejected provider must be called exactly once, got %d", tr.calls["a"])
	}
	if len(*sleeps) != 0 {
		t.Errorf("rejection must not delay, got %v", *sleeps)
	}
}

func TestTransientSharesRetryBudget(t *testing.T) {
	tr := newFakeTransport()
	tr.script("a", Transient(errors.New("timeout")), RateLimited(), Success("ok"))
	g, sleeps := testGateway(tr, newFakeCache(), NewGuard(false, ""))

	got, err := g.Invoke(context.Background(), []string{"a"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if tr.calls["a"] != 3 {
		t.Errorf("expected 3 attempts, got %d", tr.calls["a"])
	}

	// Fixed transient delay first, then the rate-limit backoff for attempt 1.
	want := []time.Duration{2 * time.Second, 10 * time.Second}
	for i, w := range want {
		if (*sleeps)[i] != w {
			t.Errorf("delay %d = %v, want %v", i, (*sleeps)[i], w)
		}
	}
}

func TestUnavailableProviderSkippedWithoutAttempt(t *testing.T) {
	tr := newFakeTransport()
	tr.unavailable["a"] = true
	tr.script("b", Success("ok"))
	g, _ := testGateway(tr, newFakeCache(), NewGuard(false, ""))

	got, err := g.Invoke(context.Background(), []string{"a", "b"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
	if tr.calls["a"] != 0 {
		t.Error("unavailable provider must not be dispatched")
	}
}

func TestExhaustionReturnsNoResult(t *testing.T) {
	tr := newFakeTransport()
	tr.script("a", Rejected(400))
	tr.script("b", RateLimited())
	cache := newFakeCache()
	g, _ := testGateway(tr, cache, NewGuard(false, ""))

	_, err := g.Invoke(context.Background(), []string{"a", "b"}, payload(), 0.3)
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
	if cache.puts != 0 {
		t.Errorf("exhaustion must perform zero cache writes, got %d", cache.puts)
	}
}

func TestProvidersTriedOnceDespiteDuplicates(t *testing.T) {
	tr := newFakeTransport()
	tr.script("a", Rejected(500))
	g, _ := testGateway(tr, newFakeCache(), NewGuard(false, ""))

	_, err := g.Invoke(context.Background(), []string{"a", "a", "a"}, payload(), 0.3)
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
	if tr.calls["a"] != 1 {
		t.Errorf("duplicated provider must be tried once, got %d", tr.calls["a"])
	}
}

func TestNilCacheDisablesCaching(t *testing.T) {
	tr := newFakeTransport()
	tr.script("a", Success("ok"))
	g, _ := testGateway(tr, nil, NewGuard(false, ""))

	got, err := g.Invoke(context.Background(), []string{"a"}, payload(), 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
}

package embedding

import (
	"context"
	"fmt"
	"testing"
)

type countingProvider struct {
	calls int
	fail  bool
}

func (p *countingProvider) Embed(_ context.Context, text string) ([]float32, error) {
	p.calls++
	if p.fail {
		return nil, fmt.Errorf("provider down")
	}
	return []float32{float32(len(text)), 0.5}, nil
}

func (p *countingProvider) Close() error { return nil }

func TestCachedServesRepeatsFromCache(t *testing.T) {
	inner := &countingProvider{}
	c, err := NewCached(inner, 8)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	ctx := context.Background()
	first, err := c.Embed(ctx, "quant trading desk")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := c.Embed(ctx, "quant trading desk")
	if err != nil {
		t.Fatalf("Embed (cached): %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", inner.calls)
	}
	if len(first) != len(second) || first[0] != second[0] {
		t.Errorf("cached vector differs from original")
	}
}

func TestCachedEvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingProvider{}
	c, err := NewCached(inner, 2)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	ctx := context.Background()
	for _, text := range []string{"a", "b", "c"} {
		if _, err := c.Embed(ctx, text); err != nil {
			t.Fatalf("Embed(%q): %v", text, err)
		}
	}
	// "a" was evicted: embedding it again must hit the provider.
	calls := inner.calls
	if _, err := c.Embed(ctx, "a"); err != nil {
		t.Fatalf("Embed(a): %v", err)
	}
	if inner.calls != calls+1 {
		t.Errorf("expected eviction to force a provider call (calls %d -> %d)", calls, inner.calls)
	}
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	inner := &countingProvider{fail: true}
	c, err := NewCached(inner, 2)
	if err != nil {
		t.Fatalf("NewCached: %v", err)
	}

	ctx := context.Background()
	if _, err := c.Embed(ctx, "x"); err == nil {
		t.Fatal("expected error from failing provider")
	}
	inner.fail = false
	if _, err := c.Embed(ctx, "x"); err != nil {
		t.Fatalf("expected recovery after provider came back: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 provider calls, got %d", inner.calls)
	}
}

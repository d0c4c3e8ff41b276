package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spiffcs/ciwatch/internal/model"
)

var testWorkflows = []model.WorkflowDetails{
	{ID: 42, Name: "CI", Path: ".github/workflows/ci.yml", State: "active"},
	{ID: 43, Name: "Release", Path: ".github/workflows/release.yml", State: "active"},
}

// fakeLister counts upstream calls and optionally blocks until gate closes.
type fakeLister struct {
	calls atomic.Int32
	gate  chan struct{}
	errs  []error
}

func (f *fakeLister) ListWorkflows(ctx context.Context, owner, repo string) ([]model.WorkflowDetails, error) {
	n := f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if int(n) <= len(f.errs) && f.errs[n-1] != nil {
		return nil, f.errs[n-1]
	}
	return testWorkflows, nil
}

func TestGetOrFetchSingleUpstreamCall(t *testing.T) {
	lister := &fakeLister{gate: make(chan struct{})}
	c := NewWorkflowCache(lister)

	const callers = 25
	var wg sync.WaitGroup
	results := make([][]model.WorkflowDetails, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrFetch(context.Background(), "org", "repo")
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(lister.gate)
	wg.Wait()

	if got := lister.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
	for i := range results {
		if errs[i] != nil {
			t.Fatalf("caller %d error: %v", i, errs[i])
		}
		if len(results[i]) != len(testWorkflows) {
			t.Errorf("caller %d got %d workflows, want %d", i, len(results[i]), len(testWorkflows))
		}
	}
}

func TestGetOrFetchHitSkipsUpstream(t *testing.T) {
	lister := &fakeLister{}
	c := NewWorkflowCache(lister)

	for i := 0; i < 3; i++ {
		if _, err := c.GetOrFetch(context.Background(), "org", "repo"); err != nil {
			t.Fatalf("GetOrFetch() error: %v", err)
		}
	}
	// Owner and repo are case-insensitive.
	if _, err := c.GetOrFetch(context.Background(), "Org", "Repo"); err != nil {
		t.Fatalf("GetOrFetch() error: %v", err)
	}

	if got := lister.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestGetOrFetchDifferentKeys(t *testing.T) {
	lister := &fakeLister{}
	c := NewWorkflowCache(lister)

	for _, repo := range []string{"a", "b", "c"} {
		if _, err := c.GetOrFetch(context.Background(), "org", repo); err != nil {
			t.Fatalf("GetOrFetch(%s) error: %v", repo, err)
		}
	}
	if got := lister.calls.Load(); got != 3 {
		t.Errorf("upstream calls = %d, want 3", got)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestGetOrFetchErrorsNotCached(t *testing.T) {
	upstream := errors.New("boom")
	lister := &fakeLister{errs: []error{upstream}}
	c := NewWorkflowCache(lister)

	if _, err := c.GetOrFetch(context.Background(), "org", "repo"); !errors.Is(err, upstream) {
		t.Fatalf("GetOrFetch() error = %v, want %v", err, upstream)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after failure = %d, want 0", c.Len())
	}

	wfs, err := c.GetOrFetch(context.Background(), "org", "repo")
	if err != nil {
		t.Fatalf("GetOrFetch() retry error: %v", err)
	}
	if len(wfs) != len(testWorkflows) {
		t.Errorf("GetOrFetch() retry returned %d workflows, want %d", len(wfs), len(testWorkflows))
	}
	if got := lister.calls.Load(); got != 2 {
		t.Errorf("upstream calls = %d, want 2", got)
	}
}

func TestGetOrFetchCallerCancelled(t *testing.T) {
	lister := &fakeLister{gate: make(chan struct{})}
	c := NewWorkflowCache(lister)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrFetch(ctx, "org", "repo")
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("GetOrFetch() error = %v, want context.Canceled", err)
	}

	// The shared lookup keeps running and populates the cache.
	close(lister.gate)
	if _, err := c.GetOrFetch(context.Background(), "org", "repo"); err != nil {
		t.Fatalf("GetOrFetch() error: %v", err)
	}
	if got := lister.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestFind(t *testing.T) {
	c := NewWorkflowCache(&fakeLister{})

	tests := []struct {
		selector string
		wantID   int64
		wantErr  bool
	}{
		{"42", 42, false},
		{".github/workflows/release.yml", 43, false},
		{"ci.yml", 42, false},
		{"release", 43, false},
		{"CI", 42, false},
		{"nightly.yml", 0, true},
		{"7", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got, err := c.Find(context.Background(), "org", "repo", tt.selector)
			if tt.wantErr {
				if !errors.Is(err, ErrWorkflowNotFound) {
					t.Errorf("Find(%q) error = %v, want ErrWorkflowNotFound", tt.selector, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Find(%q) error: %v", tt.selector, err)
			}
			if got.ID != tt.wantID {
				t.Errorf("Find(%q).ID = %d, want %d", tt.selector, got.ID, tt.wantID)
			}
		})
	}
}

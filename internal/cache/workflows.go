// Package cache provides in-process caching of GitHub API lookups that
// rarely change while ciwatch runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/spiffcs/ciwatch/internal/log"
	"github.com/spiffcs/ciwatch/internal/model"
	"golang.org/x/sync/singleflight"
)

// ErrWorkflowNotFound is returned by Find when no workflow matches the selector.
var ErrWorkflowNotFound = errors.New("workflow not found")

// WorkflowLister lists the workflows of a repository.
// ghclient.Client satisfies it.
type WorkflowLister interface {
	ListWorkflows(ctx context.Context, owner, repo string) ([]model.WorkflowDetails, error)
}

// WorkflowCache memoizes workflow listings per repository for the lifetime
// of the process. Concurrent misses on the same repository share a single
// upstream call; different repositories proceed in parallel. Failed lookups
// are not stored.
type WorkflowCache struct {
	lister WorkflowLister

	mu      sync.RWMutex
	entries map[string][]model.WorkflowDetails

	group singleflight.Group
}

// NewWorkflowCache creates an empty cache backed by lister.
func NewWorkflowCache(lister WorkflowLister) *WorkflowCache {
	return &WorkflowCache{
		lister:  lister,
		entries: make(map[string][]model.WorkflowDetails),
	}
}

// cacheKey normalizes owner and repo, which GitHub treats case-insensitively.
func cacheKey(owner, repo string) string {
	return strings.ToLower(owner) + "/" + strings.ToLower(repo)
}

func (c *WorkflowCache) lookup(key string) ([]model.WorkflowDetails, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	wfs, ok := c.entries[key]
	return wfs, ok
}

// GetOrFetch returns the workflows of owner/repo, listing them upstream on
// the first request only.
func (c *WorkflowCache) GetOrFetch(ctx context.Context, owner, repo string) ([]model.WorkflowDetails, error) {
	key := cacheKey(owner, repo)
	if wfs, ok := c.lookup(key); ok {
		log.Trace("workflow cache hit", "repo", key)
		return wfs, nil
	}

	// The shared call must outlive any single caller giving up.
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// A caller that lost the race to the map may arrive after the
		// winning call already stored its result.
		if wfs, ok := c.lookup(key); ok {
			return wfs, nil
		}

		log.Debug("workflow cache miss", "repo", key)
		wfs, err := c.lister.ListWorkflows(shared, owner, repo)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = wfs
		c.mu.Unlock()
		return wfs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("failed to list workflows for %s: %w", key, res.Err)
		}
		return res.Val.([]model.WorkflowDetails), nil
	}
}

// Find resolves selector against the workflows of owner/repo. The selector
// may be a numeric workflow ID, the workflow's path, its file name, or its
// display name.
func (c *WorkflowCache) Find(ctx context.Context, owner, repo, selector string) (model.WorkflowDetails, error) {
	wfs, err := c.GetOrFetch(ctx, owner, repo)
	if err != nil {
		return model.WorkflowDetails{}, err
	}
	if wf, ok := MatchWorkflow(wfs, selector); ok {
		return wf, nil
	}
	return model.WorkflowDetails{}, fmt.Errorf("%w: %q in %s/%s", ErrWorkflowNotFound, selector, owner, repo)
}

// MatchWorkflow returns the first workflow matching selector.
func MatchWorkflow(wfs []model.WorkflowDetails, selector string) (model.WorkflowDetails, bool) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return model.WorkflowDetails{}, false
	}

	if id, err := strconv.ParseInt(selector, 10, 64); err == nil {
		for _, wf := range wfs {
			if wf.ID == id {
				return wf, true
			}
		}
	}

	for _, wf := range wfs {
		if wf.Path == selector || path.Base(wf.Path) == selector {
			return wf, true
		}
	}
	for _, wf := range wfs {
		if strings.EqualFold(wf.Name, selector) {
			return wf, true
		}
	}
	return model.WorkflowDetails{}, false
}

// Len returns the number of repositories with cached workflows.
func (c *WorkflowCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Package service orchestrates the GitHub calls that turn a watched pull
// request into a status snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spiffcs/ciwatch/internal/cache"
	"github.com/spiffcs/ciwatch/internal/ghclient"
	"github.com/spiffcs/ciwatch/internal/log"
	"github.com/spiffcs/ciwatch/internal/model"
	"github.com/spiffcs/ciwatch/internal/progress"
)

var (
	// ErrNoRuns is returned when the pull request's branch has no workflow runs.
	ErrNoRuns = errors.New("no workflow runs found")

	// ErrUnhandledStatus is returned for a status/conclusion pair with no
	// display mapping.
	ErrUnhandledStatus = errors.New("unhandled run status")

	// ErrWorkflowNotFound is returned when the configured workflow selector
	// matches nothing in the repository.
	ErrWorkflowNotFound = cache.ErrWorkflowNotFound
)

// Options configures a Fetcher.
type Options struct {
	// Workflow restricts runs to one workflow, selected by ID, path, file
	// name or display name. Empty means runs of any workflow, reporting
	// the most recently started one.
	Workflow string

	// Timeout bounds one pull request's whole fetch sequence. Zero disables it.
	Timeout time.Duration
}

// Fetcher builds PR snapshots from the GitHub API.
// It is safe for concurrent use.
type Fetcher struct {
	client    ghclient.RepositoryClient
	workflows *cache.WorkflowCache
	opts      Options
	now       func() time.Time
}

// NewFetcher creates a Fetcher. If workflows is nil a cache backed by
// client is created.
func NewFetcher(client ghclient.RepositoryClient, workflows *cache.WorkflowCache, opts Options) *Fetcher {
	if workflows == nil {
		workflows = cache.NewWorkflowCache(client)
	}
	return &Fetcher{
		client:    client,
		workflows: workflows,
		opts:      opts,
		now:       time.Now,
	}
}

// Fetch queries the latest run for pr's head branch and builds its snapshot.
func (f *Fetcher) Fetch(ctx context.Context, pr model.WatchedPR) (model.PRSnapshot, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	info, err := f.client.GetPullRequest(ctx, pr.Owner, pr.Repo, int(pr.Number))
	if err != nil {
		return model.PRSnapshot{}, err
	}

	workflowID, err := f.resolveWorkflow(ctx, pr)
	if err != nil {
		return model.PRSnapshot{}, err
	}

	runs, err := f.client.ListWorkflowRuns(ctx, pr.Owner, pr.Repo, workflowID, info.HeadRef)
	if err != nil {
		return model.PRSnapshot{}, err
	}

	run, ok := model.LatestRun(runs)
	if !ok {
		return model.PRSnapshot{}, fmt.Errorf("%w for branch %q", ErrNoRuns, info.HeadRef)
	}
	log.Trace("selected run", "pr", pr.String(), "run_id", run.ID, "workflow_id", run.WorkflowID,
		"run_number", run.RunNumber, "status", run.Status)

	var p progress.Progress
	if run.Status == model.RunStatusInProgress {
		jobs, err := f.client.ListRunJobs(ctx, pr.Owner, pr.Repo, run.ID)
		if err != nil {
			return model.PRSnapshot{}, err
		}
		p = progress.Calculate(jobs)
	}

	status, err := MapRunStatus(run, p)
	if err != nil {
		return model.PRSnapshot{}, err
	}

	return model.PRSnapshot{
		Owner:          pr.Owner,
		Repo:           pr.Repo,
		Number:         pr.Number,
		Status:         status,
		Title:          info.Title,
		Description:    info.Body,
		PRURL:          info.HTMLURL,
		RunURL:         run.HTMLURL,
		CompletedSteps: uint(p.Completed),
		TotalSteps:     uint(p.Total),
		FetchedAt:      f.now(),
	}, nil
}

// resolveWorkflow returns the configured workflow's ID, or 0 for any workflow.
func (f *Fetcher) resolveWorkflow(ctx context.Context, pr model.WatchedPR) (int64, error) {
	if f.opts.Workflow == "" {
		return 0, nil
	}
	wf, err := f.workflows.Find(ctx, pr.Owner, pr.Repo, f.opts.Workflow)
	if err != nil {
		return 0, err
	}
	return wf.ID, nil
}

// Workflows exposes the cache used to resolve workflow selectors.
func (f *Fetcher) Workflows() *cache.WorkflowCache {
	return f.workflows
}

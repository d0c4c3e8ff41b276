// Package ghclient provides GitHub API client functionality.
package ghclient

import (
	"context"

	"github.com/spiffcs/ciwatch/internal/model"
)

// RepositoryClient is the read-only slice of the GitHub REST API the
// polling engine depends on. Implementations must be safe for concurrent use.
type RepositoryClient interface {
	// GetPullRequest returns title, body, URL and head branch of a pull request.
	GetPullRequest(ctx context.Context, owner, repo string, number int) (model.PullRequestInfo, error)

	// ListWorkflowRuns returns runs for branch. A workflowID of 0 lists
	// runs of every workflow in the repository.
	ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, branch string) ([]model.RunRecord, error)

	// ListRunJobs returns every job of a run, with steps.
	ListRunJobs(ctx context.Context, owner, repo string, runID int64) ([]model.JobRecord, error)

	// ListWorkflows returns the workflows defined in a repository.
	ListWorkflows(ctx context.Context, owner, repo string) ([]model.WorkflowDetails, error)
}

// Ensure Client implements RepositoryClient interface.
var _ RepositoryClient = (*Client)(nil)

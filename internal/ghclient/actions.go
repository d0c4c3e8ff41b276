package ghclient

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/ciwatch/internal/log"
	"github.com/spiffcs/ciwatch/internal/model"
)

// runsPerPage bounds the run listing to one page. GitHub returns runs
// newest first, so the latest run of a branch is always on the first page.
const runsPerPage = 100

// GetPullRequest fetches the metadata shown next to a pull request's status.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (model.PullRequestInfo, error) {
	log.Debug("fetching pull request", "repo", owner+"/"+repo, "number", number)

	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return model.PullRequestInfo{}, fmt.Errorf("failed to get pull request %s/%s#%d: %w", owner, repo, number, err)
	}
	return toPullRequestInfo(pr), nil
}

// ListWorkflowRuns lists the most recent runs for branch.
func (c *Client) ListWorkflowRuns(ctx context.Context, owner, repo string, workflowID int64, branch string) ([]model.RunRecord, error) {
	log.Debug("listing workflow runs", "repo", owner+"/"+repo, "workflow_id", workflowID, "branch", branch)

	opts := &gh.ListWorkflowRunsOptions{
		Branch: branch,
		ListOptions: gh.ListOptions{
			PerPage: runsPerPage,
		},
	}

	var (
		runs *gh.WorkflowRuns
		err  error
	)
	if workflowID == 0 {
		runs, _, err = c.client.Actions.ListRepositoryWorkflowRuns(ctx, owner, repo, opts)
	} else {
		runs, _, err = c.client.Actions.ListWorkflowRunsByID(ctx, owner, repo, workflowID, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow runs for %s/%s: %w", owner, repo, err)
	}

	records := make([]model.RunRecord, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		records = append(records, toRunRecord(run))
	}
	return records, nil
}

// ListRunJobs fetches every job of a run, following pagination.
func (c *Client) ListRunJobs(ctx context.Context, owner, repo string, runID int64) ([]model.JobRecord, error) {
	log.Debug("listing run jobs", "repo", owner+"/"+repo, "run_id", runID)

	opts := &gh.ListWorkflowJobsOptions{
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	var jobs []model.JobRecord

	for {
		result, resp, err := c.client.Actions.ListWorkflowJobs(ctx, owner, repo, runID, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list jobs for run %d: %w", runID, err)
		}

		for _, job := range result.Jobs {
			jobs = append(jobs, toJobRecord(job))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return jobs, nil
}

// ListWorkflows fetches every workflow defined in a repository.
func (c *Client) ListWorkflows(ctx context.Context, owner, repo string) ([]model.WorkflowDetails, error) {
	log.Debug("listing workflows", "repo", owner+"/"+repo)

	opts := &gh.ListOptions{PerPage: 100}

	var workflows []model.WorkflowDetails

	for {
		result, resp, err := c.client.Actions.ListWorkflows(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows for %s/%s: %w", owner, repo, err)
		}

		for _, wf := range result.Workflows {
			workflows = append(workflows, toWorkflowDetails(wf))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return workflows, nil
}

func toPullRequestInfo(pr *gh.PullRequest) model.PullRequestInfo {
	return model.PullRequestInfo{
		Title:   pr.GetTitle(),
		Body:    pr.GetBody(),
		HTMLURL: pr.GetHTMLURL(),
		HeadRef: pr.GetHead().GetRef(),
	}
}

func toRunRecord(run *gh.WorkflowRun) model.RunRecord {
	number := run.GetRunNumber()
	if number < 0 {
		number = 0
	}
	return model.RunRecord{
		ID:         run.GetID(),
		WorkflowID: run.GetWorkflowID(),
		Status:     run.GetStatus(),
		Conclusion: run.GetConclusion(),
		RunNumber:  uint(number),
		HTMLURL:    run.GetHTMLURL(),
		CreatedAt:  run.GetCreatedAt().Time,
	}
}

func toJobRecord(job *gh.WorkflowJob) model.JobRecord {
	steps := make([]model.StepRecord, 0, len(job.Steps))
	for _, s := range job.Steps {
		steps = append(steps, model.StepRecord{
			Name:       s.GetName(),
			Status:     s.GetStatus(),
			Conclusion: s.GetConclusion(),
		})
	}
	return model.JobRecord{
		ID:         job.GetID(),
		Name:       job.GetName(),
		Status:     job.GetStatus(),
		Conclusion: job.GetConclusion(),
		Steps:      steps,
	}
}

func toWorkflowDetails(wf *gh.Workflow) model.WorkflowDetails {
	return model.WorkflowDetails{
		ID:    wf.GetID(),
		Name:  wf.GetName(),
		Path:  wf.GetPath(),
		State: wf.GetState(),
	}
}

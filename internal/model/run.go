package model

import "time"

// GitHub Actions status and conclusion values used by ciwatch.
const (
	RunStatusQueued     = "queued"
	RunStatusPending    = "pending"
	RunStatusInProgress = "in_progress"
	RunStatusCompleted  = "completed"

	ConclusionSuccess = "success"
	ConclusionFailure = "failure"
)

// StepRecord is one step of a job; the leaf unit of progress.
type StepRecord struct {
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion,omitempty"`
}

// JobRecord is one job of a workflow run.
type JobRecord struct {
	ID         int64        `json:"id"`
	Name       string       `json:"name"`
	Status     string       `json:"status"`
	Conclusion string       `json:"conclusion,omitempty"`
	Steps      []StepRecord `json:"steps"`
}

// RunRecord is one execution of a workflow.
type RunRecord struct {
	ID         int64     `json:"id"`
	WorkflowID int64     `json:"workflow_id"`
	Status     string    `json:"status"`
	Conclusion string    `json:"conclusion,omitempty"`
	RunNumber  uint      `json:"run_number"`
	HTMLURL    string    `json:"html_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// LatestRun returns the run to report for a branch.
//
// Run numbers only count up within one workflow, so the highest-numbered
// run of each workflow is taken first and the most recently created of
// those wins, ties going to the higher run ID. For runs of a single
// workflow this is simply the highest run number.
// The second return value is false when runs is empty.
func LatestRun(runs []RunRecord) (RunRecord, bool) {
	perWorkflow := make(map[int64]RunRecord)
	for _, r := range runs {
		if cur, ok := perWorkflow[r.WorkflowID]; !ok || r.RunNumber > cur.RunNumber {
			perWorkflow[r.WorkflowID] = r
		}
	}

	var (
		latest RunRecord
		found  bool
	)
	for _, r := range perWorkflow {
		if !found || r.newerThan(latest) {
			latest, found = r, true
		}
	}
	return latest, found
}

func (r RunRecord) newerThan(other RunRecord) bool {
	if !r.CreatedAt.Equal(other.CreatedAt) {
		return r.CreatedAt.After(other.CreatedAt)
	}
	return r.ID > other.ID
}

// WorkflowDetails describes a workflow defined in a repository.
type WorkflowDetails struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Path  string `json:"path"`
	State string `json:"state,omitempty"`
}

// PullRequestInfo is the subset of pull request metadata ciwatch displays.
type PullRequestInfo struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	HTMLURL string `json:"html_url"`
	HeadRef string `json:"head_ref"`
}

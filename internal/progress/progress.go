// Package progress computes how far a workflow run has advanced from its
// job and step tree.
package progress

import (
	"math"

	"github.com/spiffcs/ciwatch/internal/log"
	"github.com/spiffcs/ciwatch/internal/model"
)

// Progress is the aggregate step completion of a run.
type Progress struct {
	Completed int
	Total     int
	// Ratio is Completed/Total, or NaN when no steps were seen.
	Ratio float64
}

// Known reports whether any steps were seen.
func (p Progress) Known() bool {
	return p.Total > 0
}

// Fraction returns the completion ratio, treating unknown progress as zero.
func (p Progress) Fraction() float64 {
	if !p.Known() || math.IsNaN(p.Ratio) {
		return 0
	}
	return p.Ratio
}

// Calculate aggregates step completion across all jobs.
//
// A job whose own status is "completed" contributes all of its steps as
// completed without inspecting them, since steps of a finished job can
// still report a stale status. Other jobs contribute one completed step
// per step whose status is "completed". The ratio is taken over the total
// step count, not averaged per job.
func Calculate(jobs []model.JobRecord) Progress {
	var p Progress
	for _, job := range jobs {
		n := len(job.Steps)
		if job.Status == model.RunStatusCompleted {
			p.Total += n
			p.Completed += n
			continue
		}
		for _, step := range job.Steps {
			p.Total++
			if step.Status == model.RunStatusCompleted {
				p.Completed++
			}
		}
	}

	if p.Total == 0 {
		p.Ratio = math.NaN()
	} else {
		p.Ratio = float64(p.Completed) / float64(p.Total)
	}

	log.Trace("calculated progress", "completed", p.Completed, "total", p.Total, "jobs", len(jobs))
	return p
}

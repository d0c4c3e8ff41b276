package service

import (
	"fmt"

	"github.com/spiffcs/ciwatch/internal/model"
	"github.com/spiffcs/ciwatch/internal/progress"
)

// MapRunStatus maps a run's raw status and conclusion to its display status.
// Combinations without a mapping return ErrUnhandledStatus rather than a
// guessed status.
func MapRunStatus(run model.RunRecord, p progress.Progress) (model.RunStatus, error) {
	switch run.Status {
	case model.RunStatusCompleted:
		switch run.Conclusion {
		case model.ConclusionFailure:
			return model.StatusFailed(), nil
		case model.ConclusionSuccess:
			return model.StatusSucceeded(), nil
		}
	case model.RunStatusQueued, model.RunStatusPending:
		return model.StatusQueued(), nil
	case model.RunStatusInProgress:
		return model.StatusInProgress(p.Fraction()), nil
	}
	return model.RunStatus{}, fmt.Errorf("%w: status=%q conclusion=%q", ErrUnhandledStatus, run.Status, run.Conclusion)
}

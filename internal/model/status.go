package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// StatusKind is the tag of a RunStatus.
type StatusKind int

const (
	KindQueued StatusKind = iota
	KindInProgress
	KindSucceeded
	KindFailed
)

// String returns the display name of the kind.
func (k StatusKind) String() string {
	switch k {
	case KindQueued:
		return "Queued"
	case KindInProgress:
		return "InProgress"
	case KindSucceeded:
		return "Succeeded"
	case KindFailed:
		return "Failed"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// RunStatus is the state of the latest CI run for a pull request.
// Exactly one kind holds; the completion ratio is only meaningful for
// KindInProgress. The zero value is Queued.
type RunStatus struct {
	kind  StatusKind
	ratio float64
}

// StatusQueued returns a queued status.
func StatusQueued() RunStatus { return RunStatus{kind: KindQueued} }

// StatusSucceeded returns a succeeded status.
func StatusSucceeded() RunStatus { return RunStatus{kind: KindSucceeded} }

// StatusFailed returns a failed status.
func StatusFailed() RunStatus { return RunStatus{kind: KindFailed} }

// StatusInProgress returns an in-progress status. The ratio is clamped to
// [0, 1]; NaN (unknown progress) becomes 0.
func StatusInProgress(ratio float64) RunStatus {
	switch {
	case math.IsNaN(ratio), ratio < 0:
		ratio = 0
	case ratio > 1:
		ratio = 1
	}
	return RunStatus{kind: KindInProgress, ratio: ratio}
}

// Kind returns the status tag.
func (s RunStatus) Kind() StatusKind { return s.kind }

// Ratio returns the completion ratio for in-progress runs and false otherwise.
func (s RunStatus) Ratio() (float64, bool) {
	if s.kind != KindInProgress {
		return 0, false
	}
	return s.ratio, true
}

func (s RunStatus) String() string {
	if s.kind == KindInProgress {
		return fmt.Sprintf("InProgress(%.0f%%)", s.ratio*100)
	}
	return s.kind.String()
}

// MarshalJSON encodes the status as "Queued", "Succeeded", "Failed" or
// {"InProgress": ratio}.
func (s RunStatus) MarshalJSON() ([]byte, error) {
	if s.kind == KindInProgress {
		return json.Marshal(map[string]float64{KindInProgress.String(): s.ratio})
	}
	return json.Marshal(s.kind.String())
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (s *RunStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "Queued":
			*s = StatusQueued()
		case "Succeeded":
			*s = StatusSucceeded()
		case "Failed":
			*s = StatusFailed()
		default:
			return fmt.Errorf("unknown run status %q", name)
		}
		return nil
	}

	var tagged map[string]float64
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("invalid run status %s: %w", data, err)
	}
	ratio, ok := tagged[KindInProgress.String()]
	if !ok || len(tagged) != 1 {
		return fmt.Errorf("invalid run status %s", data)
	}
	*s = StatusInProgress(ratio)
	return nil
}

package model

import (
	"sort"
	"time"
)

// PRSnapshot is the complete status record for one pull request at the
// time of a tick. Snapshots are never patched; the next tick replaces them.
type PRSnapshot struct {
	Owner          string    `json:"owner"`
	Repo           string    `json:"repo"`
	Number         uint      `json:"number"`
	Status         RunStatus `json:"status"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	PRURL          string    `json:"prUrl"`
	RunURL         string    `json:"runUrl"`
	CompletedSteps uint      `json:"completedSteps"`
	TotalSteps     uint      `json:"totalSteps"`
	FetchedAt      time.Time `json:"fetchedAt"`
}

// PR returns the watch-list key of the snapshot.
func (s PRSnapshot) PR() WatchedPR {
	return WatchedPR{Owner: s.Owner, Repo: s.Repo, Number: s.Number}
}

// SortSnapshots orders snapshots by repository then number, for stable display.
// Emission order carries no meaning, so renderers sort their own copy.
func SortSnapshots(snaps []PRSnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		a, b := snaps[i], snaps[j]
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		if a.Repo != b.Repo {
			return a.Repo < b.Repo
		}
		return a.Number < b.Number
	})
}

package poller

import (
	"context"
	"fmt"

	"github.com/spiffcs/ciwatch/internal/model"
	"golang.org/x/sync/errgroup"
)

// Fetcher turns one watched pull request into a snapshot.
// service.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, pr model.WatchedPR) (model.PRSnapshot, error)
}

// Result is the outcome of fetching one pull request.
type Result struct {
	PR       model.WatchedPR
	Snapshot model.PRSnapshot
	Err      error
}

// FetchAll fetches every pr concurrently, at most workers at a time
// (unbounded when workers <= 0), and returns results in completion order.
// A failing or panicking fetch affects only its own result.
func FetchAll(ctx context.Context, f Fetcher, prs []model.WatchedPR, workers int) []Result {
	results := make(chan Result, len(prs))

	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, pr := range prs {
		g.Go(func() error {
			results <- fetchOne(ctx, f, pr)
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	out := make([]Result, 0, len(prs))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func fetchOne(ctx context.Context, f Fetcher, pr model.WatchedPR) (res Result) {
	res.PR = pr
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	res.Snapshot, res.Err = f.Fetch(ctx, pr)
	return res
}

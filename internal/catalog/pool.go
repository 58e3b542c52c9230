package catalog

import (
	"context"
	"sync"
)

const trailerWorkers = 4

type trailerJob struct {
	Index int
	Game  Game
}

type trailerResult struct {
	Index   int
	Trailer Trailer
}

// ResolveTrailers looks up trailers for games with a small worker pool.
// The result is index-aligned with games; lookups that fail yield an empty Trailer.
func (c *Client) ResolveTrailers(ctx context.Context, games []Game, locale string) []Trailer {
	out := make([]Trailer, len(games))
	if len(games) == 0 {
		return out
	}

	jobs := make(chan trailerJob)
	results := make(chan trailerResult, len(games))
	var wg sync.WaitGroup

	workers := min(trailerWorkers, len(games))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.trailerWorker(ctx, locale, jobs, results)
		}()
	}

	go func() {
		defer close(jobs)
		for i, g := range games {
			select {
			case jobs <- trailerJob{Index: i, Game: g}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		out[res.Index] = res.Trailer
	}
	return out
}

func (c *Client) trailerWorker(ctx context.Context, locale string, jobs <-chan trailerJob, results chan<- trailerResult) {
	for job := range jobs {
		slug := job.Game.PageSlug()
		if slug == "" {
			results <- trailerResult{Index: job.Index}
			continue
		}
		t, err := c.Trailer(ctx, slug, locale, job.Game.NamespaceOrCatalog())
		if err != nil {
			t = Trailer{}
		}
		results <- trailerResult{Index: job.Index, Trailer: t}
	}
}

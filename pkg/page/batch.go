package page

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds LoadAll.
const DefaultConcurrency = 8

// LoadAll loads pages concurrently. Each page fails on its own: a fetch
// error leaves that page Empty and never cancels its siblings. The returned
// error only reports pages that were already closed or a cancelled ctx.
func LoadAll(ctx context.Context, pages ...*Page) error {
	var g errgroup.Group
	g.SetLimit(DefaultConcurrency)

	errs := make([]error, len(pages))
	for i, p := range pages {
		if p == nil {
			continue
		}
		g.Go(func() error {
			_, errs[i] = p.Load(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

package gateway

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/pubscope/internal/model"
)

// Initial first-page request shape.
const (
	InitialPage  = 0
	InitialLimit = 20
)

// Initial is everything a view needs before its first render.
type Initial struct {
	// Filters is the server defaults with the caller's overrides applied on top.
	Filters  model.FilterSet
	Types    model.Vocabulary
	Projects model.Vocabulary
	Result   model.ResultPage
	Limit    int
}

// Bootstrap issues the five startup requests concurrently and joins them. The first list
// and count use overrides alone since the server defaults are not known until the join.
// Any failure cancels the rest and is returned.
func (c *Client) Bootstrap(ctx context.Context, overrides model.FilterSet) (*Initial, error) {
	var (
		defaults model.FilterSet
		initial  = &Initial{Limit: InitialLimit}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		defaults, err = c.FetchDefaults(gctx)
		return wrapStep("filter defaults", err)
	})
	g.Go(func() error {
		var err error
		initial.Types, err = c.FetchTypeVocabulary(gctx)
		return wrapStep("publication types", err)
	})
	g.Go(func() error {
		var err error
		initial.Projects, err = c.FetchProjectVocabulary(gctx)
		return wrapStep("projects", err)
	})
	g.Go(func() error {
		var err error
		initial.Result.Items, err = c.FetchList(gctx, overrides, InitialPage, InitialLimit)
		return wrapStep("publications", err)
	})
	g.Go(func() error {
		var err error
		initial.Result.TotalCount, err = c.FetchCount(gctx, overrides)
		return wrapStep("publication count", err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	initial.Filters = defaults.Merge(overrides)
	c.logger.Debug().Ctx(ctx).
		Int("types", initial.Types.Len()).
		Int("projects", initial.Projects.Len()).
		Int("items", len(initial.Result.Items)).
		Int("total", initial.Result.TotalCount).
		Msg("bootstrap complete")
	return initial, nil
}

func wrapStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("loading %s: %w", step, err)
}

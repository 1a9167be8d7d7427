package widget

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/pubscope/internal/controller"
	"github.com/rshade/pubscope/internal/gateway"
	"github.com/rshade/pubscope/internal/model"
)

// Options are the initialization inputs of one mounted view.
type Options struct {
	// Mount is the mount id, e.g. "#terminal".
	Mount string
	// BaseURL is informational; the Backend is already bound to it.
	BaseURL string
	// Filters override the server defaults.
	Filters   model.FilterSet
	ShowDates bool
	// PageSize replaces the initial page size of 20 when set.
	PageSize int
	// Page starts the view on a later page when greater than 1.
	Page     int
	Debounce time.Duration
	Logger   zerolog.Logger
	// Clock overrides the debounce scheduler.
	Clock controller.Clock
}

// Backend loads startup data and serves the controller's queries.
type Backend interface {
	controller.Fetcher
	Bootstrap(ctx context.Context, overrides model.FilterSet) (*gateway.Initial, error)
}

// Mount resolves opts.Mount on host, bootstraps from backend, and attaches a new
// controller to the surface. It blocks until the surface returns and then closes the
// controller. Mount failures are ConfigurationErrors and nothing is fetched.
func Mount(ctx context.Context, host *Host, backend Backend, opts Options) error {
	logger := opts.Logger.With().Str("component", "widget").Str("mount", opts.Mount).Logger()

	surface, err := host.Lookup(opts.Mount)
	if err != nil {
		logger.Error().Ctx(ctx).Err(err).Strs("available", host.Mounts()).Msg("cannot mount publication list")
		return err
	}

	initial, err := backend.Bootstrap(ctx, opts.Filters)
	if err != nil {
		return fmt.Errorf("loading initial data: %w", err)
	}

	ctrlOpts := []controller.Option{
		controller.WithContext(ctx),
		controller.WithLogger(opts.Logger.With().Str("component", "controller").Logger()),
	}
	if opts.Debounce > 0 {
		ctrlOpts = append(ctrlOpts, controller.WithDebounce(opts.Debounce))
	}
	if opts.Clock != nil {
		ctrlOpts = append(ctrlOpts, controller.WithClock(opts.Clock))
	}

	c := controller.New(backend, controller.State{
		Filters: initial.Filters,
		Page:    1,
		Limit:   initial.Limit,
		Result:  initial.Result,
	}, ctrlOpts...)
	defer c.Close()

	if err := applyStart(c, initial.Limit, opts); err != nil {
		return err
	}

	logger.Debug().Ctx(ctx).Msg("publication list mounted")
	return surface.Attach(ctx, c, View{
		Types:     initial.Types,
		Projects:  initial.Projects,
		ShowDates: opts.ShowDates,
		BaseURL:   opts.BaseURL,
	})
}

// applyStart moves a freshly bootstrapped controller to the requested page size and page
// without waiting for the debounce window.
func applyStart(c *controller.Controller, bootLimit int, opts Options) error {
	limitChanged := opts.PageSize > 0 && opts.PageSize != bootLimit
	if limitChanged {
		if err := c.SetLimit(strconv.Itoa(opts.PageSize)); err != nil {
			return &ConfigurationError{Mount: opts.Mount, Err: err}
		}
	}
	switch {
	case opts.Page > 1:
		if err := c.SetPage(strconv.Itoa(opts.Page)); err != nil {
			return &ConfigurationError{Mount: opts.Mount, Err: err}
		}
	case limitChanged:
		c.Refresh()
	}
	return nil
}

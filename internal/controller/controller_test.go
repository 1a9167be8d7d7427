package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pubscope/internal/model"
	"github.com/rshade/pubscope/internal/pagination"
)

type listArgs struct {
	filters model.FilterSet
	page    int
	limit   int
}

// stubFetcher answers immediately with canned data and records its calls.
type stubFetcher struct {
	mu       sync.Mutex
	items    []model.Publication
	total    int
	listErr  error
	countErr error
	lists    []listArgs
	counts   int
}

func (f *stubFetcher) FetchList(_ context.Context, filters model.FilterSet, page, limit int) ([]model.Publication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, listArgs{filters: filters, page: page, limit: limit})
	return f.items, f.listErr
}

func (f *stubFetcher) FetchCount(context.Context, model.FilterSet) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts++
	return f.total, f.countErr
}

func (f *stubFetcher) listCalls() []listArgs {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]listArgs(nil), f.lists...)
}

func (f *stubFetcher) countCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts
}

type reply struct {
	items []model.Publication
	total int
	err   error
}

type gatedCall struct {
	ctx     context.Context
	page    int
	release chan reply
}

// gatedFetcher blocks every request until the test releases it.
type gatedFetcher struct {
	lists  chan *gatedCall
	counts chan *gatedCall
	// ignoreCancel keeps requests blocked after their context is cancelled, modelling a
	// server that answers anyway.
	ignoreCancel bool
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{lists: make(chan *gatedCall, 8), counts: make(chan *gatedCall, 8)}
}

func (f *gatedFetcher) wait(ctx context.Context, call *gatedCall) (reply, error) {
	if f.ignoreCancel {
		r := <-call.release
		return r, r.err
	}
	select {
	case r := <-call.release:
		return r, r.err
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

func (f *gatedFetcher) FetchList(ctx context.Context, _ model.FilterSet, page, _ int) ([]model.Publication, error) {
	call := &gatedCall{ctx: ctx, page: page, release: make(chan reply, 1)}
	f.lists <- call
	r, err := f.wait(ctx, call)
	return r.items, err
}

func (f *gatedFetcher) FetchCount(ctx context.Context, _ model.FilterSet) (int, error) {
	call := &gatedCall{ctx: ctx, release: make(chan reply, 1)}
	f.counts <- call
	r, err := f.wait(ctx, call)
	return r.total, err
}

// next returns the list and count calls of one fetch.
func (f *gatedFetcher) next(t *testing.T) (*gatedCall, *gatedCall) {
	t.Helper()
	var list, count *gatedCall
	timeout := time.After(2 * time.Second)
	for list == nil || count == nil {
		select {
		case list = <-f.lists:
		case count = <-f.counts:
		case <-timeout:
			t.Fatal("timed out waiting for fetch")
		}
	}
	return list, count
}

func pubs(titles ...string) []model.Publication {
	out := make([]model.Publication, 0, len(titles))
	for _, title := range titles {
		out = append(out, model.Publication{Title: title})
	}
	return out
}

func titles(r model.ResultPage) []string {
	out := make([]string, 0, len(r.Items))
	for _, p := range r.Items {
		out = append(out, p.Title)
	}
	return out
}

func defaultFilters() model.FilterSet {
	f := model.NewFilterSet()
	f.Set(model.FilterSearch, "")
	f.Set(model.FilterType, []string{})
	f.Set(model.FilterProjects, []string{})
	return f
}

func await(t *testing.T, c *Controller) Snapshot {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := c.Await(ctx)
	require.NoError(t, err)
	return snap
}

func TestNew_Defaults(t *testing.T) {
	c := New(&stubFetcher{}, State{Filters: defaultFilters()})
	defer c.Close()

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, DefaultLimit, snap.Limit)
	assert.Equal(t, model.StatusIdle, snap.Status)
	assert.NoError(t, snap.Err)
}

func TestSetFilter_DebounceCoalesces(t *testing.T) {
	clock := NewManualClock()
	fetcher := &stubFetcher{items: pubs("abc"), total: 1}
	c := New(fetcher, State{Filters: defaultFilters(), Page: 4, Result: model.ResultPage{TotalCount: 200}},
		WithClock(clock))
	defer c.Close()

	require.True(t, c.SetFilter(model.Search("a")))
	clock.Advance(100 * time.Millisecond)
	require.True(t, c.SetFilter(model.Search("ab")))
	clock.Advance(100 * time.Millisecond)
	require.True(t, c.SetFilter(model.Search("abc")))

	snap := c.Snapshot()
	assert.Equal(t, model.StatusPending, snap.Status)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, 1, clock.Pending())

	clock.Advance(DefaultDebounce - time.Millisecond)
	assert.Empty(t, fetcher.listCalls())

	clock.Advance(time.Millisecond)
	snap = await(t, c)

	calls := fetcher.listCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1, fetcher.countCalls())
	assert.Equal(t, "abc", calls[0].filters.String(model.FilterSearch))
	assert.Equal(t, 0, calls[0].page)
	assert.Equal(t, DefaultLimit, calls[0].limit)

	assert.Equal(t, model.StatusIdle, snap.Status)
	assert.Equal(t, []string{"abc"}, titles(snap.Result))
	assert.Equal(t, 1, snap.Result.TotalCount)
}

func TestSetFilter_NoOpEdit(t *testing.T) {
	clock := NewManualClock()
	c := New(&stubFetcher{}, State{Filters: defaultFilters()}, WithClock(clock))
	defer c.Close()
	before := c.Snapshot()

	assert.False(t, c.SetFilter(model.Search("  ")))
	assert.False(t, c.SetFilter())

	after := c.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, model.StatusIdle, after.Status)
	assert.Zero(t, clock.Pending())
}

func TestSetFilter_ClearingUnsetFilterKeepsPage(t *testing.T) {
	clock := NewManualClock()
	c := New(&stubFetcher{}, State{Filters: defaultFilters(), Page: 4, Limit: 10}, WithClock(clock))
	defer c.Close()
	before := c.Snapshot()

	assert.False(t, c.SetFilter(model.StartDate("")))
	assert.False(t, c.SetFilter(model.ClearValue(model.FilterEndDate)))
	assert.False(t, c.SetFilter(model.ClearValue(model.FilterType)))
	assert.False(t, c.SetFilter(model.Projects()))

	after := c.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, 4, after.Page)
	assert.Equal(t, model.StatusIdle, after.Status)
	assert.Equal(t, []string{model.FilterSearch, model.FilterType, model.FilterProjects}, after.Filters.Keys())
	assert.Zero(t, clock.Pending())
}

func TestSetFilter_CustomDebounce(t *testing.T) {
	clock := NewManualClock()
	fetcher := &stubFetcher{}
	c := New(fetcher, State{Filters: defaultFilters()}, WithClock(clock), WithDebounce(time.Second))
	defer c.Close()

	c.SetFilter(model.ToggleProject("icecube"))
	clock.Advance(DefaultDebounce)
	assert.Empty(t, fetcher.listCalls())

	clock.Advance(time.Second)
	await(t, c)
	require.Len(t, fetcher.listCalls(), 1)
	assert.Equal(t, []string{"icecube"}, fetcher.listCalls()[0].filters.Strings(model.FilterProjects))
}

func TestSetLimit(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     error
		wantLimit   int
		wantPending bool
	}{
		{name: "non-numeric", input: "abc", wantErr: ErrInvalidLimit, wantLimit: 20},
		{name: "zero", input: "0", wantErr: ErrInvalidLimit, wantLimit: 20},
		{name: "negative", input: "-5", wantErr: ErrInvalidLimit, wantLimit: 20},
		{name: "empty", input: "", wantErr: ErrInvalidLimit, wantLimit: 20},
		{name: "fraction", input: "2.5", wantErr: ErrInvalidLimit, wantLimit: 20},
		{name: "same value", input: "20", wantLimit: 20},
		{name: "new value", input: " 50 ", wantLimit: 50, wantPending: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewManualClock()
			c := New(&stubFetcher{}, State{Filters: defaultFilters(), Page: 3, Limit: 20}, WithClock(clock))
			defer c.Close()
			before := c.Snapshot()

			err := c.SetLimit(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			snap := c.Snapshot()
			assert.Equal(t, tt.wantLimit, snap.Limit)
			if tt.wantPending {
				assert.Equal(t, model.StatusPending, snap.Status)
				assert.Equal(t, 1, snap.Page)
				assert.Equal(t, 1, clock.Pending())
				return
			}
			assert.Equal(t, before.Version, snap.Version)
			assert.Equal(t, 3, snap.Page)
			assert.Zero(t, clock.Pending())
		})
	}
}

func TestSetPage_SkipsDebounce(t *testing.T) {
	clock := NewManualClock()
	fetcher := &stubFetcher{items: pubs("p2"), total: 100}
	c := New(fetcher, State{
		Filters: defaultFilters(),
		Limit:   10,
		Result:  model.ResultPage{TotalCount: 100},
	}, WithClock(clock))
	defer c.Close()

	c.SetFilter(model.Search("ice"))
	require.Equal(t, 1, clock.Pending())

	require.NoError(t, c.SetPage("next"))
	assert.Zero(t, clock.Pending(), "armed timer must be cancelled")

	snap := await(t, c)
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, []string{"p2"}, titles(snap.Result))

	calls := fetcher.listCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, 1, calls[0].page)
	assert.Equal(t, "ice", calls[0].filters.String(model.FilterSearch))

	clock.Advance(time.Hour)
	assert.Len(t, fetcher.listCalls(), 1)
}

func TestSetPage_DoesNotResetPage(t *testing.T) {
	fetcher := &stubFetcher{total: 100}
	c := New(fetcher, State{Filters: defaultFilters(), Page: 5, Limit: 10, Result: model.ResultPage{TotalCount: 100}},
		WithClock(NewManualClock()))
	defer c.Close()

	require.NoError(t, c.SetPage("last"))
	snap := await(t, c)
	assert.Equal(t, 10, snap.Page)

	require.NoError(t, c.SetPage("first"))
	snap = await(t, c)
	assert.Equal(t, 1, snap.Page)
	assert.Equal(t, []int{9, 0}, []int{fetcher.listCalls()[0].page, fetcher.listCalls()[1].page})
}

func TestSetPage_RejectsBadTokens(t *testing.T) {
	clock := NewManualClock()
	fetcher := &stubFetcher{}
	c := New(fetcher, State{Filters: defaultFilters(), Result: model.ResultPage{TotalCount: 50}}, WithClock(clock))
	defer c.Close()
	before := c.Snapshot()

	require.ErrorIs(t, c.SetPage("sideways"), pagination.ErrUnknownToken)
	require.ErrorIs(t, c.SetPage("prev"), pagination.ErrPageOutOfRange)

	after := c.Snapshot()
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, model.StatusIdle, after.Status)
	assert.Empty(t, fetcher.listCalls())
}

func TestStaleResponsesAreDiscarded(t *testing.T) {
	tests := []struct {
		name       string
		newerFirst bool
	}{
		{name: "newer resolves first", newerFirst: true},
		{name: "older resolves first", newerFirst: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newGatedFetcher()
			fetcher.ignoreCancel = true
			c := New(fetcher, State{Filters: defaultFilters(), Limit: 10, Result: model.ResultPage{TotalCount: 100}},
				WithClock(NewManualClock()))

			c.Refresh()
			oldList, oldCount := fetcher.next(t)
			require.NoError(t, c.SetPage("3"))
			newList, newCount := fetcher.next(t)
			assert.Equal(t, 2, newList.page)
			assert.Error(t, oldList.ctx.Err(), "superseded request must be cancelled")

			resolveOld := func() {
				oldList.release <- reply{items: pubs("old")}
				oldCount.release <- reply{total: 1}
			}
			resolveNew := func() {
				newList.release <- reply{items: pubs("new")}
				newCount.release <- reply{total: 77}
			}

			if tt.newerFirst {
				resolveNew()
				snap := await(t, c)
				assert.Equal(t, []string{"new"}, titles(snap.Result))
				resolveOld()
			} else {
				resolveOld()
				resolveNew()
				await(t, c)
			}
			c.Close()

			snap := c.Snapshot()
			assert.Equal(t, []string{"new"}, titles(snap.Result))
			assert.Equal(t, 77, snap.Result.TotalCount)
			assert.Equal(t, 3, snap.Page)
		})
	}
}

func TestFilterEditCancelsInflightFetch(t *testing.T) {
	clock := NewManualClock()
	fetcher := newGatedFetcher()
	c := New(fetcher, State{Filters: defaultFilters()}, WithClock(clock))
	defer c.Close()

	c.Refresh()
	list, count := fetcher.next(t)

	c.SetFilter(model.SelectType("thesis"))
	assert.Equal(t, model.StatusPending, c.Snapshot().Status)

	require.Eventually(t, func() bool { return list.ctx.Err() != nil && count.ctx.Err() != nil },
		time.Second, 5*time.Millisecond)
	assert.Equal(t, model.StatusPending, c.Snapshot().Status, "cancelled fetch must not commit")

	clock.Advance(DefaultDebounce)
	list, count = fetcher.next(t)
	list.release <- reply{items: pubs("thesis")}
	count.release <- reply{total: 1}

	snap := await(t, c)
	assert.Equal(t, []string{"thesis"}, titles(snap.Result))
	assert.Equal(t, []string{"thesis"}, snap.Filters.Strings(model.FilterType))
}

func TestFailureKeepsLastGoodResult(t *testing.T) {
	boom := errors.New("connection refused")
	fetcher := &stubFetcher{items: pubs("fresh"), total: 1, countErr: boom}

	var (
		mu   sync.Mutex
		seen []Snapshot
	)
	c := New(fetcher, State{
		Filters: defaultFilters(),
		Result:  model.ResultPage{Items: pubs("kept"), TotalCount: 1},
	}, WithClock(NewManualClock()), WithListener(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	}))
	defer c.Close()

	c.Refresh()
	snap := await(t, c)

	assert.Equal(t, model.StatusIdle, snap.Status)
	require.ErrorIs(t, snap.Err, boom)
	assert.Equal(t, []string{"kept"}, titles(snap.Result))

	errored := func() int {
		mu.Lock()
		defer mu.Unlock()
		n := 0
		for _, s := range seen {
			if s.Err != nil {
				assert.ErrorIs(t, s.Err, boom)
				n++
			}
		}
		return n
	}
	require.Eventually(t, func() bool { return errored() > 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, errored(), "each failure is surfaced once")
}

func TestNextAttemptClearsError(t *testing.T) {
	fetcher := &stubFetcher{items: pubs("x"), total: 1, listErr: errors.New("503")}
	c := New(fetcher, State{Filters: defaultFilters()}, WithClock(NewManualClock()))
	defer c.Close()

	c.Refresh()
	require.Error(t, await(t, c).Err)

	fetcher.mu.Lock()
	fetcher.listErr = nil
	fetcher.mu.Unlock()

	c.Refresh()
	snap := await(t, c)
	require.NoError(t, snap.Err)
	assert.Equal(t, []string{"x"}, titles(snap.Result))
}

func TestListenerVersionsIncrease(t *testing.T) {
	clock := NewManualClock()
	var (
		mu       sync.Mutex
		versions []uint64
		statuses []model.PendingStatus
	)
	fetcher := newGatedFetcher()
	c := New(fetcher, State{Filters: defaultFilters()},
		WithClock(clock),
		WithListener(func(s Snapshot) {
			mu.Lock()
			versions = append(versions, s.Version)
			statuses = append(statuses, s.Status)
			mu.Unlock()
		}))
	defer c.Close()

	c.SetFilter(model.Search("x"))
	clock.Advance(DefaultDebounce)
	list, count := fetcher.next(t)
	list.release <- reply{}
	count.release <- reply{total: 3}
	await(t, c)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(versions) == 3
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.IsIncreasing(t, versions)
	assert.Equal(t, []model.PendingStatus{model.StatusPending, model.StatusFetching, model.StatusIdle}, statuses)
}

func TestSubscribe(t *testing.T) {
	c := New(&stubFetcher{}, State{Filters: defaultFilters()}, WithClock(NewManualClock()))
	defer c.Close()

	var got []model.PendingStatus
	unsubscribe := c.Subscribe(func(s Snapshot) { got = append(got, s.Status) })

	c.SetFilter(model.Search("a"))
	unsubscribe()
	c.SetFilter(model.Search("b"))

	assert.Equal(t, []model.PendingStatus{model.StatusPending}, got)
}

func TestSnapshotLinks(t *testing.T) {
	c := New(&stubFetcher{}, State{Filters: defaultFilters(), Page: 5, Limit: 10, Result: model.ResultPage{TotalCount: 100}})
	defer c.Close()

	snap := c.Snapshot()
	require.Len(t, snap.Links, 11)
	assert.True(t, snap.ShowPagination())
	assert.Equal(t, 10, snap.Meta().TotalPages)

	snap.Filters.Set(model.FilterSearch, "mutated")
	assert.Equal(t, "", c.Snapshot().Filters.String(model.FilterSearch))
}

func TestClose(t *testing.T) {
	clock := NewManualClock()
	fetcher := newGatedFetcher()
	c := New(fetcher, State{Filters: defaultFilters()}, WithClock(clock))

	c.SetFilter(model.Search("pending"))
	c.Close()
	c.Close()

	assert.Zero(t, clock.Pending())
	assert.False(t, c.SetFilter(model.Search("after")))
	require.ErrorIs(t, c.SetLimit("5"), ErrClosed)
	require.ErrorIs(t, c.SetPage("1"), ErrClosed)
	c.Refresh()

	select {
	case <-fetcher.lists:
		t.Fatal("closed controller must not fetch")
	default:
	}
}

func TestCloseCancelsInflight(t *testing.T) {
	fetcher := newGatedFetcher()
	c := New(fetcher, State{Filters: defaultFilters()}, WithClock(NewManualClock()))

	c.Refresh()
	list, _ := fetcher.next(t)
	c.Close()

	assert.ErrorIs(t, list.ctx.Err(), context.Canceled)
	assert.Equal(t, model.StatusIdle, c.Snapshot().Status)
}

func TestManualClock(t *testing.T) {
	clock := NewManualClock()
	var fired []string
	clock.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	clock.AfterFunc(time.Second, func() { fired = append(fired, "a") })
	stopped := clock.AfterFunc(time.Second, func() { fired = append(fired, "x") })

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())
	assert.Equal(t, 2, clock.Pending())

	clock.Advance(3 * time.Second)
	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Zero(t, clock.Pending())
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pubscope/internal/cache"
	"github.com/rshade/pubscope/internal/model"
)

// fakeAPI is an in-memory publications server.
type fakeAPI struct {
	mu       sync.Mutex
	queries  map[string][]string
	hits     map[string]int
	server   string
	failPath string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		queries: map[string][]string{},
		hits:    map[string]int{},
		server:  "Pub DB 2.3.1",
	}
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries[r.URL.Path] = append(f.queries[r.URL.Path], r.URL.RawQuery)
	f.hits[r.URL.Path]++
}

func (f *fakeAPI) lastQuery(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := f.queries[path]
	if len(q) == 0 {
		return ""
	}
	return q[len(q)-1]
}

func (f *fakeAPI) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	write := func(w http.ResponseWriter, body string) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
	wrap := func(path string, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			f.record(r)
			w.Header().Set("Server", f.server)
			if f.failPath == path {
				w.WriteHeader(http.StatusInternalServerError)
				write(w, `{"error":"boom"}`)
				return
			}
			write(w, body)
		})
	}
	wrap(PathFilterDefaults, `{"search":"","start_date":null,"end_date":null,"type":[],"projects":[],"hide_projects":false}`)
	wrap(PathTypes, `{"journal":"Journal Article","proceedings":"Proceedings","thesis":"Thesis"}`)
	wrap(PathProjects, `{"icecube":"IceCube","hawc":"HAWC"}`)
	wrap(PathPublications, `{"publications":[{"title":"A","authors":["X"],"type":"journal","date":"2020-01-02","downloads":["https://arxiv.org/abs/1"],"projects":["icecube"],"sites":[]}]}`)
	wrap(PathCount, `{"count":42}`)
	return mux
}

func newTestClient(t *testing.T, h http.Handler, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, append([]ClientOption{WithRateLimit(0)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("ftp://example.org")
	require.Error(t, err)

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c, err = NewClient("https://pubs.example.org/")
	require.NoError(t, err)
	assert.Equal(t, "https://pubs.example.org", c.BaseURL())
}

func TestFetchDefaults_KeepsServerOrder(t *testing.T) {
	c := newTestClient(t, newFakeAPI().handler())

	f, err := c.FetchDefaults(context.Background())
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"search", "start_date", "end_date", "type", "projects", "hide_projects"},
		f.Keys())
}

func TestFetchList_SendsEncodedFilters(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api.handler())

	filters := model.NewFilterSet()
	filters.Set(model.FilterSearch, "dark matter")
	filters.Set(model.FilterProjects, []string{"icecube", "hawc"})
	filters.Set(model.FilterStartDate, nil)

	items, err := c.FetchList(context.Background(), filters, 2, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A", items[0].Title)

	assert.Equal(t,
		"search=dark%20matter&projects=icecube&projects=hawc&page=2&limit=10",
		api.lastQuery(PathPublications))

	values, err := url.ParseQuery(api.lastQuery(PathPublications))
	require.NoError(t, err)
	assert.Equal(t, []string{"icecube", "hawc"}, values["projects"])
}

func TestFetchCount(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api.handler())

	filters := model.NewFilterSet()
	filters.Set(model.FilterType, []string{"thesis"})

	n, err := c.FetchCount(context.Background(), filters)
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.Equal(t, "type=thesis", api.lastQuery(PathCount))
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDecode bool
		wantStatus int
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"message":"db down"}`, wantStatus: 500},
		{name: "not found", status: http.StatusNotFound, body: `missing`, wantStatus: 404},
		{name: "malformed json", status: http.StatusOK, body: `{"count":`, wantDecode: true},
		{name: "missing field", status: http.StatusOK, body: `{"total":3}`, wantDecode: true},
		{name: "negative count", status: http.StatusOK, body: `{"count":-1}`, wantDecode: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, err := c.FetchCount(context.Background(), model.NewFilterSet())
			require.Error(t, err)
			assert.True(t, IsNetwork(err))
			assert.Equal(t, tt.wantDecode, IsDecode(err))
			assert.Equal(t, tt.wantStatus, StatusCode(err))
			if tt.wantStatus != 0 {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.ErrorIs(t, err, ErrNetwork)
			}
		})
	}
}

func TestAPIError_Message(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad date"}`))
	}))

	_, err := c.FetchList(context.Background(), model.NewFilterSet(), 0, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad date")
	assert.Contains(t, err.Error(), "status 400")
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(base, WithRateLimit(0))
	require.NoError(t, err)

	_, err = c.FetchDefaults(context.Background())
	require.ErrorIs(t, err, ErrNetwork)
	assert.False(t, IsDecode(err))
}

func TestCanceledContext(t *testing.T) {
	c := newTestClient(t, newFakeAPI().handler())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchList(ctx, model.NewFilterSet(), 0, 20)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUserAgent(t *testing.T) {
	var got atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"count":1}`))
	}), WithUserAgent("pubscope-test/1.0"))

	_, err := c.FetchCount(context.Background(), model.NewFilterSet())
	require.NoError(t, err)
	assert.Equal(t, "pubscope-test/1.0", got.Load())
}

func TestVocabularyCache(t *testing.T) {
	api := newFakeAPI()
	store, err := cache.NewFileStore(t.TempDir(), true, cache.DefaultTTLSeconds)
	require.NoError(t, err)
	c := newTestClient(t, api.handler(), WithVocabularyCache(store))

	first, err := c.FetchTypeVocabulary(context.Background())
	require.NoError(t, err)
	second, err := c.FetchTypeVocabulary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, api.count(PathTypes))
	assert.Equal(t, first.Codes(), second.Codes())
	assert.Equal(t, []string{"journal", "proceedings", "thesis"}, second.Codes())

	_, err = c.FetchProjectVocabulary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, api.count(PathProjects))
}

func TestServerVersion(t *testing.T) {
	v, ok := ParseServerVersion("Pub DB 1.4.2")
	require.True(t, ok)
	assert.Equal(t, "1.4.2", v.String())

	_, ok = ParseServerVersion("nginx/1.25")
	assert.False(t, ok)
	_, ok = ParseServerVersion("Pub DB not-a-version")
	assert.False(t, ok)
}

func TestServerVersion_WarnsOnceWhenOld(t *testing.T) {
	api := newFakeAPI()
	api.server = "Pub DB 0.3.0"
	var buf bytes.Buffer
	c := newTestClient(t, api.handler(),
		WithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel)),
		WithMinServerVersion(semver.MustParse("0.5.0")))

	for range 3 {
		_, err := c.FetchCount(context.Background(), model.NewFilterSet())
		require.NoError(t, err)
	}

	assert.Equal(t, 1, strings.Count(buf.String(), "older than supported"))
	v, ok := c.ServerVersion()
	require.True(t, ok)
	assert.Equal(t, "0.3.0", v.String())
}

func TestServerVersion_PublicReleaseDoesNotWarn(t *testing.T) {
	api := newFakeAPI()
	api.server = "Pub DB 0.1.0"
	var buf bytes.Buffer
	c := newTestClient(t, api.handler(), WithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel)))

	_, err := c.FetchCount(context.Background(), model.NewFilterSet())
	require.NoError(t, err)

	assert.Empty(t, buf.String())
	v, ok := c.ServerVersion()
	require.True(t, ok)
	assert.Equal(t, "0.1.0", v.String())
}

// barrier holds every request until n have arrived, so a sequential client times out.
func barrier(n int, next http.Handler) http.Handler {
	var (
		mu      sync.Mutex
		arrived int
		release = make(chan struct{})
	)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		arrived++
		if arrived == n {
			close(release)
		}
		mu.Unlock()

		select {
		case <-release:
			next.ServeHTTP(w, r)
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusGatewayTimeout)
		case <-r.Context().Done():
		}
	})
}

func TestBootstrap_RequestsRunConcurrently(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, barrier(5, api.handler()))

	initial, err := c.Bootstrap(context.Background(), model.NewFilterSet())
	require.NoError(t, err)
	assert.Equal(t, 42, initial.Result.TotalCount)
	for _, path := range []string{PathFilterDefaults, PathTypes, PathProjects, PathPublications, PathCount} {
		assert.Equal(t, 1, api.count(path), path)
	}
}

func TestBootstrap(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api.handler())

	overrides := model.NewFilterSet()
	overrides.Set(model.FilterProjects, []string{"icecube"})
	overrides.Set("institution", "wipac")

	initial, err := c.Bootstrap(context.Background(), overrides)
	require.NoError(t, err)

	assert.Equal(t, "projects=icecube&institution=wipac&page=0&limit=20", api.lastQuery(PathPublications))
	assert.Equal(t, "projects=icecube&institution=wipac", api.lastQuery(PathCount))

	assert.Equal(t,
		[]string{"search", "start_date", "end_date", "type", "projects", "hide_projects", "institution"},
		initial.Filters.Keys())
	assert.Equal(t, []string{"icecube"}, initial.Filters.Strings(model.FilterProjects))
	assert.Equal(t, 42, initial.Result.TotalCount)
	assert.Len(t, initial.Result.Items, 1)
	assert.Equal(t, "HAWC", initial.Projects.Label("hawc"))
	assert.Equal(t, 3, initial.Types.Len())
	assert.Equal(t, InitialLimit, initial.Limit)
	for _, path := range []string{PathFilterDefaults, PathTypes, PathProjects, PathPublications, PathCount} {
		assert.Equal(t, 1, api.count(path), path)
	}
}

func TestBootstrap_Failure(t *testing.T) {
	api := newFakeAPI()
	api.failPath = PathProjects
	c := newTestClient(t, api.handler())

	initial, err := c.Bootstrap(context.Background(), model.NewFilterSet())
	require.Error(t, err)
	assert.Nil(t, initial)
	assert.Contains(t, err.Error(), "loading projects")
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.True(t, errors.Is(err, ErrNetwork))
}

func TestPublicationsDecode(t *testing.T) {
	var body struct {
		Publications []model.Publication `json:"publications"`
	}
	raw := `{"publications":[{"title":"T","authors":"solo","date":"2021-06-30T10:00:00"}]}`
	require.NoError(t, json.Unmarshal([]byte(raw), &body))
	assert.Equal(t, "30 June 2021", body.Publications[0].DisplayDate())
}

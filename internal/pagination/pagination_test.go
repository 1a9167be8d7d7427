package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokens(links []Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.String())
	}
	return out
}

func TestPageLinks(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		totalCount int
		limit      int
		want       []string
	}{
		{
			name:       "middle of ten pages",
			page:       5,
			totalCount: 100,
			limit:      10,
			want:       []string{"prev", "first", "2", "3", "4", "5", "6", "7", "8", "last", "next"},
		},
		{
			name:       "first page",
			page:       1,
			totalCount: 100,
			limit:      10,
			want:       []string{"1", "2", "3", "4", "last", "next"},
		},
		{
			name:       "last page",
			page:       10,
			totalCount: 100,
			limit:      10,
			want:       []string{"prev", "first", "7", "8", "9", "10"},
		},
		{
			name:       "partial trailing page",
			page:       4,
			totalCount: 101,
			limit:      10,
			want:       []string{"prev", "1", "2", "3", "4", "5", "6", "7", "last", "next"},
		},
		{
			name:       "single page",
			page:       1,
			totalCount: 15,
			limit:      20,
			want:       []string{"1"},
		},
		{
			name:       "no results",
			page:       1,
			totalCount: 0,
			limit:      20,
			want:       []string{},
		},
		{
			name:       "non-positive limit",
			page:       1,
			totalCount: 50,
			limit:      0,
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tokens(PageLinks(tt.page, tt.totalCount, tt.limit)))
		})
	}
}

func TestPageLinks_Targets(t *testing.T) {
	links := PageLinks(5, 100, 10)
	require.Len(t, links, 11)

	assert.Equal(t, Link{Kind: KindPrev, Page: 4}, links[0])
	assert.Equal(t, Link{Kind: KindFirst, Page: 1}, links[1])
	assert.Equal(t, Link{Kind: KindLast, Page: 10}, links[9])
	assert.Equal(t, Link{Kind: KindNext, Page: 6}, links[10])
}

func TestPageLinks_WindowNeverExceedsSeven(t *testing.T) {
	for page := 1; page <= 40; page++ {
		numbers := 0
		for _, l := range PageLinks(page, 400, 10) {
			if l.Kind == KindNumber {
				numbers++
				assert.LessOrEqual(t, l.Page, page+WindowRadius)
				assert.GreaterOrEqual(t, l.Page, page-WindowRadius)
			}
		}
		assert.LessOrEqual(t, numbers, 2*WindowRadius+1)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		page    int
		want    int
		wantErr error
	}{
		{name: "prev", token: "prev", page: 5, want: 4},
		{name: "next", token: "next", page: 5, want: 6},
		{name: "first", token: "first", page: 5, want: 1},
		{name: "last", token: "last", page: 5, want: 10},
		{name: "number", token: "7", page: 5, want: 7},
		{name: "prev from first page", token: "prev", page: 1, wantErr: ErrPageOutOfRange},
		{name: "zero", token: "0", page: 3, wantErr: ErrPageOutOfRange},
		{name: "unknown", token: "previous", page: 3, wantErr: ErrUnknownToken},
		{name: "empty", token: "", page: 3, wantErr: ErrUnknownToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.token, tt.page, 100, 10)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_RoundTripsLinks(t *testing.T) {
	for _, l := range PageLinks(5, 100, 10) {
		got, err := Resolve(l.String(), 5, 100, 10)
		require.NoError(t, err)
		assert.Equal(t, l.Page, got, l.String())
	}
}

func TestVisible(t *testing.T) {
	assert.False(t, Visible(1, 5, 20))
	assert.True(t, Visible(1, 20, 20))
	assert.True(t, Visible(2, 0, 20))
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(3, 45, 10)
	assert.Equal(t, Meta{
		CurrentPage: 3,
		PageSize:    10,
		TotalPages:  5,
		TotalItems:  45,
		HasPrevious: true,
		HasNext:     true,
	}, m)
	assert.Equal(t, 20, m.Offset())

	empty := NewMeta(0, 0, 10)
	assert.Equal(t, 1, empty.CurrentPage)
	assert.False(t, empty.HasNext)
	assert.False(t, empty.HasPrevious)
}

package model

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Date layouts accepted for Publication.Date.
var publicationDateLayouts = []string{ //nolint:gochecknoglobals // Read-only lookup table.
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

// DisplayDateLayout renders dates as "2 January 2006".
const DisplayDateLayout = "2 January 2006"

// StringList is a sequence of strings that also accepts a single JSON string.
type StringList []string

// UnmarshalJSON accepts either ["a","b"] or "a".
func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*l = nil
		} else {
			*l = StringList{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*l = many
	return nil
}

// Publication is a read-only catalog entry owned by the server.
type Publication struct {
	Title     string     `json:"title"`
	Authors   StringList `json:"authors"`
	Abstract  string     `json:"abstract,omitempty"`
	Type      string     `json:"type"`
	Citation  string     `json:"citation"`
	Date      string     `json:"date"`
	Downloads StringList `json:"downloads,omitempty"`
	Projects  StringList `json:"projects,omitempty"`
	Sites     StringList `json:"sites,omitempty"`
}

// Day parses Date. Dates with a time component are taken as UTC.
func (p Publication) Day() (time.Time, error) {
	for _, layout := range publicationDateLayouts {
		if t, err := time.Parse(layout, p.Date); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized publication date %q", p.Date)
}

// DisplayDate formats Date as "2 January 2006", or returns Date unchanged when it
// cannot be parsed.
func (p Publication) DisplayDate() string {
	t, err := p.Day()
	if err != nil {
		return p.Date
	}
	return t.Format(DisplayDateLayout)
}

// DownloadDomains returns the host name of every download link, in order.
func (p Publication) DownloadDomains() []string {
	out := make([]string, 0, len(p.Downloads))
	for _, link := range p.Downloads {
		out = append(out, LinkDomain(link))
	}
	return out
}

// LinkDomain returns the host of link. Links without a scheme are read as http. Links
// that do not parse, including scheme-relative "://host" ones, are returned as-is.
func LinkDomain(link string) string {
	u := link
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "://") {
		u = "http://" + u
	}
	parsed, err := url.Parse(u)
	if err != nil || parsed.Hostname() == "" {
		return link
	}
	return parsed.Hostname()
}

// ResultPage is one committed page of results. It is replaced wholesale on refresh.
type ResultPage struct {
	Items      []Publication `json:"publications"`
	TotalCount int           `json:"count"`
}

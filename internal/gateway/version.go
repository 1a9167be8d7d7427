package gateway

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// serverProduct prefixes the Server header sent by the publications API.
const serverProduct = "Pub DB"

// MinServerVersion is the oldest API release whose filter semantics this client matches.
// The public server advertises "Pub DB 0.1.0".
const MinServerVersion = "0.1.0"

// ParseServerVersion extracts the version from a "Pub DB x.y.z" Server header.
func ParseServerVersion(header string) (*semver.Version, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(header), serverProduct)
	if !ok {
		return nil, false
	}
	v, err := semver.NewVersion(strings.TrimSpace(rest))
	if err != nil {
		return nil, false
	}
	return v, true
}

// checkServerVersion logs once per client when the API is older than the minimum.
func (c *Client) checkServerVersion(header string) {
	c.versionOnce.Do(func() {
		v, ok := ParseServerVersion(header)
		if !ok {
			c.logger.Debug().Str("server", header).Msg("server version not advertised")
			return
		}
		c.serverVersion.Store(v)
		if v.LessThan(c.minServer) {
			c.logger.Warn().
				Str("server_version", v.String()).
				Str("min_version", c.minServer.String()).
				Msg("publications API is older than supported; filters may behave differently")
		}
	})
}

// ServerVersion returns the API version seen on the first response, if any.
func (c *Client) ServerVersion() (*semver.Version, bool) {
	v := c.serverVersion.Load()
	return v, v != nil
}

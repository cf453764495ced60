package api

import (
	"net/url"
	"strings"
)

// originAllowed reports whether a browser origin may reach the API. Requests
// without an Origin header come from native clients and are left to the
// token check. An allowed entry without a port matches any port on that
// scheme and host; "*" matches everything.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	o, err := url.Parse(origin)
	if err != nil || o.Host == "" {
		return false
	}
	for _, entry := range allowed {
		if entry == "*" {
			return true
		}
		a, err := url.Parse(entry)
		if err != nil || a.Host == "" {
			continue
		}
		if !strings.EqualFold(a.Scheme, o.Scheme) || !strings.EqualFold(a.Hostname(), o.Hostname()) {
			continue
		}
		if a.Port() == "" || a.Port() == o.Port() {
			return true
		}
	}
	return false
}

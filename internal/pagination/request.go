package pagination

import (
	"net/http"
	"net/url"
)

// RequestURL rebuilds the absolute URL of r so next/previous links can be
// followed directly. X-Forwarded-Proto wins over the connection's TLS state.
func RequestURL(r *http.Request) *url.URL {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return &url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
}

package cache

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	ProductListPrefix = "product_list"
	OrderListPrefix   = "order_list"
)

// Endpoint describes one cached list. Requests that differ in a VaryHeaders
// value never share an entry.
type Endpoint struct {
	Prefix      string
	TTL         time.Duration
	VaryHeaders []string
}

// Key is prefix:hash(vary header values):canonical query. The prefix comes
// first so DeletePrefix can drop every variant at once.
func (e Endpoint) Key(r *http.Request) string {
	h := xxhash.New()
	for _, name := range e.VaryHeaders {
		_, _ = h.WriteString(name)
		_, _ = h.WriteString("=")
		_, _ = h.WriteString(r.Header.Get(name))
		_, _ = h.WriteString("\n")
	}
	return e.Prefix + ":" + strconv.FormatUint(h.Sum64(), 16) + ":" + canonicalQuery(r.URL)
}

// canonicalQuery sorts keys so ?a=1&b=2 and ?b=2&a=1 share an entry.
func canonicalQuery(u *url.URL) string {
	return u.Query().Encode()
}

// Package pagination turns a filtered query into one bounded page plus the
// links a client follows to reach its neighbours. Paginators never touch the
// database themselves; they compute a Window from the request URL and the
// total row count, and Apply narrows a query to that window.
package pagination

import (
	"net/url"
	"strconv"

	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/utils"
)

// Window is the slice of a result set a paginator selected.
type Window struct {
	Offset   int
	Limit    int
	Count    int64
	Next     *string
	Previous *string

	// Unbounded windows return everything and carry no metadata.
	Unbounded bool
}

// Meta returns the response metadata, nil for unbounded windows.
func (w Window) Meta() *utils.PaginationMeta {
	if w.Unbounded {
		return nil
	}
	return &utils.PaginationMeta{Count: w.Count, Next: w.Next, Previous: w.Previous}
}

type Paginator interface {
	Window(u *url.URL, count int64) (Window, error)
}

// Apply limits db to the window.
func Apply(db *gorm.DB, w Window) *gorm.DB {
	if w.Unbounded {
		return db
	}
	return db.Offset(w.Offset).Limit(w.Limit)
}

// New returns the paginator registered under style. Unknown styles fall back
// to no pagination; config.Validate rejects them earlier.
func New(style string, pageSize, maxPageSize, defaultLimit, maxLimit int) Paginator {
	switch style {
	case "page_number":
		return NewPageNumber(pageSize, maxPageSize)
	case "limit_offset":
		return NewLimitOffset(defaultLimit, maxLimit)
	default:
		return None{}
	}
}

// PageNumber pages by ?page_num=N with an optional ?size=M override.
type PageNumber struct {
	PageSize           int
	PageQueryParam     string
	PageSizeQueryParam string
	MaxPageSize        int
	LastPageStrings    []string
}

func NewPageNumber(pageSize, maxPageSize int) *PageNumber {
	return &PageNumber{
		PageSize:           pageSize,
		PageQueryParam:     "page_num",
		PageSizeQueryParam: "size",
		MaxPageSize:        maxPageSize,
		LastPageStrings:    []string{"last"},
	}
}

func (p *PageNumber) pageSize(q url.Values) int {
	size := p.PageSize
	if p.PageSizeQueryParam == "" {
		return size
	}
	raw := q.Get(p.PageSizeQueryParam)
	if raw == "" {
		return size
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return size
	}
	if p.MaxPageSize > 0 && n > p.MaxPageSize {
		return p.MaxPageSize
	}
	return n
}

func (p *PageNumber) Window(u *url.URL, count int64) (Window, error) {
	q := u.Query()
	size := p.pageSize(q)

	pages := int((count + int64(size) - 1) / int64(size))
	if pages < 1 {
		pages = 1
	}

	page := 1
	if raw := q.Get(p.PageQueryParam); raw != "" {
		if p.isLast(raw) {
			page = pages
		} else {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return Window{}, utils.NewBadRequestError(i18n.KeyValidationPage)
			}
			page = n
		}
	}

	// Past the last page the window is empty; page*size could overflow.
	offset := int(count)
	if page <= pages {
		offset = (page - 1) * size
	}

	w := Window{Offset: offset, Limit: size, Count: count}
	if page < pages {
		w.Next = link(u, p.PageQueryParam, strconv.Itoa(page+1))
	}
	if page > 1 {
		prev := page - 1
		if prev > pages {
			prev = pages
		}
		if prev == 1 {
			w.Previous = linkWithout(u, p.PageQueryParam)
		} else {
			w.Previous = link(u, p.PageQueryParam, strconv.Itoa(prev))
		}
	}
	return w, nil
}

func (p *PageNumber) isLast(raw string) bool {
	for _, s := range p.LastPageStrings {
		if raw == s {
			return true
		}
	}
	return false
}

// LimitOffset pages by ?limit=N&offset=M.
type LimitOffset struct {
	DefaultLimit     int
	MaxLimit         int
	LimitQueryParam  string
	OffsetQueryParam string
}

func NewLimitOffset(defaultLimit, maxLimit int) *LimitOffset {
	return &LimitOffset{
		DefaultLimit:     defaultLimit,
		MaxLimit:         maxLimit,
		LimitQueryParam:  "limit",
		OffsetQueryParam: "offset",
	}
}

func (p *LimitOffset) limit(q url.Values) int {
	n, err := strconv.Atoi(q.Get(p.LimitQueryParam))
	if err != nil || n < 1 {
		return p.DefaultLimit
	}
	if p.MaxLimit > 0 && n > p.MaxLimit {
		return p.MaxLimit
	}
	return n
}

func (p *LimitOffset) offset(q url.Values) int {
	n, err := strconv.Atoi(q.Get(p.OffsetQueryParam))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func (p *LimitOffset) Window(u *url.URL, count int64) (Window, error) {
	q := u.Query()
	limit := p.limit(q)
	offset := p.offset(q)
	if int64(offset) > count {
		offset = int(count)
	}

	w := Window{Offset: offset, Limit: limit, Count: count}

	if int64(offset+limit) < count {
		next := setParams(u, map[string]string{
			p.LimitQueryParam:  strconv.Itoa(limit),
			p.OffsetQueryParam: strconv.Itoa(offset + limit),
		})
		w.Next = &next
	}

	if offset > 0 {
		prevOffset := offset - limit
		if int64(prevOffset) >= count {
			prevOffset = int(count) - limit
		}
		if prevOffset <= 0 {
			prev := setParams(u, map[string]string{p.LimitQueryParam: strconv.Itoa(limit)})
			prev = removeParam(prev, p.OffsetQueryParam)
			w.Previous = &prev
		} else {
			prev := setParams(u, map[string]string{
				p.LimitQueryParam:  strconv.Itoa(limit),
				p.OffsetQueryParam: strconv.Itoa(prevOffset),
			})
			w.Previous = &prev
		}
	}
	return w, nil
}

// None disables pagination for an endpoint.
type None struct{}

func (None) Window(_ *url.URL, count int64) (Window, error) {
	return Window{Count: count, Unbounded: true}, nil
}

func link(u *url.URL, key, value string) *string {
	s := setParams(u, map[string]string{key: value})
	return &s
}

func linkWithout(u *url.URL, key string) *string {
	s := removeParam(u.String(), key)
	return &s
}

func setParams(u *url.URL, params map[string]string) string {
	clone := *u
	q := clone.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	clone.RawQuery = q.Encode()
	return clone.String()
}

func removeParam(raw, key string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	q.Del(key)
	u.RawQuery = q.Encode()
	return u.String()
}

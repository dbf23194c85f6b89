package query

import (
	"net/url"
	"strings"
	"unicode"

	"gorm.io/gorm"
)

// SearchMode is how a search term is matched against one column.
type SearchMode int

const (
	// SearchExact matches the whole column value.
	SearchExact SearchMode = iota
	// SearchIContains matches a case-insensitive substring.
	SearchIContains
)

type SearchField struct {
	Column string
	Mode   SearchMode
}

// ApplySearch splits ?search= into terms. A row matches a term when any
// search field matches it; every term has to match.
func (r *Resource) ApplySearch(db *gorm.DB, params url.Values) *gorm.DB {
	if r.SearchParam == "" || len(r.SearchFields) == 0 {
		return db
	}
	for _, term := range searchTerms(params.Get(r.SearchParam)) {
		sql, args := r.termCondition(term)
		db = db.Where(sql, args...)
	}
	return db
}

func (r *Resource) termCondition(term string) (string, []interface{}) {
	parts := make([]string, 0, len(r.SearchFields))
	args := make([]interface{}, 0, len(r.SearchFields))
	for _, f := range r.SearchFields {
		switch f.Mode {
		case SearchExact:
			parts = append(parts, f.Column+" = ?")
			args = append(args, term)
		case SearchIContains:
			parts = append(parts, "LOWER("+f.Column+") LIKE ? ESCAPE '\\'")
			args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
		}
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

func searchTerms(raw string) []string {
	raw = strings.ReplaceAll(raw, "\x00", "")
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

package query

import (
	"net/url"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type orderTerm struct {
	column string
	desc   bool
}

// ApplyOrder sorts by the whitelisted fields named in ?ordering=a,-b. Unknown
// fields are dropped; the primary key always breaks ties.
func (r *Resource) ApplyOrder(db *gorm.DB, params url.Values) *gorm.DB {
	for _, t := range r.orderTerms(params.Get(r.OrderingParam)) {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: t.column}, Desc: t.desc})
	}
	return db
}

func (r *Resource) orderTerms(raw string) []orderTerm {
	terms := r.parseOrdering(raw)
	if len(terms) == 0 {
		terms = r.parseDefault()
	}

	seen := make(map[string]bool, len(terms)+1)
	out := make([]orderTerm, 0, len(terms)+1)
	for _, t := range terms {
		if seen[t.column] {
			continue
		}
		seen[t.column] = true
		out = append(out, t)
	}
	if r.PrimaryKey != "" && !seen[r.PrimaryKey] {
		out = append(out, orderTerm{column: r.PrimaryKey})
	}
	return out
}

func (r *Resource) parseOrdering(raw string) []orderTerm {
	if raw == "" {
		return nil
	}
	var terms []orderTerm
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		name := strings.TrimPrefix(part, "-")
		column, ok := r.OrderingFields[name]
		if !ok {
			continue
		}
		terms = append(terms, orderTerm{column: column, desc: strings.HasPrefix(part, "-")})
	}
	return terms
}

func (r *Resource) parseDefault() []orderTerm {
	terms := make([]orderTerm, 0, len(r.DefaultOrdering))
	for _, part := range r.DefaultOrdering {
		terms = append(terms, orderTerm{
			column: strings.TrimPrefix(part, "-"),
			desc:   strings.HasPrefix(part, "-"),
		})
	}
	return terms
}

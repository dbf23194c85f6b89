// Package query builds restricted list queries from request parameters.
//
// Each resource declares a whitelist of filterable, searchable and orderable
// fields. Parameters outside the whitelist are ignored, so a request can never
// reach a column the resource did not expose. Composition always runs in the
// same order: backend predicates, field filters, search, then ordering.
package query

import (
	"net/url"
	"sort"

	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/utils"
)

// Composer restricts a query according to request parameters.
type Composer interface {
	ApplyBackendFilters(db *gorm.DB) *gorm.DB
	ApplyFilters(db *gorm.DB, params url.Values) (*gorm.DB, error)
	ApplySearch(db *gorm.DB, params url.Values) *gorm.DB
	ApplyOrder(db *gorm.DB, params url.Values) *gorm.DB
	Compose(db *gorm.DB, params url.Values) (*gorm.DB, error)
}

// BackendFilter is a predicate applied to every query of a resource. It runs
// before user filters and cannot be switched off by parameters.
type BackendFilter func(db *gorm.DB) *gorm.DB

// Resource is the declarative whitelist for one entity type.
type Resource struct {
	Name            string
	PrimaryKey      string
	Filters         map[string]Field
	SearchParam     string
	SearchFields    []SearchField
	OrderingParam   string
	OrderingFields  map[string]string
	DefaultOrdering []string
	Backend         []BackendFilter
}

var _ Composer = (*Resource)(nil)

func (r *Resource) ApplyBackendFilters(db *gorm.DB) *gorm.DB {
	for _, f := range r.Backend {
		db = f(db)
	}
	return db
}

// ApplyFilters applies every whitelisted field filter present in params.
// Values that cannot be parsed for their field are reported together.
func (r *Resource) ApplyFilters(db *gorm.DB, params url.Values) (*gorm.DB, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var problems []utils.ValidationError
	for _, key := range keys {
		values := params[key]
		if len(values) == 0 {
			continue
		}
		raw := values[len(values)-1]
		if raw == "" {
			continue
		}

		name, lookup := splitParam(key)
		field, ok := r.Filters[name]
		if !ok || !field.allows(lookup) {
			continue
		}

		cond, err := field.condition(lookup, raw)
		if err != nil {
			problems = append(problems, utils.ValidationError{Field: key, Tag: string(lookup), Message: err.Error()})
			continue
		}
		db = db.Where(cond.sql, cond.args...)
	}

	if len(problems) > 0 {
		return db, utils.NewValidationError(problems...)
	}
	return db, nil
}

// Compose applies backend predicates, filters and search. Ordering is left to
// the caller so the result can be counted first.
func (r *Resource) Compose(db *gorm.DB, params url.Values) (*gorm.DB, error) {
	db = r.ApplyBackendFilters(db)
	db, err := r.ApplyFilters(db, params)
	if err != nil {
		return db, err
	}
	return r.ApplySearch(db, params), nil
}

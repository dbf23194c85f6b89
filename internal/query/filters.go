package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Lookup is the operator suffix of a filter parameter, e.g. price__lt.
type Lookup string

const (
	Exact     Lookup = "exact"
	IExact    Lookup = "iexact"
	Contains  Lookup = "contains"
	IContains Lookup = "icontains"
	LT        Lookup = "lt"
	GT        Lookup = "gt"
	Range     Lookup = "range"
	Date      Lookup = "date"
)

const lookupSeparator = "__"

// Kind decides how a raw parameter value is parsed.
type Kind int

const (
	KindString Kind = iota
	KindDecimal
	KindInt
	KindTime
	KindChoice
)

// Field is one filterable column.
type Field struct {
	Column  string
	Kind    Kind
	Lookups []Lookup
	Choices []string
}

type condition struct {
	sql  string
	args []interface{}
}

type conditionBuilder func(f Field, raw string) (condition, error)

// lookupTable maps each operator to the SQL it produces. Column names come
// from the resource whitelist only; values are always bound.
var lookupTable = map[Lookup]conditionBuilder{
	Exact: func(f Field, raw string) (condition, error) {
		v, err := f.parse(raw)
		if err != nil {
			return condition{}, err
		}
		return condition{f.Column + " = ?", []interface{}{v}}, nil
	},
	IExact: func(f Field, raw string) (condition, error) {
		return condition{"LOWER(" + f.Column + ") = ?", []interface{}{strings.ToLower(raw)}}, nil
	},
	Contains: func(f Field, raw string) (condition, error) {
		return condition{f.Column + " LIKE ? ESCAPE '\\'", []interface{}{"%" + escapeLike(raw) + "%"}}, nil
	},
	IContains: func(f Field, raw string) (condition, error) {
		return condition{"LOWER(" + f.Column + ") LIKE ? ESCAPE '\\'", []interface{}{"%" + escapeLike(strings.ToLower(raw)) + "%"}}, nil
	},
	LT: func(f Field, raw string) (condition, error) {
		v, err := f.parse(raw)
		if err != nil {
			return condition{}, err
		}
		return condition{f.Column + " < ?", []interface{}{v}}, nil
	},
	GT: func(f Field, raw string) (condition, error) {
		v, err := f.parse(raw)
		if err != nil {
			return condition{}, err
		}
		return condition{f.Column + " > ?", []interface{}{v}}, nil
	},
	Range: func(f Field, raw string) (condition, error) {
		parts := strings.Split(raw, ",")
		if len(parts) != 2 {
			return condition{}, errors.New("Enter two comma-separated values.")
		}
		lo, err := f.parse(strings.TrimSpace(parts[0]))
		if err != nil {
			return condition{}, err
		}
		hi, err := f.parse(strings.TrimSpace(parts[1]))
		if err != nil {
			return condition{}, err
		}
		return condition{"(" + f.Column + " >= ? AND " + f.Column + " <= ?)", []interface{}{lo, hi}}, nil
	},
	Date: func(f Field, raw string) (condition, error) {
		day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			return condition{}, errors.New("Enter a valid date.")
		}
		return condition{
			"(" + f.Column + " >= ? AND " + f.Column + " < ?)",
			[]interface{}{day, day.Add(24 * time.Hour)},
		}, nil
	},
}

func (f Field) allows(l Lookup) bool {
	for _, allowed := range f.Lookups {
		if allowed == l {
			return true
		}
	}
	return false
}

func (f Field) condition(l Lookup, raw string) (condition, error) {
	build, ok := lookupTable[l]
	if !ok {
		return condition{}, fmt.Errorf("unsupported lookup %q", l)
	}
	return build(f, raw)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (f Field) parse(raw string) (interface{}, error) {
	switch f.Kind {
	case KindDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, errors.New("Enter a number.")
		}
		return d, nil
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("Enter a whole number.")
		}
		return n, nil
	case KindTime:
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, errors.New("Enter a valid date/time.")
	case KindChoice:
		for _, c := range f.Choices {
			if c == raw {
				return raw, nil
			}
		}
		return nil, fmt.Errorf("Select a valid choice. %s is not one of the available choices.", raw)
	default:
		return raw, nil
	}
}

// splitParam turns "price__lt" into ("price", lt) and "price" into ("price", exact).
func splitParam(key string) (string, Lookup) {
	idx := strings.LastIndex(key, lookupSeparator)
	if idx <= 0 {
		return key, Exact
	}
	return key[:idx], Lookup(key[idx+len(lookupSeparator):])
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

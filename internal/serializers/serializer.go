// Package serializers converts between stored models and their wire shapes,
// and validates incoming payloads before they reach the store.
package serializers

import (
	"github.com/shopspring/decimal"

	"github.com/javajoker/catalog-api/internal/utils"
)

// Serializer validates a write payload In, applies it to a model M and
// renders M as Out.
type Serializer[M any, In any, Out any] interface {
	// Validate checks in. With partial set only supplied fields are checked.
	Validate(in *In, partial bool) error
	FromWire(in *In, m *M)
	ToWire(m *M) Out
}

// money renders amounts the way decimal(10,2) columns are stored.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func requiredField(field string) utils.ValidationError {
	return utils.ValidationError{Field: field, Tag: "required", Message: "This field is required."}
}

// collect merges validator/v10 failures with hand-written checks into one
// VALIDATION_ERROR.
func collect(in interface{}, extra []utils.ValidationError) error {
	problems := extra
	if err := utils.ValidateStruct(in); err != nil {
		problems = append(problems, utils.GetValidationErrors(err)...)
	}
	if len(problems) == 0 {
		return nil
	}
	return utils.NewValidationError(problems...)
}

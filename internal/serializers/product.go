package serializers

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/models"
	"github.com/javajoker/catalog-api/internal/utils"
)

// price is stored as decimal(10,2).
var maxPrice = decimal.New(1, 8)

// ProductWrite is the body of POST/PUT/PATCH /products/. Nil fields were not
// supplied.
type ProductWrite struct {
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
}

// ProductRead is a product as it appears in lists.
type ProductRead struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Stock       int    `json:"stock"`
}

// ProductDetail adds the id for single-object responses.
type ProductDetail struct {
	ID uint `json:"id"`
	ProductRead
}

// ProductInfo is the body of GET /products/info/.
type ProductInfo struct {
	Products []ProductRead `json:"products"`
	Count    int           `json:"count"`
	MaxPrice *float64      `json:"max_price"`
}

type ProductSerializer struct{}

var _ Serializer[models.Product, ProductWrite, ProductDetail] = ProductSerializer{}

func (ProductSerializer) Validate(in *ProductWrite, partial bool) error {
	var problems []utils.ValidationError

	if in.Name == nil {
		if !partial {
			problems = append(problems, requiredField("name"))
		}
	} else if strings.TrimSpace(*in.Name) == "" {
		problems = append(problems, utils.ValidationError{Field: "name", Tag: "blank", Message: "This field may not be blank."})
	}

	if in.Price == nil {
		if !partial {
			problems = append(problems, requiredField("price"))
		}
	} else {
		switch {
		case !in.Price.IsPositive():
			problems = append(problems, utils.ValidationError{Field: "price", Tag: "gt", Message: i18n.T("en", i18n.KeyValidationPrice)})
		case !in.Price.Equal(in.Price.Round(2)):
			problems = append(problems, utils.ValidationError{Field: "price", Tag: "decimal_places", Message: "Ensure that there are no more than 2 decimal places."})
		case in.Price.GreaterThanOrEqual(maxPrice):
			problems = append(problems, utils.ValidationError{Field: "price", Tag: "max_digits", Message: "Ensure that there are no more than 10 digits in total."})
		}
	}

	return collect(in, problems)
}

// FromWire copies the supplied fields onto p.
func (ProductSerializer) FromWire(in *ProductWrite, p *models.Product) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = in.Price.Round(2)
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
}

func (ProductSerializer) ToWire(p *models.Product) ProductDetail {
	return ProductDetail{ID: p.ID, ProductRead: ProductReadOf(p)}
}

func ProductReadOf(p *models.Product) ProductRead {
	return ProductRead{
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Stock:       p.Stock,
	}
}

func ProductList(products []models.Product) []ProductRead {
	out := make([]ProductRead, len(products))
	for i := range products {
		out[i] = ProductReadOf(&products[i])
	}
	return out
}

// NewProductInfo renders the info summary. max is invalid when there are
// no products.
func NewProductInfo(products []models.Product, max decimal.NullDecimal) ProductInfo {
	info := ProductInfo{Products: ProductList(products), Count: len(products)}
	if max.Valid {
		f := max.Decimal.InexactFloat64()
		info.MaxPrice = &f
	}
	return info
}

package query

import (
	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/models"
)

// InStock hides sold-out products from listings.
func InStock(db *gorm.DB) *gorm.DB {
	return db.Where("stock > ?", 0)
}

// Products is the product list whitelist.
var Products = &Resource{
	Name:       "product",
	PrimaryKey: "id",
	Filters: map[string]Field{
		"name":  {Column: "name", Kind: KindString, Lookups: []Lookup{Exact, IExact, Contains, IContains}},
		"price": {Column: "price", Kind: KindDecimal, Lookups: []Lookup{Exact, LT, GT, Range}},
	},
	SearchParam: "search",
	SearchFields: []SearchField{
		{Column: "name", Mode: SearchExact},
		{Column: "description", Mode: SearchIContains},
	},
	OrderingParam: "ordering",
	OrderingFields: map[string]string{
		"name":  "name",
		"price": "price",
		"stock": "stock",
	},
	DefaultOrdering: []string{"id"},
	Backend:         []BackendFilter{InStock},
}

// Orders is the order list whitelist. Ownership scoping is applied by the
// order service, not here.
var Orders = &Resource{
	Name:       "order",
	PrimaryKey: "order_id",
	Filters: map[string]Field{
		"status": {
			Column:  "status",
			Kind:    KindChoice,
			Lookups: []Lookup{Exact},
			Choices: []string{
				string(models.OrderStatusPending),
				string(models.OrderStatusComplete),
				string(models.OrderStatusCancelled),
			},
		},
		"created_at": {Column: "created_at", Kind: KindTime, Lookups: []Lookup{LT, GT, Date}},
	},
	OrderingParam: "ordering",
	OrderingFields: map[string]string{
		"created_at": "created_at",
		"status":     "status",
	},
	DefaultOrdering: []string{"-created_at"},
}

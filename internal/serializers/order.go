package serializers

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/catalog-api/internal/models"
	"github.com/javajoker/catalog-api/internal/utils"
)

// OrderItemWrite is one requested line. Product is a product id.
type OrderItemWrite struct {
	Product  uint `json:"product" validate:"required"`
	Quantity int  `json:"quantity" validate:"required,gte=1"`
}

// OrderWriteRequest is the body of order writes. The owner and id are never
// taken from the client. Items is nil when the field was absent.
type OrderWriteRequest struct {
	Status *models.OrderStatus `json:"status" validate:"omitempty,oneof=pending complete cancelled"`
	Items  []OrderItemWrite    `json:"items" validate:"omitempty,dive"`
}

type OrderItemRead struct {
	ProductName  string `json:"product_name"`
	ProductPrice string `json:"product_price"`
	Quantity     int    `json:"quantity"`
	ItemSubtotal string `json:"item_subtotal"`
}

type OrderRead struct {
	OrderID    uuid.UUID          `json:"order_id"`
	User       uint               `json:"user"`
	CreatedAt  time.Time          `json:"created_at"`
	Status     models.OrderStatus `json:"status"`
	Items      []OrderItemRead    `json:"items"`
	TotalPrice string             `json:"total_price"`
}

type OrderSerializer struct{}

var _ Serializer[models.Order, OrderWriteRequest, OrderRead] = OrderSerializer{}

// Validate requires a non-empty item list on full writes. A partial write
// may omit items, but an explicit empty list is still rejected.
func (OrderSerializer) Validate(in *OrderWriteRequest, partial bool) error {
	var problems []utils.ValidationError
	switch {
	case in.Items == nil && !partial:
		problems = append(problems, requiredField("items"))
	case in.Items != nil && len(in.Items) == 0:
		problems = append(problems, utils.ValidationError{Field: "items", Tag: "min", Message: "This list may not be empty."})
	}
	return collect(in, problems)
}

// FromWire applies status and, when supplied, replaces the item list. The
// new items carry only product ids; the service resolves products.
func (OrderSerializer) FromWire(in *OrderWriteRequest, o *models.Order) {
	if in.Status != nil {
		o.Status = *in.Status
	}
	if in.Items == nil {
		return
	}
	o.Items = make([]models.OrderItem, len(in.Items))
	for i, item := range in.Items {
		o.Items[i] = models.OrderItem{
			OrderID:   o.OrderID,
			ProductID: item.Product,
			Quantity:  item.Quantity,
		}
	}
}

// ToWire expects items to be loaded with their products.
func (OrderSerializer) ToWire(o *models.Order) OrderRead {
	items := make([]OrderItemRead, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = OrderItemRead{
			ProductName:  item.Product.Name,
			ProductPrice: money(item.Product.Price),
			Quantity:     item.Quantity,
			ItemSubtotal: money(item.ItemSubtotal()),
		}
	}
	return OrderRead{
		OrderID:    o.OrderID,
		User:       o.UserID,
		CreatedAt:  o.CreatedAt,
		Status:     o.Status,
		Items:      items,
		TotalPrice: money(o.TotalPrice()),
	}
}

func OrderList(orders []models.Order) []OrderRead {
	s := OrderSerializer{}
	out := make([]OrderRead, len(orders))
	for i := range orders {
		out[i] = s.ToWire(&orders[i])
	}
	return out
}

// ItemField names the product field of the i-th requested item.
func ItemField(i int) string {
	return fmt.Sprintf("items[%d].product", i)
}

// internal/models/order.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	OrderID   uuid.UUID   `json:"order_id" gorm:"type:uuid;primaryKey"`
	UserID    uint        `json:"user" gorm:"not null;index"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(10);not null;default:'pending';index"`
	CreatedAt time.Time   `json:"created_at" gorm:"index"`

	// Relationships
	User  User        `json:"-" gorm:"foreignKey:UserID"`
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;references:OrderID;constraint:OnDelete:CASCADE"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.OrderID == uuid.Nil {
		o.OrderID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	return nil
}

// TotalPrice sums the item subtotals. Items must be loaded with their products.
func (o *Order) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for i := range o.Items {
		total = total.Add(o.Items[i].ItemSubtotal())
	}
	return total
}

type OrderItem struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID   uuid.UUID `json:"order" gorm:"type:uuid;not null;index"`
	ProductID uint      `json:"product" gorm:"not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`

	Product Product `json:"-" gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (i *OrderItem) ItemSubtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// internal/services/order_service.go
package services

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/models"
	"github.com/javajoker/catalog-api/internal/pagination"
	"github.com/javajoker/catalog-api/internal/query"
	"github.com/javajoker/catalog-api/internal/serializers"
	"github.com/javajoker/catalog-api/internal/utils"
)

type OrderService struct {
	store      store
	cache      *cache.Manager
	paginator  pagination.Paginator
	serializer serializers.OrderSerializer
}

func NewOrderService(db *gorm.DB, cacheManager *cache.Manager, paginator pagination.Paginator, queryTimeout time.Duration) *OrderService {
	return &OrderService{
		store:     store{db: db, timeout: queryTimeout},
		cache:     cacheManager,
		paginator: paginator,
	}
}

// visibleTo limits a query to the orders caller may see. Staff see all.
func visibleTo(caller *utils.Caller) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if caller.IsStaff {
			return db
		}
		return db.Where("orders.user_id = ?", caller.ID)
	}
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id")
	}).Preload("Items.Product")
}

func (s *OrderService) List(ctx context.Context, caller *utils.Caller, u *url.URL) (*Page[serializers.OrderRead], error) {
	var orders []models.Order
	var window pagination.Window

	err := s.store.read(ctx, "list orders", func(db *gorm.DB) error {
		var err error
		orders, window, err = listPage[models.Order](db.Scopes(visibleTo(caller)), query.Orders, s.paginator, u, withItems)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Page[serializers.OrderRead]{
		Results: serializers.OrderList(orders),
		Meta:    window.Meta(),
	}, nil
}

// UserOrders returns every order the caller owns, newest first. Staff get
// only their own orders here too.
func (s *OrderService) UserOrders(ctx context.Context, caller *utils.Caller) ([]serializers.OrderRead, error) {
	var orders []models.Order
	err := s.store.read(ctx, "list user orders", func(db *gorm.DB) error {
		return withItems(db).
			Where("user_id = ?", caller.ID).
			Order("created_at DESC").Order("order_id").
			Find(&orders).Error
	})
	if err != nil {
		return nil, err
	}
	return serializers.OrderList(orders), nil
}

func (s *OrderService) Get(ctx context.Context, caller *utils.Caller, id uuid.UUID) (*serializers.OrderRead, error) {
	var order models.Order
	err := s.store.read(ctx, "get order", func(db *gorm.DB) error {
		return s.find(withItems(db), caller, id, &order)
	})
	if err != nil {
		return nil, err
	}

	out := s.serializer.ToWire(&order)
	return &out, nil
}

// Create stores an order owned by caller together with its items.
func (s *OrderService) Create(ctx context.Context, caller *utils.Caller, in *serializers.OrderWriteRequest) (*serializers.OrderRead, error) {
	if err := s.serializer.Validate(in, false); err != nil {
		return nil, err
	}

	order := models.Order{UserID: caller.ID}
	s.serializer.FromWire(in, &order)

	err := s.store.write(ctx, "create order", func(tx *gorm.DB) error {
		if err := checkProducts(tx, in.Items); err != nil {
			return err
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return withItems(tx).First(&order, "order_id = ?", order.OrderID).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	out := s.serializer.ToWire(&order)
	return &out, nil
}

// Update changes the status and, when items are supplied, replaces the whole
// item list. PUT must supply items; PATCH may omit them.
func (s *OrderService) Update(ctx context.Context, caller *utils.Caller, id uuid.UUID, in *serializers.OrderWriteRequest, partial bool) (*serializers.OrderRead, error) {
	if err := s.serializer.Validate(in, partial); err != nil {
		return nil, err
	}

	var order models.Order
	err := s.store.write(ctx, "update order", func(tx *gorm.DB) error {
		if err := s.find(tx, caller, id, &order); err != nil {
			return err
		}

		if in.Items != nil {
			if err := checkProducts(tx, in.Items); err != nil {
				return err
			}
		}

		s.serializer.FromWire(in, &order)
		if err := tx.Model(&models.Order{}).Where("order_id = ?", order.OrderID).
			UpdateColumn("status", order.Status).Error; err != nil {
			return err
		}

		if in.Items != nil {
			if err := tx.Where("order_id = ?", order.OrderID).Delete(&models.OrderItem{}).Error; err != nil {
				return err
			}
			if err := tx.Omit(clause.Associations).Create(&order.Items).Error; err != nil {
				return err
			}
		}

		return withItems(tx).First(&order, "order_id = ?", order.OrderID).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	out := s.serializer.ToWire(&order)
	return &out, nil
}

func (s *OrderService) Delete(ctx context.Context, caller *utils.Caller, id uuid.UUID) error {
	err := s.store.write(ctx, "delete order", func(tx *gorm.DB) error {
		var order models.Order
		if err := s.find(tx, caller, id, &order); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", order.OrderID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// find loads one order visible to caller. Orders owned by someone else are
// reported as missing so their ids do not leak.
func (s *OrderService) find(db *gorm.DB, caller *utils.Caller, id uuid.UUID, order *models.Order) error {
	err := db.Scopes(visibleTo(caller)).First(order, "orders.order_id = ?", id).Error
	if isNotFound(err) {
		return utils.NewNotFoundError(i18n.KeyOrderNotFound)
	}
	return err
}

// checkProducts reports every requested product id that does not exist.
func checkProducts(tx *gorm.DB, items []serializers.OrderItemWrite) error {
	ids := make([]uint, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Product)
	}

	var found []uint
	if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return err
	}
	exists := make(map[uint]bool, len(found))
	for _, id := range found {
		exists[id] = true
	}

	var problems []utils.ValidationError
	for i, item := range items {
		if !exists[item.Product] {
			problems = append(problems, utils.ValidationError{
				Field:   serializers.ItemField(i),
				Tag:     "does_not_exist",
				Message: i18n.T("en", i18n.KeyValidationProduct, item.Product),
			})
		}
	}
	if len(problems) > 0 {
		return utils.NewValidationError(problems...)
	}
	return nil
}

func (s *OrderService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, cache.OrderListPrefix)
}

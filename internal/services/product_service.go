// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/i18n"
	"github.com/javajoker/catalog-api/internal/models"
	"github.com/javajoker/catalog-api/internal/pagination"
	"github.com/javajoker/catalog-api/internal/query"
	"github.com/javajoker/catalog-api/internal/serializers"
	"github.com/javajoker/catalog-api/internal/utils"
)

type ProductService struct {
	store      store
	cache      *cache.Manager
	paginator  pagination.Paginator
	serializer serializers.ProductSerializer
}

func NewProductService(db *gorm.DB, cacheManager *cache.Manager, paginator pagination.Paginator, queryTimeout time.Duration) *ProductService {
	return &ProductService{
		store:     store{db: db, timeout: queryTimeout},
		cache:     cacheManager,
		paginator: paginator,
	}
}

// List returns the in-stock products selected by the filter, search,
// ordering and pagination parameters of u.
func (s *ProductService) List(ctx context.Context, u *url.URL) (*Page[serializers.ProductRead], error) {
	var products []models.Product
	var window pagination.Window

	err := s.store.read(ctx, "list products", func(db *gorm.DB) error {
		var err error
		products, window, err = listPage[models.Product](db, query.Products, s.paginator, u, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &Page[serializers.ProductRead]{
		Results: serializers.ProductList(products),
		Meta:    window.Meta(),
	}, nil
}

// Get looks a product up by id. Sold-out products are still visible here.
func (s *ProductService) Get(ctx context.Context, id uint) (*serializers.ProductDetail, error) {
	var product models.Product
	err := s.store.read(ctx, "get product", func(db *gorm.DB) error {
		return db.First(&product, id).Error
	})
	if err != nil {
		if isNotFound(err) {
			return nil, utils.NewNotFoundError(i18n.KeyProductNotFound)
		}
		return nil, err
	}

	out := s.serializer.ToWire(&product)
	return &out, nil
}

func (s *ProductService) Create(ctx context.Context, in *serializers.ProductWrite) (*serializers.ProductDetail, error) {
	if err := s.serializer.Validate(in, false); err != nil {
		return nil, err
	}

	var product models.Product
	s.serializer.FromWire(in, &product)

	if err := s.store.write(ctx, "create product", func(tx *gorm.DB) error {
		return tx.Create(&product).Error
	}); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	out := s.serializer.ToWire(&product)
	return &out, nil
}

// Update applies in to the product. With partial set (PATCH) absent fields
// keep their stored values.
func (s *ProductService) Update(ctx context.Context, id uint, in *serializers.ProductWrite, partial bool) (*serializers.ProductDetail, error) {
	if err := s.serializer.Validate(in, partial); err != nil {
		return nil, err
	}

	var product models.Product
	err := s.store.write(ctx, "update product", func(tx *gorm.DB) error {
		if err := tx.First(&product, id).Error; err != nil {
			if isNotFound(err) {
				return utils.NewNotFoundError(i18n.KeyProductNotFound)
			}
			return err
		}
		s.serializer.FromWire(in, &product)
		return tx.Save(&product).Error
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	out := s.serializer.ToWire(&product)
	return &out, nil
}

// Delete removes a product. Products referenced by any order item are kept
// and reported as a conflict.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	err := s.store.write(ctx, "delete product", func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, id).Error; err != nil {
			if isNotFound(err) {
				return utils.NewNotFoundError(i18n.KeyProductNotFound)
			}
			return err
		}

		var refs int64
		if err := tx.Model(&models.OrderItem{}).Where("product_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return utils.NewConflictError(i18n.KeyProductReferenced)
		}

		err := tx.Delete(&product).Error
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return utils.NewConflictError(i18n.KeyProductReferenced)
		}
		return err
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// Info summarises the whole catalog, sold-out products included.
func (s *ProductService) Info(ctx context.Context) (*serializers.ProductInfo, error) {
	var products []models.Product
	var maxPrice decimal.NullDecimal

	err := s.store.read(ctx, "product info", func(db *gorm.DB) error {
		if err := db.Order("id").Find(&products).Error; err != nil {
			return err
		}
		return db.Model(&models.Product{}).Select("MAX(price)").Row().Scan(&maxPrice)
	})
	if err != nil {
		return nil, err
	}

	info := serializers.NewProductInfo(products, maxPrice)
	return &info, nil
}

// Order responses embed product names and prices, so both lists go stale.
func (s *ProductService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, cache.ProductListPrefix, cache.OrderListPrefix)
}

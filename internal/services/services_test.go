package services

import (
	"context"
	"errors"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/cache"
	"github.com/javajoker/catalog-api/internal/config"
	"github.com/javajoker/catalog-api/internal/models"
	"github.com/javajoker/catalog-api/internal/pagination"
	"github.com/javajoker/catalog-api/internal/serializers"
	"github.com/javajoker/catalog-api/internal/testutil"
	"github.com/javajoker/catalog-api/internal/utils"
)

type ServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	cache    *cache.Manager
	products *ProductService
	orders   *OrderService
	auth     *AuthService
	ctx      context.Context

	alice *models.User
	bob   *models.User
	staff *models.User
}

func (s *ServiceTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.cache = cache.NewManager(cache.NewMemoryStore(cache.MemoryConfig{Capacity: 100, NumShards: 4}), time.Second)
	s.products = NewProductService(s.db, s.cache, pagination.NewPageNumber(2, 10), time.Second)
	s.orders = NewOrderService(s.db, s.cache, pagination.NewLimitOffset(10, 100), time.Second)

	cfg := &config.Config{
		JWT:      config.JWTConfig{SecretKey: "test", AccessTokenTTL: 1, RefreshTokenTTL: 2},
		Database: config.DatabaseConfig{QueryTimeout: time.Second},
	}
	s.auth = NewAuthService(s.db, cfg)
	s.ctx = context.Background()

	s.alice = testutil.CreateUser(s.T(), s.db, "alice", false)
	s.bob = testutil.CreateUser(s.T(), s.db, "bob", false)
	s.staff = testutil.CreateUser(s.T(), s.db, "admin", true)
}

func caller(u *models.User) *utils.Caller {
	return &utils.Caller{ID: u.ID, Username: u.Username, IsStaff: u.IsStaff}
}

func (s *ServiceTestSuite) appError(err error) *utils.AppError {
	var appErr *utils.AppError
	s.Require().True(errors.As(err, &appErr), "expected *utils.AppError, got %v", err)
	return appErr
}

func ptr[T any](v T) *T { return &v }

func mustURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

func (s *ServiceTestSuite) TestWidgetScenario() {
	created, err := s.products.Create(s.ctx, &serializers.ProductWrite{
		Name:  ptr("Widget"),
		Price: ptr(decimal.RequireFromString("9.99")),
		Stock: ptr(5),
	})
	s.Require().NoError(err)
	s.Equal("9.99", created.Price)

	page, err := s.products.List(s.ctx, mustURL("http://testserver/products/?name=Widget"))
	s.Require().NoError(err)
	s.Require().Len(page.Results, 1)
	s.Equal("Widget", page.Results[0].Name)
	s.Equal(int64(1), page.Meta.Count)
}

func (s *ServiceTestSuite) TestPaginationNextLink() {
	for _, name := range []string{"A", "B", "C"} {
		testutil.CreateProduct(s.T(), s.db, name, "1.00", 1)
	}

	page, err := s.products.List(s.ctx, mustURL("http://testserver/products/"))
	s.Require().NoError(err)
	s.Len(page.Results, 2)
	s.Equal(int64(3), page.Meta.Count)
	s.Require().NotNil(page.Meta.Next)
	s.Equal("http://testserver/products/?page_num=2", *page.Meta.Next)
	s.Nil(page.Meta.Previous)

	page, err = s.products.List(s.ctx, mustURL(*page.Meta.Next))
	s.Require().NoError(err)
	s.Len(page.Results, 1)
	s.Equal("C", page.Results[0].Name)
	s.Nil(page.Meta.Next)
}

func (s *ServiceTestSuite) TestInvalidPage() {
	_, err := s.products.List(s.ctx, mustURL("http://testserver/products/?page_num=abc"))
	s.Equal(400, s.appError(err).Status)
}

func (s *ServiceTestSuite) TestListExcludesSoldOut() {
	testutil.CreateProduct(s.T(), s.db, "Gone", "1.00", 0)
	page, err := s.products.List(s.ctx, mustURL("http://testserver/products/?name=Gone&ordering=-stock"))
	s.Require().NoError(err)
	s.Empty(page.Results)

	detail, err := s.products.Get(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal("Gone", detail.Name)
}

func (s *ServiceTestSuite) TestCreateRejectsNonPositivePrice() {
	_, err := s.products.Create(s.ctx, &serializers.ProductWrite{Name: ptr("Free"), Price: ptr(decimal.Zero)})
	appErr := s.appError(err)
	s.Equal("VALIDATION_ERROR", appErr.Code)

	var count int64
	s.db.Model(&models.Product{}).Count(&count)
	s.Zero(count)
}

func (s *ServiceTestSuite) TestPartialUpdate() {
	p := testutil.CreateProduct(s.T(), s.db, "Widget", "9.99", 5)

	out, err := s.products.Update(s.ctx, p.ID, &serializers.ProductWrite{Stock: ptr(7)}, true)
	s.Require().NoError(err)
	s.Equal(7, out.Stock)
	s.Equal("9.99", out.Price)

	_, err = s.products.Update(s.ctx, p.ID, &serializers.ProductWrite{Stock: ptr(7)}, false)
	s.Equal("VALIDATION_ERROR", s.appError(err).Code)

	_, err = s.products.Update(s.ctx, 999, &serializers.ProductWrite{Stock: ptr(1)}, true)
	s.Equal(404, s.appError(err).Status)
}

func (s *ServiceTestSuite) TestProductWriteInvalidatesListCache() {
	endpoint := cache.Endpoint{Prefix: cache.ProductListPrefix, TTL: time.Hour}
	r := httptest.NewRequest("GET", "/products/", nil)

	_, _, ticket := s.cache.Lookup(s.ctx, endpoint, r)
	s.cache.Remember(s.ctx, ticket, []byte("cached"))
	_, ok, _ := s.cache.Lookup(s.ctx, endpoint, r)
	s.Require().True(ok)

	_, err := s.products.Create(s.ctx, &serializers.ProductWrite{Name: ptr("New"), Price: ptr(decimal.NewFromInt(1))})
	s.Require().NoError(err)

	_, ok, _ = s.cache.Lookup(s.ctx, endpoint, r)
	s.False(ok)
}

func (s *ServiceTestSuite) TestDeleteReferencedProductConflicts() {
	p := testutil.CreateProduct(s.T(), s.db, "Widget", "1.00", 5)
	testutil.CreateOrder(s.T(), s.db, s.alice, models.OrderStatusPending, map[*models.Product]int{p: 1})

	err := s.products.Delete(s.ctx, p.ID)
	s.Equal(409, s.appError(err).Status)

	free := testutil.CreateProduct(s.T(), s.db, "Free", "1.00", 5)
	s.NoError(s.products.Delete(s.ctx, free.ID))
	s.Equal(404, s.appError(s.products.Delete(s.ctx, free.ID)).Status)
}

func (s *ServiceTestSuite) TestInfo() {
	info, err := s.products.Info(s.ctx)
	s.Require().NoError(err)
	s.Nil(info.MaxPrice)
	s.Zero(info.Count)

	testutil.CreateProduct(s.T(), s.db, "A", "3.50", 0)
	testutil.CreateProduct(s.T(), s.db, "B", "12.25", 1)

	info, err = s.products.Info(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, info.Count)
	s.Require().NotNil(info.MaxPrice)
	s.InDelta(12.25, *info.MaxPrice, 0.001)
}

func (s *ServiceTestSuite) createOrder(u *models.User, lines ...serializers.OrderItemWrite) *serializers.OrderRead {
	out, err := s.orders.Create(s.ctx, caller(u), &serializers.OrderWriteRequest{Items: lines})
	s.Require().NoError(err)
	return out
}

func (s *ServiceTestSuite) TestOrderCreateComputesTotal() {
	widget := testutil.CreateProduct(s.T(), s.db, "Widget", "2.50", 5)
	gadget := testutil.CreateProduct(s.T(), s.db, "Gadget", "1.25", 5)

	out := s.createOrder(s.alice,
		serializers.OrderItemWrite{Product: widget.ID, Quantity: 2},
		serializers.OrderItemWrite{Product: gadget.ID, Quantity: 4},
	)
	s.Equal(s.alice.ID, out.User)
	s.Equal(models.OrderStatusPending, out.Status)
	s.Require().Len(out.Items, 2)
	s.Equal("5.00", out.Items[0].ItemSubtotal)
	s.Equal("10.00", out.TotalPrice)

	// Price changes show up on the next read.
	_, err := s.products.Update(s.ctx, widget.ID, &serializers.ProductWrite{Price: ptr(decimal.NewFromInt(3))}, true)
	s.Require().NoError(err)
	got, err := s.orders.Get(s.ctx, caller(s.alice), out.OrderID)
	s.Require().NoError(err)
	s.Equal("11.00", got.TotalPrice)
}

func (s *ServiceTestSuite) TestOrderCreateUnknownProduct() {
	p := testutil.CreateProduct(s.T(), s.db, "Widget", "1.00", 5)
	_, err := s.orders.Create(s.ctx, caller(s.alice), &serializers.OrderWriteRequest{Items: []serializers.OrderItemWrite{
		{Product: p.ID, Quantity: 1},
		{Product: 404, Quantity: 1},
	}})
	appErr := s.appError(err)
	s.Equal("VALIDATION_ERROR", appErr.Code)
	fields := appErr.Details.([]utils.ValidationError)
	s.Equal("items[1].product", fields[0].Field)

	var count int64
	s.db.Model(&models.Order{}).Count(&count)
	s.Zero(count, "nothing is stored when validation fails")
}

func (s *ServiceTestSuite) TestOrderOwnership() {
	p := testutil.CreateProduct(s.T(), s.db, "Widget", "1.00", 5)
	mine := s.createOrder(s.alice, serializers.OrderItemWrite{Product: p.ID, Quantity: 1})
	s.createOrder(s.bob, serializers.OrderItemWrite{Product: p.ID, Quantity: 1})

	page, err := s.orders.List(s.ctx, caller(s.alice), mustURL("http://testserver/orders/"))
	s.Require().NoError(err)
	s.Require().Len(page.Results, 1)
	s.Equal(mine.OrderID, page.Results[0].OrderID)

	page, err = s.orders.List(s.ctx, caller(s.staff), mustURL("http://testserver/orders/"))
	s.Require().NoError(err)
	s.Len(page.Results, 2)

	_, err = s.orders.Get(s.ctx, caller(s.bob), mine.OrderID)
	s.Equal(404, s.appError(err).Status)
	s.Equal(404, s.appError(s.orders.Delete(s.ctx, caller(s.bob), mine.OrderID)).Status)

	_, err = s.orders.Get(s.ctx, caller(s.staff), mine.OrderID)
	s.NoError(err)

	own, err := s.orders.UserOrders(s.ctx, caller(s.staff))
	s.Require().NoError(err)
	s.Empty(own)
}

func (s *ServiceTestSuite) TestOrderUpdateReplacesItems() {
	a := testutil.CreateProduct(s.T(), s.db, "A", "1.00", 5)
	b := testutil.CreateProduct(s.T(), s.db, "B", "2.00", 5)
	c := testutil.CreateProduct(s.T(), s.db, "C", "3.00", 5)

	order := s.createOrder(s.alice,
		serializers.OrderItemWrite{Product: a.ID, Quantity: 1},
		serializers.OrderItemWrite{Product: b.ID, Quantity: 1},
	)

	out, err := s.orders.Update(s.ctx, caller(s.alice), order.OrderID, &serializers.OrderWriteRequest{
		Items: []serializers.OrderItemWrite{{Product: c.ID, Quantity: 2}},
	}, false)
	s.Require().NoError(err)
	s.Require().Len(out.Items, 1)
	s.Equal("C", out.Items[0].ProductName)
	s.Equal("6.00", out.TotalPrice)

	var count int64
	s.db.Model(&models.OrderItem{}).Where("order_id = ?", order.OrderID).Count(&count)
	s.Equal(int64(1), count)
}

func (s *ServiceTestSuite) TestOrderPatchStatusKeepsItems() {
	p := testutil.CreateProduct(s.T(), s.db, "A", "1.00", 5)
	order := s.createOrder(s.alice, serializers.OrderItemWrite{Product: p.ID, Quantity: 3})

	status := models.OrderStatusComplete
	out, err := s.orders.Update(s.ctx, caller(s.alice), order.OrderID, &serializers.OrderWriteRequest{Status: &status}, true)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusComplete, out.Status)
	s.Len(out.Items, 1)
}

func (s *ServiceTestSuite) TestOrderUpdateRollsBackOnUnknownProduct() {
	p := testutil.CreateProduct(s.T(), s.db, "A", "1.00", 5)
	order := s.createOrder(s.alice, serializers.OrderItemWrite{Product: p.ID, Quantity: 3})

	status := models.OrderStatusCancelled
	_, err := s.orders.Update(s.ctx, caller(s.alice), order.OrderID, &serializers.OrderWriteRequest{
		Status: &status,
		Items:  []serializers.OrderItemWrite{{Product: 999, Quantity: 1}},
	}, false)
	s.Equal("VALIDATION_ERROR", s.appError(err).Code)

	got, err := s.orders.Get(s.ctx, caller(s.alice), order.OrderID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, got.Status)
	s.Len(got.Items, 1)

	var count int64
	s.db.Model(&models.OrderItem{}).Count(&count)
	s.Equal(int64(1), count)
}

func (s *ServiceTestSuite) TestOrderUpdateKeepsItemsWhenRecreateFails() {
	a := testutil.CreateProduct(s.T(), s.db, "A", "1.00", 5)
	b := testutil.CreateProduct(s.T(), s.db, "B", "2.00", 5)
	order := s.createOrder(s.alice,
		serializers.OrderItemWrite{Product: a.ID, Quantity: 1},
		serializers.OrderItemWrite{Product: b.ID, Quantity: 2},
	)

	// Item inserts fail from here on, after the old items were deleted.
	s.Require().NoError(s.db.Callback().Create().Before("gorm:create").Register("test:fail_items", func(db *gorm.DB) {
		if db.Statement.Table == "order_items" {
			db.AddError(errors.New("disk full"))
		}
	}))

	status := models.OrderStatusComplete
	_, err := s.orders.Update(s.ctx, caller(s.alice), order.OrderID, &serializers.OrderWriteRequest{
		Status: &status,
		Items:  []serializers.OrderItemWrite{{Product: b.ID, Quantity: 5}},
	}, false)
	s.Require().Error(err)
	s.Contains(err.Error(), "disk full")

	got, err := s.orders.Get(s.ctx, caller(s.alice), order.OrderID)
	s.Require().NoError(err)
	s.Equal(models.OrderStatusPending, got.Status)
	s.Require().Len(got.Items, 2)
	s.Equal("A", got.Items[0].ProductName)
	s.Equal(1, got.Items[0].Quantity)
	s.Equal("5.00", got.TotalPrice)
}

func (s *ServiceTestSuite) TestOrderDeleteCascadesItems() {
	p := testutil.CreateProduct(s.T(), s.db, "A", "1.00", 5)
	order := s.createOrder(s.alice, serializers.OrderItemWrite{Product: p.ID, Quantity: 1})

	s.Require().NoError(s.orders.Delete(s.ctx, caller(s.alice), order.OrderID))

	var count int64
	s.db.Model(&models.OrderItem{}).Count(&count)
	s.Zero(count)

	_, err := s.orders.Get(s.ctx, caller(s.alice), uuid.New())
	s.Equal(404, s.appError(err).Status)
	s.NoError(s.products.Delete(s.ctx, p.ID), "product is free once the order is gone")
}

func (s *ServiceTestSuite) TestRegisterLoginRefresh() {
	reg, err := s.auth.Register(s.ctx, &RegisterRequest{Username: "carol", Email: "carol@example.com", Password: "Str0ngPass"})
	s.Require().NoError(err)
	s.False(reg.User.IsStaff)
	s.NotEmpty(reg.AccessToken)

	_, err = s.auth.Register(s.ctx, &RegisterRequest{Username: "carol", Email: "other@example.com", Password: "Str0ngPass"})
	s.Equal(409, s.appError(err).Status)

	_, err = s.auth.Login(s.ctx, &LoginRequest{Username: "carol", Password: "wrong"})
	s.Equal(401, s.appError(err).Status)

	login, err := s.auth.Login(s.ctx, &LoginRequest{Username: "carol", Password: "Str0ngPass"})
	s.Require().NoError(err)

	claims, err := utils.ValidateJWT(login.AccessToken)
	s.Require().NoError(err)
	s.Equal(reg.User.ID, claims.UserID)

	refreshed, err := s.auth.Refresh(s.ctx, &RefreshRequest{Refresh: login.RefreshToken})
	s.Require().NoError(err)
	s.NotEmpty(refreshed.AccessToken)

	_, err = s.auth.Refresh(s.ctx, &RefreshRequest{Refresh: login.AccessToken})
	s.Equal(401, s.appError(err).Status, "access tokens are not refresh tokens")
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

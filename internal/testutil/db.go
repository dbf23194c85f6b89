// Package testutil provides throwaway stores for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/database"
	"github.com/javajoker/catalog-api/internal/models"
)

var dbCounter int64

// NewDB opens a private in-memory SQLite database with the schema migrated.
// Foreign keys are enforced and LIKE is case-sensitive, matching Postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("catalog_test_%d", atomic.AddInt64(&dbCounter, 1))
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)

	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec("PRAGMA case_sensitive_like = ON").Error)
	require.NoError(t, database.RunMigrations(db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", IsStaff: staff}
	require.NoError(t, u.SetPassword("Passw0rd!"))
	require.NoError(t, db.Create(u).Error)
	return u
}

func CreateProduct(t testing.TB, db *gorm.DB, name, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateOrder stores an order for user with one item per (product, quantity)
// pair.
func CreateOrder(t testing.TB, db *gorm.DB, user *models.User, status models.OrderStatus, lines map[*models.Product]int) *models.Order {
	t.Helper()
	o := &models.Order{UserID: user.ID, Status: status}
	for p, qty := range lines {
		o.Items = append(o.Items, models.OrderItem{ProductID: p.ID, Quantity: qty})
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

// internal/services/common.go
package services

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/database"
	"github.com/javajoker/catalog-api/internal/pagination"
	"github.com/javajoker/catalog-api/internal/query"
	"github.com/javajoker/catalog-api/internal/utils"
)

// Page is one page of a list response.
type Page[T any] struct {
	Results []T
	Meta    *utils.PaginationMeta
}

// store bounds every database call by a timeout and classifies failures.
type store struct {
	db      *gorm.DB
	timeout time.Duration
}

func (s store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// read runs an idempotent query, retrying once when the first attempt fails
// transiently.
func (s store) read(ctx context.Context, op string, fn func(db *gorm.DB) error) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.once(ctx, fn)
		if err == nil || !utils.IsTransient(err) || ctx.Err() != nil {
			break
		}
		logrus.WithError(err).WithField("op", op).Warn("Transient store error, retrying")
	}
	return utils.StoreError(op, err)
}

func (s store) once(ctx context.Context, fn func(db *gorm.DB) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return fn(s.db.WithContext(ctx))
}

// write runs fn in one transaction. It is never retried.
func (s store) write(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return utils.StoreError(op, database.WithTransaction(ctx, s.db, fn))
}

// listPage counts the composed query, asks the paginator for a window and
// loads that window in the requested order.
func listPage[M any](db *gorm.DB, r *query.Resource, p pagination.Paginator, u *url.URL, prepare func(*gorm.DB) *gorm.DB) ([]M, pagination.Window, error) {
	params := u.Query()

	var model M
	base, err := r.Compose(db.Model(&model), params)
	if err != nil {
		return nil, pagination.Window{}, err
	}
	base = base.Session(&gorm.Session{})

	var count int64
	if err := base.Count(&count).Error; err != nil {
		return nil, pagination.Window{}, err
	}

	w, err := p.Window(u, count)
	if err != nil {
		return nil, pagination.Window{}, err
	}

	q := r.ApplyOrder(base, params)
	if prepare != nil {
		q = prepare(q)
	}

	var rows []M
	if err := pagination.Apply(q, w).Find(&rows).Error; err != nil {
		return nil, pagination.Window{}, err
	}
	return rows, w, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

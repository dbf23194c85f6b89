// internal/services/user_service.go
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/javajoker/catalog-api/internal/models"
)

type UserService struct {
	store store
}

func NewUserService(db *gorm.DB, queryTimeout time.Duration) *UserService {
	return &UserService{store: store{db: db, timeout: queryTimeout}}
}

// List returns every user. The list is small and deliberately unpaginated.
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.store.read(ctx, "list users", func(db *gorm.DB) error {
		return db.Order("id").Find(&users).Error
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

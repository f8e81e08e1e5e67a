// Package users declares the repository contract for user records and its
// SQL implementation.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/server/models"
)

// Repository stores user records.
//
// Implementations return common.ErrorNotFound for missing rows and
// common.ErrorAlreadyExists when the unique email constraint is violated.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateEmail(ctx context.Context, id, email string, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

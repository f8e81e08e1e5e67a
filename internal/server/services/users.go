package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/common"
	"github.com/dmitrijs2005/gatorauth/internal/server/apperr"
	"github.com/dmitrijs2005/gatorauth/internal/server/models"
	"github.com/dmitrijs2005/gatorauth/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// PasswordHasher is the one-way password primitive. *cryptox.BcryptHasher
// satisfies it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) (bool, error)
}

// UserService implements account CRUD.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	now         func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SignUp registers a new, unverified user.
func (s *UserService) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperr.EmailExists()
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// the unique index catches a concurrent sign-up that passed the check above
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, apperr.EmailExists()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetUserByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "get user")
	}
	return u, nil
}

func (s *UserService) UpdateEmail(ctx context.Context, id, email string) error {
	if err := s.repomanager.Users(s.db).UpdateEmail(ctx, id, email, s.now()); err != nil {
		return mapRepoErr(err, "update email")
	}
	return nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).UpdatePasswordHash(ctx, id, hash, s.now()); err != nil {
		return mapRepoErr(err, "update password")
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return mapRepoErr(err, "delete user")
	}
	return nil
}

func mapRepoErr(err error, op string) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return apperr.UserNotFound()
	case errors.Is(err, common.ErrorAlreadyExists):
		return apperr.EmailExists()
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

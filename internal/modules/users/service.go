package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"alxtravel.com/app/internal/shared/dberr"
)

type Service struct {
	repo *Repo
	cost int
}

func NewService(repo *Repo) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// SetHashCost lowers the bcrypt cost in tests.
func (s *Service) SetHashCost(cost int) { s.cost = cost }

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	u := User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(in.Email),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		if dberr.IsDuplicateKey(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return u, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if dberr.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.GetByID(ctx, id)
}

package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID
	UID       string
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

type ListUsersOption struct {
	Skip  int
	Limit int
	Name  string
}

func (u Usecase) ListUsers(ctx context.Context, opt ListUsersOption) ([]User, int, error) {
	return u.repo.ListUsers(ctx, opt)
}

func (u Usecase) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return u.repo.GetUserByID(ctx, id)
}

// GetUserByUID maps the gateway-asserted identity header onto a user row.
// Used by the auth middleware.
func (u Usecase) GetUserByUID(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUID(ctx, uid)
}

func (u Usecase) CreateUser(ctx context.Context, user User) (User, error) {
	if user.Role == "" {
		user.Role = "REVIEWER"
	}
	return u.repo.CreateUser(ctx, user)
}

package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID
	AssetID   uuid.UUID
	UserID    uuid.UUID
	Body      string
	IssueTag  string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time

	User *User
}

func (u Usecase) ListComments(ctx context.Context, assetID uuid.UUID) ([]Comment, error) {
	return u.repo.ListComments(ctx, assetID)
}

func (u Usecase) CreateComment(ctx context.Context, c Comment) (Comment, error) {
	userID, err := actorID(ctx)
	if err != nil {
		return Comment{}, err
	}
	if c.Body == "" {
		return Comment{}, ErrValidation{
			Code:    "comment_body_required",
			Message: "comment body must not be empty",
		}
	}
	if _, err := u.repo.GetGeneratedAssetByID(ctx, c.AssetID); err != nil {
		return Comment{}, err
	}
	c.UserID = userID
	return u.repo.CreateComment(ctx, c)
}

package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type Comment struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	AssetID   uuid.UUID `gorm:"column:asset_id;type:uuid;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid"`
	Body      string    `gorm:"column:body;type:text"`
	IssueTag  string    `gorm:"column:issue_tag;type:varchar(50)"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	DeletedAt *gorm.DeletedAt

	User *User `gorm:"foreignKey:UserID;references:ID"`
}

func (Comment) TableName() string {
	return "comments"
}

func (s *service) ListComments(ctx context.Context, assetID uuid.UUID) ([]usecase.Comment, error) {
	var comments []Comment
	err := s.db.
		WithContext(ctx).
		Preload("User").
		Where("asset_id = ?", assetID).
		Order("created_at ASC").
		Find(&comments).
		Error
	if err != nil {
		return nil, err
	}

	ucomments := make([]usecase.Comment, 0, len(comments))
	for _, c := range comments {
		ucomments = append(ucomments, c.ConvertToUsecase())
	}
	return ucomments, nil
}

func (s *service) CreateComment(ctx context.Context, uc usecase.Comment) (usecase.Comment, error) {
	c := Comment{
		AssetID:  uc.AssetID,
		UserID:   uc.UserID,
		Body:     uc.Body,
		IssueTag: uc.IssueTag,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&c).Error; err != nil {
		return usecase.Comment{}, err
	}
	return c.ConvertToUsecase(), nil
}

func (c Comment) ConvertToUsecase() usecase.Comment {
	var d *time.Time
	if c.DeletedAt != nil {
		d = &c.DeletedAt.Time
	}
	uc := usecase.Comment{
		ID:        c.ID,
		AssetID:   c.AssetID,
		UserID:    c.UserID,
		Body:      c.Body,
		IssueTag:  c.IssueTag,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		DeletedAt: d,
	}
	if c.User != nil {
		u := c.User.ConvertToUsecase()
		uc.User = &u
	}
	return uc
}

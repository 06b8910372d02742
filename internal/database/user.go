package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type User struct {
	ID        uuid.UUID `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	UID       string    `gorm:"column:uid;type:varchar(255);uniqueIndex"`
	Name      string    `gorm:"column:name;type:varchar(255)"`
	Email     string    `gorm:"column:email;type:varchar(255)"`
	Role      string    `gorm:"column:role;type:varchar(20);default:REVIEWER"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
	DeletedAt *gorm.DeletedAt
}

func (User) TableName() string {
	return "users"
}

func (s *service) ListUsers(ctx context.Context, opt usecase.ListUsersOption) ([]usecase.User, int, error) {
	var (
		users  []User
		uusers []usecase.User
		count  int64
	)

	db := s.db.Model([]User{}).WithContext(ctx)
	if opt.Name != "" {
		db = db.Where("name ILIKE ?", "%"+opt.Name+"%")
	}

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		db = db.Offset(opt.Skip)
	}

	if err := db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, err
	}
	for _, u := range users {
		uusers = append(uusers, u.ConvertToUsecase())
	}
	return uusers, int(count), nil
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (usecase.User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.User{}, usecase.ErrNotFound{
				ID:      id,
				Code:    "user_not_found",
				Message: "user " + id.String() + " not found",
			}
		}
		return usecase.User{}, err
	}
	return u.ConvertToUsecase(), nil
}

func (s *service) GetUserByUID(ctx context.Context, uid string) (usecase.User, error) {
	var u User
	err := s.db.WithContext(ctx).First(&u, "uid = ?", uid).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.User{}, usecase.ErrNotFound{
				Code:    "user_not_found",
				Message: "user with uid " + uid + " not found",
			}
		}
		return usecase.User{}, err
	}
	return u.ConvertToUsecase(), nil
}

func (s *service) CreateUser(ctx context.Context, uu usecase.User) (usecase.User, error) {
	u := User{
		UID:   uu.UID,
		Name:  uu.Name,
		Email: uu.Email,
		Role:  uu.Role,
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&u).Error; err != nil {
		return usecase.User{}, err
	}
	return u.ConvertToUsecase(), nil
}

func (u User) ConvertToUsecase() usecase.User {
	var d *time.Time
	if u.DeletedAt != nil {
		d = &u.DeletedAt.Time
	}
	return usecase.User{
		ID:        u.ID,
		UID:       u.UID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
		DeletedAt: d,
	}
}

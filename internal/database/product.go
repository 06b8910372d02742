package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

type Product struct {
	ID        uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	ASIN      *string        `gorm:"column:asin;type:varchar(20)"`
	Title     string         `gorm:"column:title;type:varchar(512)"`
	Category  string         `gorm:"column:category;type:varchar(255)"`
	Status    string         `gorm:"column:status;type:varchar(20);default:NOT_STARTED"`
	Metadata  datatypes.JSON `gorm:"column:metadata"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt *gorm.DeletedAt

	SourceImages    []SourceImage    `gorm:"foreignKey:ProductID;references:ID"`
	GeneratedAssets []GeneratedAsset `gorm:"foreignKey:ProductID;references:ID"`
}

func (Product) TableName() string {
	return "products"
}

func (s *service) ListProducts(ctx context.Context, opt usecase.ListProductsOption) ([]usecase.Product, int, error) {
	var (
		products  []Product
		uproducts []usecase.Product
		count     int64
	)

	db := s.db.Model([]Product{}).WithContext(ctx)

	if opt.ASIN != "" {
		db = db.Where("asin = ?", opt.ASIN)
	}
	if opt.Category != "" {
		db = db.Where("category = ?", opt.Category)
	}
	if len(opt.Statuses) > 0 {
		db = db.Where("status IN ?", opt.Statuses)
	}
	if opt.Title != "" {
		db = db.Where("title ILIKE ?", "%"+opt.Title+"%")
	}

	var (
		orderBy = "created_at"
		desc    = true
	)
	switch opt.SortBy {
	case "title", "created_at", "updated_at", "status":
		orderBy = opt.SortBy
	}
	if opt.SortIn == "asc" || opt.SortIn == "ASC" {
		desc = false
	}
	db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: orderBy}, Desc: desc})

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		db = db.Offset(opt.Skip)
	}

	if err := db.Find(&products).Error; err != nil {
		return nil, 0, err
	}

	for _, p := range products {
		uproducts = append(uproducts, p.ConvertToUsecase())
	}
	return uproducts, int(count), nil
}

func (s *service) GetProductByID(ctx context.Context, id uuid.UUID) (usecase.Product, error) {
	var p Product
	err := s.db.
		WithContext(ctx).
		Preload("SourceImages", func(db *gorm.DB) *gorm.DB {
			return db.Order("image_order ASC")
		}).
		Preload("GeneratedAssets").
		First(&p, "id = ?", id).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.Product{}, usecase.ErrNotFound{
				ID:      id,
				Code:    "product_not_found",
				Message: "product " + id.String() + " not found",
			}
		}
		return usecase.Product{}, err
	}

	up := p.ConvertToUsecase()
	for _, img := range p.SourceImages {
		up.SourceImages = append(up.SourceImages, img.ConvertToUsecase())
	}
	for _, a := range p.GeneratedAssets {
		up.GeneratedAssets = append(up.GeneratedAssets, a.ConvertToUsecase())
	}
	return up, nil
}

func (s *service) GetProductByASIN(ctx context.Context, asin string) (usecase.Product, error) {
	var p Product
	err := s.db.WithContext(ctx).First(&p, "asin = ?", asin).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return usecase.Product{}, usecase.ErrNotFound{
				Code:    "product_not_found",
				Message: "product with asin " + asin + " not found",
			}
		}
		return usecase.Product{}, err
	}
	return p.ConvertToUsecase(), nil
}

func (s *service) CreateProduct(ctx context.Context, up usecase.Product) (usecase.Product, error) {
	p := Product{
		ASIN:     nilIfEmpty(up.ASIN),
		Title:    up.Title,
		Category: up.Category,
		Status:   string(up.Status),
		Metadata: datatypes.JSON(up.Metadata),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&p).Error; err != nil {
		return usecase.Product{}, err
	}
	return p.ConvertToUsecase(), nil
}

func (s *service) UpdateProduct(ctx context.Context, up usecase.Product) (usecase.Product, error) {
	p := Product{
		ID:       up.ID,
		ASIN:     nilIfEmpty(up.ASIN),
		Title:    up.Title,
		Category: up.Category,
		Metadata: datatypes.JSON(up.Metadata),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Updates(&p).Error; err != nil {
		return usecase.Product{}, err
	}
	return p.ConvertToUsecase(), nil
}

// UpdateProductStatus is the rollup engine's single write path; nothing
// else touches the derived status column.
func (s *service) UpdateProductStatus(ctx context.Context, id uuid.UUID, status usecase.ProductStatus) error {
	return s.db.
		WithContext(ctx).
		Model(&Product{}).
		Where("id = ?", id).
		Update("status", string(status)).
		Error
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&Product{}, "id = ?", id).Error
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Convert core model to Usecase
func (p Product) ConvertToUsecase() usecase.Product {
	var d *time.Time
	if p.DeletedAt != nil {
		d = &p.DeletedAt.Time
	}
	var asin string
	if p.ASIN != nil {
		asin = *p.ASIN
	}
	return usecase.Product{
		ID:        p.ID,
		ASIN:      asin,
		Title:     p.Title,
		Category:  p.Category,
		Status:    usecase.ProductStatus(p.Status),
		Metadata:  p.Metadata,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		DeletedAt: d,
	}
}

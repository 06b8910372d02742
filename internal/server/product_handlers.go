package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type Product struct {
	ID        string          `json:"id"`
	ASIN      string          `json:"asin,omitempty"`
	Title     string          `json:"title"`
	Category  string          `json:"category,omitempty"`
	Status    string          `json:"status"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt string          `json:"created_at,omitempty"`
	UpdatedAt string          `json:"updated_at,omitempty"`

	SourceImages    []SourceImage    `json:"source_images,omitempty"`
	GeneratedAssets []GeneratedAsset `json:"generated_assets,omitempty"`
}

func convertProduct(p usecase.Product) Product {
	product := Product{
		ID:        p.ID.String(),
		ASIN:      p.ASIN,
		Title:     p.Title,
		Category:  p.Category,
		Status:    string(p.Status),
		Metadata:  json.RawMessage(p.Metadata),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
	for _, img := range p.SourceImages {
		product.SourceImages = append(product.SourceImages, convertSourceImage(img))
	}
	for _, a := range p.GeneratedAssets {
		product.GeneratedAssets = append(product.GeneratedAssets, convertGeneratedAsset(a))
	}
	return product
}

type ListProductsRequest struct {
	Skip     int    `query:"skip"`
	Limit    int    `query:"limit" validate:"required,gte=1,lte=100"`
	ASIN     string `query:"asin" validate:"omitempty"`
	Category string `query:"category" validate:"omitempty"`
	Status   string `query:"status" validate:"omitempty,oneof=NOT_STARTED IN_PROGRESS COMPLETED"`
	Title    string `query:"title" validate:"omitempty"`
	SortBy   string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at title status"`
	SortIn   string `query:"sort_in" validate:"omitempty,oneof=asc desc"`
}

func (s *Server) ListProducts(ctx echo.Context) error {
	var req = ListProductsRequest{Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.ListProductsOption{
		Skip:     req.Skip,
		Limit:    req.Limit,
		ASIN:     req.ASIN,
		Category: req.Category,
		Title:    req.Title,
		SortBy:   req.SortBy,
		SortIn:   req.SortIn,
	}
	if req.Status != "" {
		opt.Statuses = []usecase.ProductStatus{usecase.ProductStatus(req.Status)}
	}

	list, total, err := s.server.ListProducts(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}

	products := make([]Product, 0, len(list))
	for _, p := range list {
		products = append(products, convertProduct(p))
	}

	return ctx.JSON(200, Res{
		Data: products,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type GetProductByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetProductByID(ctx echo.Context) error {
	var req GetProductByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	p, err := s.server.GetProductByID(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertProduct(p)})
}

type CreateProductRequest struct {
	ASIN     string          `json:"asin" validate:"omitempty,len=10"`
	Title    string          `json:"title" validate:"required"`
	Category string          `json:"category" validate:"omitempty"`
	Metadata json.RawMessage `json:"metadata" validate:"omitempty"`
}

func (s *Server) CreateProduct(ctx echo.Context) error {
	var req CreateProductRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	p, err := s.server.CreateProduct(ctx.Request().Context(), usecase.Product{
		ASIN:     req.ASIN,
		Title:    req.Title,
		Category: req.Category,
		Metadata: req.Metadata,
	})
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(201, Res{Data: convertProduct(p)})
}

type UpdateProductRequest struct {
	ID       string          `param:"id" validate:"required,uuid"`
	ASIN     string          `json:"asin" validate:"omitempty,len=10"`
	Title    string          `json:"title" validate:"omitempty"`
	Category string          `json:"category" validate:"omitempty"`
	Metadata json.RawMessage `json:"metadata" validate:"omitempty"`
}

func (s *Server) UpdateProduct(ctx echo.Context) error {
	var req UpdateProductRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	p, err := s.server.UpdateProduct(ctx.Request().Context(), usecase.Product{
		ID:       id,
		ASIN:     req.ASIN,
		Title:    req.Title,
		Category: req.Category,
		Metadata: req.Metadata,
	})
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertProduct(p)})
}

type DeleteProductRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) DeleteProduct(ctx echo.Context) error {
	var req DeleteProductRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	if err := s.server.DeleteProduct(ctx.Request().Context(), id); err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Message: "product deleted"})
}

type GetListingQRCodeRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetListingQRCode(ctx echo.Context) error {
	var req GetListingQRCodeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	png, err := s.server.GetListingQRCode(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.Blob(200, "image/png", png)
}

type ImportInventoryRequest struct {
	OnlyInStock bool `json:"only_in_stock" query:"only_in_stock"`
}

func (s *Server) ImportInventory(ctx echo.Context) error {
	var req ImportInventoryRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	res, err := s.server.ImportInventory(ctx.Request().Context(), req.OnlyInStock)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: map[string]int{
		"imported": res.Imported,
		"updated":  res.Updated,
		"skipped":  res.Skipped,
	}})
}

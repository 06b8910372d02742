package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type SourceImage struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Variant    string `json:"variant"`
	ImageOrder int    `json:"image_order"`
	OriginURL  string `json:"origin_url,omitempty"`
	URL        string `json:"url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

func convertSourceImage(img usecase.SourceImage) SourceImage {
	return SourceImage{
		ID:         img.ID.String(),
		ProductID:  img.ProductID.String(),
		Variant:    img.Variant,
		ImageOrder: img.ImageOrder,
		OriginURL:  img.OriginURL,
		URL:        img.URL,
		CreatedAt:  img.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  img.UpdatedAt.Format(time.RFC3339),
	}
}

type ListSourceImagesRequest struct {
	ProductID string `param:"id" validate:"required,uuid"`
}

func (s *Server) ListSourceImages(ctx echo.Context) error {
	var req ListSourceImagesRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ProductID)
	imgs, err := s.server.ListSourceImages(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}

	list := make([]SourceImage, 0, len(imgs))
	for _, img := range imgs {
		list = append(list, convertSourceImage(img))
	}
	return ctx.JSON(200, Res{Data: list})
}

type RefreshSourceImagesRequest struct {
	ProductID string `param:"id" validate:"required,uuid"`
}

func (s *Server) RefreshSourceImages(ctx echo.Context) error {
	var req RefreshSourceImagesRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ProductID)
	imgs, err := s.server.RefreshSourceImages(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}

	list := make([]SourceImage, 0, len(imgs))
	for _, img := range imgs {
		list = append(list, convertSourceImage(img))
	}
	return ctx.JSON(200, Res{Data: list})
}

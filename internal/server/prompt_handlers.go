package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type PromptOverride struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	AssetTypeID  string `json:"asset_type_id"`
	CustomPrompt string `json:"custom_prompt"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

func convertPromptOverride(po usecase.PromptOverride) PromptOverride {
	return PromptOverride{
		ID:           po.ID.String(),
		ProductID:    po.ProductID.String(),
		AssetTypeID:  po.AssetTypeID.String(),
		CustomPrompt: po.CustomPrompt,
		CreatedAt:    po.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    po.UpdatedAt.Format(time.RFC3339),
	}
}

type GetPromptOverrideRequest struct {
	ProductID   string `query:"product_id" validate:"required,uuid"`
	AssetTypeID string `query:"asset_type_id" validate:"required,uuid"`
}

func (s *Server) GetPromptOverride(ctx echo.Context) error {
	var req GetPromptOverrideRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	productID, _ := uuid.Parse(req.ProductID)
	assetTypeID, _ := uuid.Parse(req.AssetTypeID)
	po, err := s.server.GetPromptOverride(ctx.Request().Context(), productID, assetTypeID)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertPromptOverride(po)})
}

type UpsertPromptOverrideRequest struct {
	ProductID    string `json:"product_id" validate:"required,uuid"`
	AssetTypeID  string `json:"asset_type_id" validate:"required,uuid"`
	CustomPrompt string `json:"custom_prompt" validate:"required"`
}

func (s *Server) UpsertPromptOverride(ctx echo.Context) error {
	var req UpsertPromptOverrideRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	productID, _ := uuid.Parse(req.ProductID)
	assetTypeID, _ := uuid.Parse(req.AssetTypeID)
	po, err := s.server.UpsertPromptOverride(ctx.Request().Context(), usecase.PromptOverride{
		ProductID:    productID,
		AssetTypeID:  assetTypeID,
		CustomPrompt: req.CustomPrompt,
	})
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertPromptOverride(po)})
}

type DeletePromptOverrideRequest struct {
	ProductID   string `query:"product_id" validate:"required,uuid"`
	AssetTypeID string `query:"asset_type_id" validate:"required,uuid"`
}

func (s *Server) DeletePromptOverride(ctx echo.Context) error {
	var req DeletePromptOverrideRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	productID, _ := uuid.Parse(req.ProductID)
	assetTypeID, _ := uuid.Parse(req.AssetTypeID)
	if err := s.server.DeletePromptOverride(ctx.Request().Context(), productID, assetTypeID); err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Message: "prompt override deleted"})
}

type PreviewPromptRequest struct {
	ProductID    string `query:"product_id" validate:"required,uuid"`
	AssetTypeID  string `query:"asset_type_id" validate:"required,uuid"`
	Instructions string `query:"instructions" validate:"omitempty"`
}

// PreviewPrompt resolves the exact prompt a generation would use
// without generating anything.
func (s *Server) PreviewPrompt(ctx echo.Context) error {
	var req PreviewPromptRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	productID, _ := uuid.Parse(req.ProductID)
	assetTypeID, _ := uuid.Parse(req.AssetTypeID)
	prompt, err := s.server.ResolvePrompt(ctx.Request().Context(), productID, assetTypeID, req.Instructions)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: map[string]string{"prompt": prompt}})
}

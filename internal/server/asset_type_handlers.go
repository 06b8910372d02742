package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type AssetType struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Kind          string `json:"kind"`
	Order         int    `json:"order"`
	DefaultPrompt string `json:"default_prompt,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`

	PromptVersions []PromptVersion `json:"prompt_versions,omitempty"`
}

type PromptVersion struct {
	ID          string `json:"id"`
	AssetTypeID string `json:"asset_type_id"`
	Version     int    `json:"version"`
	PromptText  string `json:"prompt_text"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

func convertAssetType(at usecase.AssetType) AssetType {
	t := AssetType{
		ID:            at.ID.String(),
		Name:          at.Name,
		Kind:          string(at.Kind),
		Order:         at.Order,
		DefaultPrompt: at.DefaultPrompt,
		CreatedAt:     at.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     at.UpdatedAt.Format(time.RFC3339),
	}
	for _, pv := range at.PromptVersions {
		t.PromptVersions = append(t.PromptVersions, convertPromptVersion(pv))
	}
	return t
}

func convertPromptVersion(pv usecase.PromptVersion) PromptVersion {
	return PromptVersion{
		ID:          pv.ID.String(),
		AssetTypeID: pv.AssetTypeID.String(),
		Version:     pv.Version,
		PromptText:  pv.PromptText,
		IsActive:    pv.IsActive,
		CreatedAt:   pv.CreatedAt.Format(time.RFC3339),
	}
}

type ListAssetTypesRequest struct {
	Skip  int    `query:"skip"`
	Limit int    `query:"limit" validate:"required,gte=1,lte=100"`
	Kind  string `query:"kind" validate:"omitempty,oneof=IMAGE VIDEO"`
}

func (s *Server) ListAssetTypes(ctx echo.Context) error {
	var req = ListAssetTypesRequest{Limit: 50}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	list, total, err := s.server.ListAssetTypes(ctx.Request().Context(), usecase.ListAssetTypesOption{
		Skip:  req.Skip,
		Limit: req.Limit,
		Kind:  usecase.AssetKind(req.Kind),
	})
	if err != nil {
		return errJSON(ctx, err)
	}

	types := make([]AssetType, 0, len(list))
	for _, at := range list {
		types = append(types, convertAssetType(at))
	}
	return ctx.JSON(200, Res{
		Data: types,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type GetAssetTypeByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetAssetTypeByID(ctx echo.Context) error {
	var req GetAssetTypeByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	at, err := s.server.GetAssetTypeByID(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertAssetType(at)})
}

type CreateAssetTypeRequest struct {
	Name          string `json:"name" validate:"required"`
	Kind          string `json:"kind" validate:"required,oneof=IMAGE VIDEO"`
	Order         int    `json:"order"`
	DefaultPrompt string `json:"default_prompt" validate:"omitempty"`
}

func (s *Server) CreateAssetType(ctx echo.Context) error {
	var req CreateAssetTypeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	at, err := s.server.CreateAssetType(ctx.Request().Context(), usecase.AssetType{
		Name:          req.Name,
		Kind:          usecase.AssetKind(req.Kind),
		Order:         req.Order,
		DefaultPrompt: req.DefaultPrompt,
	})
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(201, Res{Data: convertAssetType(at)})
}

type UpdateAssetTypeRequest struct {
	ID            string `param:"id" validate:"required,uuid"`
	Name          string `json:"name" validate:"omitempty"`
	Kind          string `json:"kind" validate:"omitempty,oneof=IMAGE VIDEO"`
	Order         int    `json:"order"`
	DefaultPrompt string `json:"default_prompt" validate:"omitempty"`
}

func (s *Server) UpdateAssetType(ctx echo.Context) error {
	var req UpdateAssetTypeRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	at, err := s.server.UpdateAssetType(ctx.Request().Context(), usecase.AssetType{
		ID:            id,
		Name:          req.Name,
		Kind:          usecase.AssetKind(req.Kind),
		Order:         req.Order,
		DefaultPrompt: req.DefaultPrompt,
	})
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertAssetType(at)})
}

type ListPromptVersionsRequest struct {
	AssetTypeID string `param:"id" validate:"required,uuid"`
}

func (s *Server) ListPromptVersions(ctx echo.Context) error {
	var req ListPromptVersionsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.AssetTypeID)
	pvs, err := s.server.ListPromptVersions(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}

	list := make([]PromptVersion, 0, len(pvs))
	for _, pv := range pvs {
		list = append(list, convertPromptVersion(pv))
	}
	return ctx.JSON(200, Res{Data: list})
}

type CreatePromptVersionRequest struct {
	AssetTypeID string `param:"id" validate:"required,uuid"`
	PromptText  string `json:"prompt_text" validate:"required"`
}

func (s *Server) CreatePromptVersion(ctx echo.Context) error {
	var req CreatePromptVersionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.AssetTypeID)
	pv, err := s.server.CreatePromptVersion(ctx.Request().Context(), usecase.PromptVersion{
		AssetTypeID: id,
		PromptText:  req.PromptText,
	})
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(201, Res{Data: convertPromptVersion(pv)})
}

type ActivatePromptVersionRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) ActivatePromptVersion(ctx echo.Context) error {
	var req ActivatePromptVersionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	pv, err := s.server.ActivatePromptVersion(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertPromptVersion(pv)})
}

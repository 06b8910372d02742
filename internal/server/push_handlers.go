package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type ImagePush struct {
	ID           string          `json:"id"`
	AssetID      string          `json:"asset_id"`
	ASIN         string          `json:"asin"`
	Slot         string          `json:"slot"`
	ImageURL     string          `json:"image_url"`
	Status       string          `json:"status"`
	SubmissionID string          `json:"submission_id,omitempty"`
	Response     json.RawMessage `json:"response,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	CompletedAt  string          `json:"completed_at,omitempty"`
	CreatedAt    string          `json:"created_at,omitempty"`
}

func convertImagePush(p usecase.AmazonImagePush) ImagePush {
	push := ImagePush{
		ID:           p.ID.String(),
		AssetID:      p.AssetID.String(),
		ASIN:         p.ASIN,
		Slot:         p.Slot,
		ImageURL:     p.ImageURL,
		Status:       string(p.Status),
		SubmissionID: p.SubmissionID,
		Response:     json.RawMessage(p.AmazonResponse),
		ErrorMessage: p.ErrorMessage,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
	if p.CompletedAt != nil {
		push.CompletedAt = p.CompletedAt.Format(time.RFC3339)
	}
	return push
}

type PushToAmazonRequest struct {
	ProductID string          `param:"id" validate:"required,uuid"`
	Items     []PushItemInput `json:"items" validate:"required,min=1,max=9,dive"`
}

type PushItemInput struct {
	AssetID string `json:"asset_id" validate:"required,uuid"`
	Slot    string `json:"slot" validate:"required"`
}

func (s *Server) PushToAmazon(ctx echo.Context) error {
	var req PushToAmazonRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	productID, _ := uuid.Parse(req.ProductID)
	items := make([]usecase.PushItem, 0, len(req.Items))
	for _, item := range req.Items {
		assetID, _ := uuid.Parse(item.AssetID)
		items = append(items, usecase.PushItem{AssetID: assetID, Slot: item.Slot})
	}

	result, err := s.server.PushToAmazon(ctx.Request().Context(), productID, items)
	if err != nil {
		return errJSON(ctx, err)
	}

	pushes := make([]ImagePush, 0, len(result.Pushes))
	for _, p := range result.Pushes {
		pushes = append(pushes, convertImagePush(p))
	}
	return ctx.JSON(200, Res{Data: map[string]any{
		"submission_id": result.SubmissionID,
		"status":        result.Status,
		"pushes":        pushes,
	}})
}

type ListImagePushesRequest struct {
	Skip    int    `query:"skip"`
	Limit   int    `query:"limit" validate:"required,gte=1,lte=100"`
	AssetID string `query:"asset_id" validate:"omitempty,uuid"`
	ASIN    string `query:"asin" validate:"omitempty"`
	Status  string `query:"status" validate:"omitempty,oneof=PENDING SUCCESS FAILED"`
}

func (s *Server) ListImagePushes(ctx echo.Context) error {
	var req = ListImagePushesRequest{Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.ListImagePushesOption{
		Skip:  req.Skip,
		Limit: req.Limit,
		ASIN:  req.ASIN,
	}
	if req.AssetID != "" {
		id, _ := uuid.Parse(req.AssetID)
		opt.AssetIDs = append(opt.AssetIDs, id)
	}
	if req.Status != "" {
		opt.Statuses = []usecase.PushStatus{usecase.PushStatus(req.Status)}
	}

	list, total, err := s.server.ListImagePushes(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}

	pushes := make([]ImagePush, 0, len(list))
	for _, p := range list {
		pushes = append(pushes, convertImagePush(p))
	}
	return ctx.JSON(200, Res{
		Data: pushes,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

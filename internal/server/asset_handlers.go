package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type GeneratedAsset struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	AssetTypeID string          `json:"asset_type_id"`
	Status      string          `json:"status"`
	Version     int             `json:"version"`
	URL         string          `json:"url,omitempty"`
	PromptUsed  string          `json:"prompt_used,omitempty"`
	Width       int             `json:"width,omitempty"`
	Height      int             `json:"height,omitempty"`
	FileSize    int64           `json:"file_size,omitempty"`
	Duration    float64         `json:"duration,omitempty"`
	Colors      json.RawMessage `json:"colors,omitempty"`
	Error       string          `json:"error,omitempty"`

	ParentAssetID string `json:"parent_asset_id,omitempty"`
	SourceImageID string `json:"source_image_id,omitempty"`
	AIModel       string `json:"ai_model,omitempty"`

	AmazonSlot       string `json:"amazon_slot,omitempty"`
	AmazonPushStatus string `json:"amazon_push_status,omitempty"`
	AmazonPushedAt   string `json:"amazon_pushed_at,omitempty"`

	LockVersion int    `json:"lock_version"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`

	Product   *Product   `json:"product,omitempty"`
	AssetType *AssetType `json:"asset_type,omitempty"`
	Comments  []Comment  `json:"comments,omitempty"`
}

func convertGeneratedAsset(a usecase.GeneratedAsset) GeneratedAsset {
	asset := GeneratedAsset{
		ID:               a.ID.String(),
		ProductID:        a.ProductID.String(),
		AssetTypeID:      a.AssetTypeID.String(),
		Status:           string(a.Status),
		Version:          a.Version,
		URL:              a.URL,
		PromptUsed:       a.PromptUsed,
		Width:            a.Width,
		Height:           a.Height,
		FileSize:         a.FileSize,
		Duration:         a.Duration,
		Colors:           json.RawMessage(a.Colors),
		Error:            a.Error,
		AIModel:          a.AIModel,
		AmazonSlot:       a.AmazonSlot,
		AmazonPushStatus: a.AmazonPushStatus,
		LockVersion:      a.LockVersion,
		CreatedAt:        a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.Format(time.RFC3339),
	}
	if a.ParentAssetID != nil {
		asset.ParentAssetID = a.ParentAssetID.String()
	}
	if a.SourceImageID != nil {
		asset.SourceImageID = a.SourceImageID.String()
	}
	if a.AmazonPushedAt != nil {
		asset.AmazonPushedAt = a.AmazonPushedAt.Format(time.RFC3339)
	}
	if a.Product != nil {
		p := convertProduct(*a.Product)
		asset.Product = &p
	}
	if a.AssetType != nil {
		at := convertAssetType(*a.AssetType)
		asset.AssetType = &at
	}
	for _, c := range a.Comments {
		asset.Comments = append(asset.Comments, convertComment(c))
	}
	return asset
}

type ListGeneratedAssetsRequest struct {
	Skip        int    `query:"skip"`
	Limit       int    `query:"limit" validate:"required,gte=1,lte=100"`
	ProductID   string `query:"product_id" validate:"omitempty,uuid"`
	AssetTypeID string `query:"asset_type_id" validate:"omitempty,uuid"`
	Status      string `query:"status" validate:"omitempty,oneof=PENDING COMPLETED FAILED APPROVED REJECTED NEEDS_REWORK"`
	PushStatus  string `query:"push_status" validate:"omitempty,oneof=PUSHING SUCCESS FAILED"`
	SortBy      string `query:"sort_by" validate:"omitempty,oneof=created_at updated_at version status"`
	SortIn      string `query:"sort_in" validate:"omitempty,oneof=asc desc"`
}

func (s *Server) ListGeneratedAssets(ctx echo.Context) error {
	var req = ListGeneratedAssetsRequest{Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.ListGeneratedAssetsOption{
		Skip:       req.Skip,
		Limit:      req.Limit,
		PushStatus: req.PushStatus,
		SortBy:     req.SortBy,
		SortIn:     req.SortIn,
	}
	if req.ProductID != "" {
		id, _ := uuid.Parse(req.ProductID)
		opt.ProductIDs = append(opt.ProductIDs, id)
	}
	if req.AssetTypeID != "" {
		id, _ := uuid.Parse(req.AssetTypeID)
		opt.AssetTypeIDs = append(opt.AssetTypeIDs, id)
	}
	if req.Status != "" {
		opt.Statuses = []usecase.AssetStatus{usecase.AssetStatus(req.Status)}
	}

	list, total, err := s.server.ListGeneratedAssets(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}

	assets := make([]GeneratedAsset, 0, len(list))
	for _, a := range list {
		assets = append(assets, convertGeneratedAsset(a))
	}
	return ctx.JSON(200, Res{
		Data: assets,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type GetGeneratedAssetByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetGeneratedAssetByID(ctx echo.Context) error {
	var req GetGeneratedAssetByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	a, err := s.server.GetGeneratedAssetByID(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertGeneratedAsset(a)})
}

type GenerateImageRequest struct {
	ProductID     string `json:"product_id" validate:"required,uuid"`
	AssetTypeID   string `json:"asset_type_id" validate:"required,uuid"`
	SourceImageID string `json:"source_image_id" validate:"omitempty,uuid"`
	ParentAssetID string `json:"parent_asset_id" validate:"omitempty,uuid"`
	Instructions  string `json:"instructions" validate:"omitempty"`
}

func (s *Server) GenerateImage(ctx echo.Context) error {
	var req GenerateImageRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.GenerateAssetOption{
		Instructions: req.Instructions,
	}
	opt.ProductID, _ = uuid.Parse(req.ProductID)
	opt.AssetTypeID, _ = uuid.Parse(req.AssetTypeID)
	if req.SourceImageID != "" {
		id, _ := uuid.Parse(req.SourceImageID)
		opt.SourceImageID = &id
	}
	if req.ParentAssetID != "" {
		id, _ := uuid.Parse(req.ParentAssetID)
		opt.ParentAssetID = &id
	}

	a, err := s.server.GenerateImage(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(201, Res{Data: convertGeneratedAsset(a)})
}

type GenerateVideoRequest struct {
	ProductID       string `json:"product_id" validate:"required,uuid"`
	AssetTypeID     string `json:"asset_type_id" validate:"required,uuid"`
	ParentAssetID   string `json:"parent_asset_id" validate:"omitempty,uuid"`
	Instructions    string `json:"instructions" validate:"omitempty"`
	Model           string `json:"model" validate:"omitempty"`
	DurationSeconds int    `json:"duration_seconds" validate:"omitempty,gte=1,lte=60"`
	AspectRatio     string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16 1:1"`
}

func (s *Server) GenerateVideo(ctx echo.Context) error {
	var req GenerateVideoRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.GenerateAssetOption{
		Instructions: req.Instructions,
		VideoParams: usecase.VideoParams{
			Model:           req.Model,
			DurationSeconds: req.DurationSeconds,
			AspectRatio:     req.AspectRatio,
		},
	}
	opt.ProductID, _ = uuid.Parse(req.ProductID)
	opt.AssetTypeID, _ = uuid.Parse(req.AssetTypeID)
	if req.ParentAssetID != "" {
		id, _ := uuid.Parse(req.ParentAssetID)
		opt.ParentAssetID = &id
	}

	a, err := s.server.GenerateVideo(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(202, Res{Data: convertGeneratedAsset(a)})
}

type CheckVideoOperationRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) CheckVideoOperation(ctx echo.Context) error {
	var req CheckVideoOperationRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	a, err := s.server.CheckVideoOperation(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertGeneratedAsset(a)})
}

type TransitionAssetRequest struct {
	ID       string `param:"id" validate:"required,uuid"`
	Status   string `json:"status" validate:"required,oneof=APPROVED REJECTED NEEDS_REWORK"`
	Comment  string `json:"comment" validate:"omitempty"`
	IssueTag string `json:"issue_tag" validate:"omitempty"`
}

func (s *Server) TransitionAsset(ctx echo.Context) error {
	var req TransitionAssetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	a, err := s.server.TransitionAsset(ctx.Request().Context(), usecase.TransitionAssetOption{
		AssetID:  id,
		Target:   usecase.AssetStatus(req.Status),
		Comment:  req.Comment,
		IssueTag: req.IssueTag,
	})
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertGeneratedAsset(a)})
}

type Comment struct {
	ID        string `json:"id"`
	AssetID   string `json:"asset_id"`
	UserID    string `json:"user_id"`
	Body      string `json:"body"`
	IssueTag  string `json:"issue_tag,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`

	User *User `json:"user,omitempty"`
}

func convertComment(c usecase.Comment) Comment {
	comment := Comment{
		ID:        c.ID.String(),
		AssetID:   c.AssetID.String(),
		UserID:    c.UserID.String(),
		Body:      c.Body,
		IssueTag:  c.IssueTag,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
	if c.User != nil {
		u := convertUser(*c.User)
		comment.User = &u
	}
	return comment
}

type ListCommentsRequest struct {
	AssetID string `param:"id" validate:"required,uuid"`
}

func (s *Server) ListComments(ctx echo.Context) error {
	var req ListCommentsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.AssetID)
	comments, err := s.server.ListComments(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}

	list := make([]Comment, 0, len(comments))
	for _, c := range comments {
		list = append(list, convertComment(c))
	}
	return ctx.JSON(200, Res{Data: list})
}

type CreateCommentRequest struct {
	AssetID  string `param:"id" validate:"required,uuid"`
	Body     string `json:"body" validate:"required"`
	IssueTag string `json:"issue_tag" validate:"omitempty"`
}

func (s *Server) CreateComment(ctx echo.Context) error {
	var req CreateCommentRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.AssetID)
	c, err := s.server.CreateComment(ctx.Request().Context(), usecase.Comment{
		AssetID:  id,
		Body:     req.Body,
		IssueTag: req.IssueTag,
	})
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(201, Res{Data: convertComment(c)})
}

package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type GenerationJob struct {
	ID              string   `json:"id"`
	ProductIDs      []string `json:"product_ids"`
	AssetTypeIDs    []string `json:"asset_type_ids"`
	Status          string   `json:"status"`
	Priority        int      `json:"priority"`
	TotalImages     int      `json:"total_images"`
	CompletedImages int      `json:"completed_images"`
	Error           string   `json:"error,omitempty"`
	StartedAt       string   `json:"started_at,omitempty"`
	FinishedAt      string   `json:"finished_at,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
}

func convertGenerationJob(j usecase.GenerationJob) GenerationJob {
	job := GenerationJob{
		ID:              j.ID.String(),
		ProductIDs:      j.ProductIDs.Strings(),
		AssetTypeIDs:    j.AssetTypeIDs.Strings(),
		Status:          string(j.Status),
		Priority:        j.Priority,
		TotalImages:     j.TotalImages,
		CompletedImages: j.CompletedImages,
		Error:           j.Error,
		CreatedAt:       j.CreatedAt.Format(time.RFC3339),
	}
	if j.StartedAt != nil {
		job.StartedAt = j.StartedAt.Format(time.RFC3339)
	}
	if j.FinishedAt != nil {
		job.FinishedAt = j.FinishedAt.Format(time.RFC3339)
	}
	return job
}

type EnqueueGenerationJobRequest struct {
	ProductIDs   []string `json:"product_ids" validate:"required,min=1,dive,uuid"`
	AssetTypeIDs []string `json:"asset_type_ids" validate:"required,min=1,dive,uuid"`
	Priority     int      `json:"priority" validate:"omitempty,gte=0,lte=2"`
}

func (s *Server) EnqueueGenerationJob(ctx echo.Context) error {
	var req EnqueueGenerationJobRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.EnqueueGenerationJobOption{Priority: req.Priority}
	for _, raw := range req.ProductIDs {
		id, _ := uuid.Parse(raw)
		opt.ProductIDs = append(opt.ProductIDs, id)
	}
	for _, raw := range req.AssetTypeIDs {
		id, _ := uuid.Parse(raw)
		opt.AssetTypeIDs = append(opt.AssetTypeIDs, id)
	}

	job, err := s.server.EnqueueGenerationJob(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(202, Res{Data: convertGenerationJob(job)})
}

type ListGenerationJobsRequest struct {
	Skip   int    `query:"skip"`
	Limit  int    `query:"limit" validate:"required,gte=1,lte=100"`
	Status string `query:"status" validate:"omitempty,oneof=QUEUED RUNNING COMPLETED FAILED"`
}

func (s *Server) ListGenerationJobs(ctx echo.Context) error {
	var req = ListGenerationJobsRequest{Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.ListGenerationJobsOption{
		Skip:  req.Skip,
		Limit: req.Limit,
	}
	if req.Status != "" {
		opt.Statuses = []usecase.JobStatus{usecase.JobStatus(req.Status)}
	}

	list, total, err := s.server.ListGenerationJobs(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}

	jobs := make([]GenerationJob, 0, len(list))
	for _, j := range list {
		jobs = append(jobs, convertGenerationJob(j))
	}
	return ctx.JSON(200, Res{
		Data: jobs,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type GetGenerationJobByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetGenerationJobByID(ctx echo.Context) error {
	var req GetGenerationJobByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	job, err := s.server.GetGenerationJobByID(ctx.Request().Context(), id)
	if err != nil {
		return errJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: convertGenerationJob(job)})
}

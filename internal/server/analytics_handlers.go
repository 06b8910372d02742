package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type DailyAnalytics struct {
	Day            string `json:"day"`
	ImagesApproved int    `json:"images_approved"`
	ImagesRejected int    `json:"images_rejected"`
}

type GetAnalyticsRequest struct {
	From string `query:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `query:"to" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) GetAnalytics(ctx echo.Context) error {
	var req GetAnalyticsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	var opt usecase.GetAnalyticsOption
	if req.From != "" {
		opt.From, _ = time.Parse("2006-01-02", req.From)
	}
	if req.To != "" {
		opt.To, _ = time.Parse("2006-01-02", req.To)
	}

	rows, err := s.server.GetAnalytics(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}

	list := make([]DailyAnalytics, 0, len(rows))
	for _, row := range rows {
		list = append(list, DailyAnalytics{
			Day:            row.Day.Format("2006-01-02"),
			ImagesApproved: row.ImagesApproved,
			ImagesRejected: row.ImagesRejected,
		})
	}
	return ctx.JSON(200, Res{Data: list})
}

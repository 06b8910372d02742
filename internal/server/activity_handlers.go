package server

import (
	"encoding/json"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/listora/listora/internal/usecase"
)

type ActivityLog struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  string          `json:"created_at"`
	User       *User           `json:"user,omitempty"`
}

func convertActivityLog(log usecase.ActivityLog) ActivityLog {
	al := ActivityLog{
		ID:         log.ID.String(),
		UserID:     log.UserID.String(),
		Action:     log.Action,
		EntityType: log.EntityType,
		EntityID:   log.EntityID.String(),
		Metadata:   log.Metadata,
		CreatedAt:  log.CreatedAt.Format(time.RFC3339),
	}
	if log.User != nil {
		u := convertUser(*log.User)
		al.User = &u
	}
	return al
}

type ListActivityLogsRequest struct {
	Skip        int      `query:"skip" validate:"omitempty,gte=0"`
	Limit       int      `query:"limit" validate:"required,gte=1,lte=100"`
	Actions     []string `query:"actions" validate:"omitempty,dive,required"`
	EntityType  string   `query:"entity_type"`
	EntityID    string   `query:"entity_id" validate:"omitempty,uuid"`
	UserIDs     []string `query:"user_ids" validate:"omitempty,dive,uuid"`
	CreatedFrom string   `query:"created_from" validate:"omitempty,datetime=2006-01-02"`
	CreatedTo   string   `query:"created_to" validate:"omitempty,datetime=2006-01-02"`
}

func (s *Server) ListActivityLogs(ctx echo.Context) error {
	var req ListActivityLogsRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if req.Limit == 0 {
		req.Limit = 20
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	opt := usecase.ListActivityLogsOption{
		Skip:       req.Skip,
		Limit:      req.Limit,
		Actions:    req.Actions,
		EntityType: req.EntityType,
	}
	if req.EntityID != "" {
		opt.EntityID, _ = uuid.Parse(req.EntityID)
	}
	for _, id := range req.UserIDs {
		uid, _ := uuid.Parse(id)
		opt.UserIDs = append(opt.UserIDs, uid)
	}
	if req.CreatedFrom != "" {
		from, _ := time.Parse("2006-01-02", req.CreatedFrom)
		opt.CreatedFrom = &from
	}
	if req.CreatedTo != "" {
		to, _ := time.Parse("2006-01-02", req.CreatedTo)
		opt.CreatedTo = &to
	}

	logs, total, err := s.server.ListActivityLogs(ctx.Request().Context(), opt)
	if err != nil {
		return errJSON(ctx, err)
	}

	list := make([]ActivityLog, 0, len(logs))
	for _, log := range logs {
		list = append(list, convertActivityLog(log))
	}
	return ctx.JSON(200, Res{
		Data: list,
		Meta: &Meta{Total: total, Skip: req.Skip, Limit: req.Limit},
	})
}

// StreamActivityLogs upgrades the request to a websocket and forwards live
// audit entries until the client disconnects.
func (s *Server) StreamActivityLogs(ctx echo.Context) error {
	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	reqCtx := conn.CloseRead(ctx.Request().Context())

	ch, err := s.server.StreamActivityLogs(reqCtx)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe failed")
		return nil
	}

	for log := range ch {
		if err := wsjson.Write(reqCtx, conn, convertActivityLog(log)); err != nil {
			return nil
		}
	}

	conn.Close(websocket.StatusNormalClosure, "")
	return nil
}

package database

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"

	"github.com/listora/listora/internal/usecase"
)

// activityChannel is the postgres notification channel carrying freshly
// written audit entries to API instances.
const activityChannel = "activity_logs"

type ActivityLog struct {
	ID         uuid.UUID      `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()" json:"id"`
	UserID     uuid.UUID      `gorm:"column:user_id;type:uuid" json:"user_id"`
	Action     string         `gorm:"column:action;type:varchar(50);index" json:"action"`
	EntityType string         `gorm:"column:entity_type;type:varchar(50)" json:"entity_type"`
	EntityID   uuid.UUID      `gorm:"column:entity_id;type:uuid;index" json:"entity_id"`
	Metadata   datatypes.JSON `gorm:"column:metadata" json:"metadata"`
	CreatedAt  time.Time      `gorm:"column:created_at" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

func (s *service) CreateActivityLog(ctx context.Context, ual usecase.ActivityLog) (usecase.ActivityLog, error) {
	al := ActivityLog{
		UserID:     ual.UserID,
		Action:     ual.Action,
		EntityType: ual.EntityType,
		EntityID:   ual.EntityID,
		Metadata:   datatypes.JSON(ual.Metadata),
	}
	if err := s.db.WithContext(ctx).Clauses(clause.Returning{}).Create(&al).Error; err != nil {
		return usecase.ActivityLog{}, err
	}

	// Fan out to live stream subscribers on other instances.
	if payload, err := json.Marshal(al); err == nil {
		s.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", activityChannel, string(payload))
	}

	return al.ConvertToUsecase(), nil
}

func (s *service) ListActivityLogs(ctx context.Context, opt usecase.ListActivityLogsOption) ([]usecase.ActivityLog, int, error) {
	var (
		logs  []ActivityLog
		ulogs []usecase.ActivityLog
		count int64
	)

	db := s.db.Model([]ActivityLog{}).WithContext(ctx)

	if len(opt.Actions) > 0 {
		db = db.Where("action IN ?", opt.Actions)
	}
	if opt.EntityType != "" {
		db = db.Where("entity_type = ?", opt.EntityType)
	}
	if opt.EntityID != uuid.Nil {
		db = db.Where("entity_id = ?", opt.EntityID)
	}
	if len(opt.UserIDs) > 0 {
		db = db.Where("user_id IN ?", opt.UserIDs)
	}
	if opt.CreatedFrom != nil {
		db = db.Where("created_at >= ?", *opt.CreatedFrom)
	}
	if opt.CreatedTo != nil {
		db = db.Where("created_at <= ?", *opt.CreatedTo)
	}

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		db = db.Offset(opt.Skip)
	}

	if err := db.Preload("User").Order("created_at DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	for _, al := range logs {
		ulogs = append(ulogs, al.ConvertToUsecase())
	}
	return ulogs, int(count), nil
}

func (s *service) SubscribeActivity(ch chan<- usecase.ActivityLog) {
	if s.hub != nil {
		s.hub.subscribe(ch)
	}
}

func (s *service) UnsubscribeActivity(ch chan<- usecase.ActivityLog) {
	if s.hub != nil {
		s.hub.unsubscribe(ch)
	}
}

type activityHub struct {
	mu          sync.Mutex
	subscribers map[chan<- usecase.ActivityLog]struct{}
	conn        *pgx.Conn
	logger      *slog.Logger
	cancel      context.CancelFunc
}

func newActivityHub(conn *pgx.Conn, logger *slog.Logger) *activityHub {
	ctx, cancel := context.WithCancel(context.Background())
	hub := &activityHub{
		conn:        conn,
		subscribers: make(map[chan<- usecase.ActivityLog]struct{}),
		logger:      logger,
		cancel:      cancel,
	}
	go hub.listen(ctx)
	return hub
}

func (h *activityHub) listen(ctx context.Context) {
	for {
		n, err := h.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				h.logger.Error("activity hub listen", "error", err)
			}
			return
		}
		if n == nil {
			continue
		}

		al := parseActivityLog(n, h.logger)

		h.mu.Lock()
		for ch := range h.subscribers {
			select {
			case ch <- al:
			default:
				// Slow subscriber, drop rather than block the hub.
			}
		}
		h.mu.Unlock()
	}
}

func (h *activityHub) subscribe(ch chan<- usecase.ActivityLog) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers[ch] = struct{}{}
}

func (h *activityHub) unsubscribe(ch chan<- usecase.ActivityLog) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers, ch)
}

func (h *activityHub) close() {
	h.cancel()
	h.conn.Close(context.Background())
}

func parseActivityLog(n *pgconn.Notification, logger *slog.Logger) usecase.ActivityLog {
	var al ActivityLog
	if err := json.Unmarshal([]byte(n.Payload), &al); err != nil {
		logger.Error("activity hub parse payload", "error", err)
		return usecase.ActivityLog{}
	}
	return al.ConvertToUsecase()
}

func (al ActivityLog) ConvertToUsecase() usecase.ActivityLog {
	ual := usecase.ActivityLog{
		ID:         al.ID,
		UserID:     al.UserID,
		Action:     al.Action,
		EntityType: al.EntityType,
		EntityID:   al.EntityID,
		Metadata:   al.Metadata,
		CreatedAt:  al.CreatedAt,
	}
	if al.User != nil {
		u := al.User.ConvertToUsecase()
		ual.User = &u
	}
	return ual
}

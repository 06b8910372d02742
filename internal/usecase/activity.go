package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityLog is an append-only audit record. Nothing updates or deletes
// these rows.
type ActivityLog struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Metadata   []byte
	CreatedAt  time.Time

	User *User
}

type ListActivityLogsOption struct {
	Skip  int
	Limit int

	Actions     []string
	EntityType  string
	EntityID    uuid.UUID
	UserIDs     uuid.UUIDs
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

func (u Usecase) ListActivityLogs(ctx context.Context, opt ListActivityLogsOption) ([]ActivityLog, int, error) {
	return u.repo.ListActivityLogs(ctx, opt)
}

// StreamActivityLogs subscribes the caller to live audit entries. The
// returned channel closes when ctx is done.
func (u Usecase) StreamActivityLogs(ctx context.Context) (<-chan ActivityLog, error) {
	ch := make(chan ActivityLog, 16)
	u.repo.SubscribeActivity(ch)

	go func() {
		<-ctx.Done()
		u.repo.UnsubscribeActivity(ch)
		close(ch)
	}()

	return ch, nil
}

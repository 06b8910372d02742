package database

import (
	"context"
	"time"

	"github.com/listora/listora/internal/usecase"
)

type DailyAnalytics struct {
	Day            time.Time `gorm:"column:day;primaryKey;type:date"`
	ImagesApproved int       `gorm:"column:images_approved;default:0"`
	ImagesRejected int       `gorm:"column:images_rejected;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (DailyAnalytics) TableName() string {
	return "daily_analytics"
}

// IncrementDailyAnalytics adds to the day's counters in one statement.
// Counters only grow; review flip-flops each count again on purpose.
func (s *service) IncrementDailyAnalytics(ctx context.Context, day time.Time, approved, rejected int) error {
	return s.db.WithContext(ctx).Exec(`
		INSERT INTO daily_analytics (day, images_approved, images_rejected, created_at, updated_at)
		VALUES (?, ?, ?, NOW(), NOW())
		ON CONFLICT (day)
		DO UPDATE SET
			images_approved = daily_analytics.images_approved + EXCLUDED.images_approved,
			images_rejected = daily_analytics.images_rejected + EXCLUDED.images_rejected,
			updated_at = NOW()`,
		day.Format("2006-01-02"), approved, rejected,
	).Error
}

func (s *service) ListDailyAnalytics(ctx context.Context, from, to time.Time) ([]usecase.DailyAnalytics, error) {
	var rows []DailyAnalytics
	err := s.db.
		WithContext(ctx).
		Where("day BETWEEN ? AND ?", from.Format("2006-01-02"), to.Format("2006-01-02")).
		Order("day ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	urows := make([]usecase.DailyAnalytics, 0, len(rows))
	for _, r := range rows {
		urows = append(urows, usecase.DailyAnalytics{
			Day:            r.Day,
			ImagesApproved: r.ImagesApproved,
			ImagesRejected: r.ImagesRejected,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
		})
	}
	return urows, nil
}

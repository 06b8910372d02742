package usecase

import (
	"context"
	"time"
)

// DailyAnalytics holds one calendar day's review counters. Rows are
// upserted with atomic increments and never decremented; a reversed review
// decision does not retroactively correct past days.
type DailyAnalytics struct {
	Day            time.Time
	ImagesApproved int
	ImagesRejected int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type GetAnalyticsOption struct {
	From time.Time
	To   time.Time
}

func (u Usecase) GetAnalytics(ctx context.Context, opt GetAnalyticsOption) ([]DailyAnalytics, error) {
	if opt.To.IsZero() {
		opt.To = time.Now().UTC()
	}
	if opt.From.IsZero() {
		opt.From = opt.To.AddDate(0, 0, -30)
	}
	if opt.From.After(opt.To) {
		return nil, ErrValidation{
			Code:    "invalid_range",
			Message: "analytics range start is after its end",
		}
	}
	return u.repo.ListDailyAnalytics(ctx, opt.From, opt.To)
}

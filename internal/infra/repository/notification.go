package repository

import (
	"context"
	"time"

	"groupbuy/internal/infra"
	"groupbuy/internal/infra/db"
)

type NotificationRepository struct {
	db db.DBTX
}

func NewNotificationRepository(db db.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateJob(ctx context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO notification_jobs (kind, topic, payload, run_at) VALUES ($1, $2, $3, $4)`,
		kind, topic, payload, runAt)
	if err != nil {
		return infra.WrapRepoErr("failed to create notification job", err)
	}
	return nil
}

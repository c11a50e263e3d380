package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

type notificationRepo struct {
	db *DB
}

// NotificationRepo ...
func (d *DB) NotificationRepo() repository.Notification {
	return &notificationRepo{db: d}
}

func (r *notificationRepo) Insert(ctx context.Context, userID int64, message string, now time.Time) error {
	defer r.db.acquire(ctx)()

	notif := model.Notification{
		ID:        r.db.state.nextID(),
		UserID:    userID,
		Message:   message,
		CreatedAt: now,
	}
	r.db.state.notifications[notif.ID] = notif
	return nil
}

func (r *notificationRepo) ListUnsent(ctx context.Context, limit int) ([]model.Notification, error) {
	defer r.db.acquire(ctx)()

	var result []model.Notification
	for _, n := range r.db.state.notifications {
		if !n.Sent && !n.Dead {
			result = append(result, n)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *notificationRepo) MarkSent(ctx context.Context, id int64) error {
	defer r.db.acquire(ctx)()

	notif, ok := r.db.state.notifications[id]
	if !ok {
		return nil
	}
	notif.Sent = true
	r.db.state.notifications[id] = notif
	return nil
}

func (r *notificationRepo) MarkFailed(ctx context.Context, id int64, maxAttempts int) error {
	defer r.db.acquire(ctx)()

	notif, ok := r.db.state.notifications[id]
	if !ok {
		return nil
	}
	notif.Attempts++
	if notif.Attempts >= maxAttempts {
		notif.Dead = true
	}
	r.db.state.notifications[id] = notif
	return nil
}

func (r *notificationRepo) CountUnsent(ctx context.Context) (int64, error) {
	defer r.db.acquire(ctx)()

	var count int64
	for _, n := range r.db.state.notifications {
		if !n.Sent && !n.Dead {
			count++
		}
	}
	return count, nil
}

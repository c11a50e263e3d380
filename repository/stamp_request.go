package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stampme/stampme/model"
)

// StampRequest ...
type StampRequest interface {
	Insert(ctx context.Context, req model.StampRequest) (int64, error)
	LockPending(ctx context.Context, id int64) (model.StampRequest, error)
	MarkApproved(ctx context.Context, id int64, now time.Time) error
	MarkRejected(ctx context.Context, id int64, reason string, now time.Time) error
	ListPending(ctx context.Context, merchantID int64) ([]model.PendingRequest, error)
	ListPendingIDs(ctx context.Context, merchantID int64) ([]int64, error)
	CountPending(ctx context.Context, merchantID int64) (int64, error)
}

type stampRequestImpl struct {
}

// NewStampRequest ...
func NewStampRequest() StampRequest {
	return &stampRequestImpl{}
}

// Insert ...
func (s *stampRequestImpl) Insert(ctx context.Context, req model.StampRequest) (int64, error) {
	query := `
INSERT INTO stamp_requests (
	campaign_id, customer_id, merchant_id, enrollment_id,
	status, customer_message, created_at
) VALUES (
	:campaign_id, :customer_id, :merchant_id, :enrollment_id,
	:status, :customer_message, :created_at
)
`
	result, err := GetTx(ctx).NamedExecContext(ctx, query, req)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LockPending locks the request row for the rest of the transaction,
// only when it is still pending. Concurrent approvals of the same id
// serialize here: exactly one transaction observes the pending row,
// all others get ErrNotFound.
func (s *stampRequestImpl) LockPending(ctx context.Context, id int64) (model.StampRequest, error) {
	query := `
SELECT id, campaign_id, customer_id, merchant_id, enrollment_id,
	status, customer_message, rejection_reason, created_at, processed_at
FROM stamp_requests
WHERE id = ? AND status = 'pending'
FOR UPDATE
`
	var result model.StampRequest
	err := GetTx(ctx).GetContext(ctx, &result, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.StampRequest{}, model.ErrNotFound
	}
	return result, err
}

// MarkApproved ...
func (s *stampRequestImpl) MarkApproved(ctx context.Context, id int64, now time.Time) error {
	query := `
UPDATE stamp_requests
SET status = 'approved', processed_at = ?
WHERE id = ?
`
	_, err := GetTx(ctx).ExecContext(ctx, query, now, id)
	return err
}

// MarkRejected ...
func (s *stampRequestImpl) MarkRejected(ctx context.Context, id int64, reason string, now time.Time) error {
	query := `
UPDATE stamp_requests
SET status = 'rejected', rejection_reason = NULLIF(?, ''), processed_at = ?
WHERE id = ?
`
	_, err := GetTx(ctx).ExecContext(ctx, query, reason, now, id)
	return err
}

// ListPending returns the merchant's pending requests oldest-first,
// joined with the display fields of the review queue.
func (s *stampRequestImpl) ListPending(ctx context.Context, merchantID int64) ([]model.PendingRequest, error) {
	query := `
SELECT sr.id, sr.campaign_id, sr.customer_id, sr.merchant_id, sr.enrollment_id,
	sr.status, sr.customer_message, sr.rejection_reason, sr.created_at, sr.processed_at,
	ca.name AS campaign_name, ca.stamps_needed,
	u.username, u.first_name,
	e.stamps AS current_stamps
FROM stamp_requests sr
JOIN campaigns ca ON sr.campaign_id = ca.id
JOIN users u ON sr.customer_id = u.id
JOIN enrollments e ON sr.enrollment_id = e.id
WHERE sr.merchant_id = ? AND sr.status = 'pending'
ORDER BY sr.created_at ASC
`
	var result []model.PendingRequest
	err := getQueryer(ctx).SelectContext(ctx, &result, query, merchantID)
	return result, err
}

// ListPendingIDs ...
func (s *stampRequestImpl) ListPendingIDs(ctx context.Context, merchantID int64) ([]int64, error) {
	query := `
SELECT id FROM stamp_requests
WHERE merchant_id = ? AND status = 'pending'
ORDER BY created_at ASC
`
	var result []int64
	err := getQueryer(ctx).SelectContext(ctx, &result, query, merchantID)
	return result, err
}

// CountPending ...
func (s *stampRequestImpl) CountPending(ctx context.Context, merchantID int64) (int64, error) {
	query := `
SELECT COUNT(*) FROM stamp_requests
WHERE merchant_id = ? AND status = 'pending'
`
	var count int64
	err := getQueryer(ctx).GetContext(ctx, &count, query, merchantID)
	return count, err
}

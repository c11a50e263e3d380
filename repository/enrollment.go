package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stampme/stampme/model"
)

// Enrollment ...
type Enrollment interface {
	Upsert(ctx context.Context, campaignID int64, customerID int64, now time.Time) (id int64, created bool, err error)
	Get(ctx context.Context, campaignID int64, customerID int64) (model.Enrollment, error)
	GetByID(ctx context.Context, id int64) (model.Enrollment, error)
	LockByID(ctx context.Context, id int64) (model.Enrollment, error)
	ListByCampaign(ctx context.Context, campaignID int64) ([]model.CampaignMember, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]model.WalletItem, error)

	AddStamp(ctx context.Context, id int64, now time.Time) (newStamps int, err error)
	MarkCompleted(ctx context.Context, id int64, now time.Time) error
	SetCompleted(ctx context.Context, id int64, completed bool, now time.Time) error
	Reset(ctx context.Context, id int64) error
	SaveRating(ctx context.Context, id int64, rating int, feedback string) error

	InsertRewardClaim(ctx context.Context, claim model.RewardClaim) error
}

type enrollmentImpl struct {
}

// NewEnrollment ...
func NewEnrollment() Enrollment {
	return &enrollmentImpl{}
}

// Upsert inserts the enrollment if absent and reports whether a new row
// was created. An existing row is returned unchanged: joined_at is
// preserved, not refreshed.
func (e *enrollmentImpl) Upsert(
	ctx context.Context, campaignID int64, customerID int64, now time.Time,
) (int64, bool, error) {
	query := `
INSERT IGNORE INTO enrollments (campaign_id, customer_id, joined_at)
VALUES (?, ?, ?)
`
	result, err := GetTx(ctx).ExecContext(ctx, query, campaignID, customerID, now)
	if err != nil {
		return 0, false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if affected > 0 {
		id, err := result.LastInsertId()
		return id, true, err
	}

	existing, err := e.Get(ctx, campaignID, customerID)
	if err != nil {
		return 0, false, err
	}
	return existing.ID, false, nil
}

const enrollmentColumns = `
id, campaign_id, customer_id, stamps, joined_at, last_stamp_at,
completed, completed_at, rating, feedback
`

// Get ...
func (e *enrollmentImpl) Get(ctx context.Context, campaignID int64, customerID int64) (model.Enrollment, error) {
	query := `
SELECT ` + enrollmentColumns + `
FROM enrollments
WHERE campaign_id = ? AND customer_id = ?
`
	var result model.Enrollment
	err := getQueryer(ctx).GetContext(ctx, &result, query, campaignID, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Enrollment{}, model.ErrNotFound
	}
	return result, err
}

// GetByID ...
func (e *enrollmentImpl) GetByID(ctx context.Context, id int64) (model.Enrollment, error) {
	query := `
SELECT ` + enrollmentColumns + `
FROM enrollments
WHERE id = ?
`
	var result model.Enrollment
	err := getQueryer(ctx).GetContext(ctx, &result, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Enrollment{}, model.ErrNotFound
	}
	return result, err
}

// LockByID locks the enrollment row for the rest of the transaction.
func (e *enrollmentImpl) LockByID(ctx context.Context, id int64) (model.Enrollment, error) {
	query := `
SELECT ` + enrollmentColumns + `
FROM enrollments
WHERE id = ?
FOR UPDATE
`
	var result model.Enrollment
	err := GetTx(ctx).GetContext(ctx, &result, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Enrollment{}, model.ErrNotFound
	}
	return result, err
}

// ListByCampaign returns enrollments ordered by stamps descending, then
// joined_at ascending.
func (e *enrollmentImpl) ListByCampaign(ctx context.Context, campaignID int64) ([]model.CampaignMember, error) {
	query := `
SELECT e.id, e.campaign_id, e.customer_id, e.stamps, e.joined_at, e.last_stamp_at,
	e.completed, e.completed_at, e.rating, e.feedback,
	u.username, u.first_name
FROM enrollments e
JOIN users u ON e.customer_id = u.id
WHERE e.campaign_id = ?
ORDER BY e.stamps DESC, e.joined_at
`
	var result []model.CampaignMember
	err := getQueryer(ctx).SelectContext(ctx, &result, query, campaignID)
	return result, err
}

// ListByCustomer returns the customer's enrollments in active campaigns.
func (e *enrollmentImpl) ListByCustomer(ctx context.Context, customerID int64) ([]model.WalletItem, error) {
	query := `
SELECT e.id, e.campaign_id, e.customer_id, e.stamps, e.joined_at, e.last_stamp_at,
	e.completed, e.completed_at, e.rating, e.feedback,
	ca.name AS campaign_name, ca.stamps_needed, ca.expires_at,
	u.first_name AS merchant_name
FROM enrollments e
JOIN campaigns ca ON e.campaign_id = ca.id
JOIN users u ON ca.merchant_id = u.id
WHERE e.customer_id = ? AND ca.active = TRUE
ORDER BY e.last_stamp_at DESC, e.joined_at DESC
`
	var result []model.WalletItem
	err := getQueryer(ctx).SelectContext(ctx, &result, query, customerID)
	return result, err
}

// AddStamp increments stamps by exactly 1 and returns the new count.
func (e *enrollmentImpl) AddStamp(ctx context.Context, id int64, now time.Time) (int, error) {
	query := `
UPDATE enrollments
SET stamps = stamps + 1, last_stamp_at = ?
WHERE id = ?
`
	_, err := GetTx(ctx).ExecContext(ctx, query, now, id)
	if err != nil {
		return 0, err
	}

	var stamps int
	err = GetTx(ctx).GetContext(ctx, &stamps, `SELECT stamps FROM enrollments WHERE id = ?`, id)
	return stamps, err
}

// MarkCompleted ...
func (e *enrollmentImpl) MarkCompleted(ctx context.Context, id int64, now time.Time) error {
	query := `
UPDATE enrollments
SET completed = TRUE, completed_at = ?
WHERE id = ?
`
	_, err := GetTx(ctx).ExecContext(ctx, query, now, id)
	return err
}

// SetCompleted recomputes only the completion flag, leaving counters alone.
func (e *enrollmentImpl) SetCompleted(ctx context.Context, id int64, completed bool, now time.Time) error {
	if completed {
		return e.MarkCompleted(ctx, id, now)
	}
	query := `UPDATE enrollments SET completed = FALSE WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, id)
	return err
}

// Reset sets stamps back to zero after a reward claim.
func (e *enrollmentImpl) Reset(ctx context.Context, id int64) error {
	query := `
UPDATE enrollments
SET stamps = 0, completed = FALSE, completed_at = NULL
WHERE id = ?
`
	_, err := GetTx(ctx).ExecContext(ctx, query, id)
	return err
}

// SaveRating ...
func (e *enrollmentImpl) SaveRating(ctx context.Context, id int64, rating int, feedback string) error {
	query := `
UPDATE enrollments
SET rating = ?, feedback = NULLIF(?, '')
WHERE id = ?
`
	_, err := GetTx(ctx).ExecContext(ctx, query, rating, feedback, id)
	return err
}

// InsertRewardClaim ...
func (e *enrollmentImpl) InsertRewardClaim(ctx context.Context, claim model.RewardClaim) error {
	query := `
INSERT INTO reward_claims (enrollment_id, merchant_id, stamps_spent, created_at)
VALUES (:enrollment_id, :merchant_id, :stamps_spent, :created_at)
`
	_, err := GetTx(ctx).NamedExecContext(ctx, query, claim)
	return err
}

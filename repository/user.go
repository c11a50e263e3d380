package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stampme/stampme/model"
)

// User ...
type User interface {
	Upsert(ctx context.Context, user model.User) error
	Get(ctx context.Context, id int64) (model.User, error)
	SetRole(ctx context.Context, id int64, role model.UserRole) error
	ApproveMerchant(ctx context.Context, id int64, adminID int64, now time.Time) error
	ListPendingMerchants(ctx context.Context) ([]model.User, error)
	AddStampsEarned(ctx context.Context, id int64, delta int64) error
	AddRewardsClaimed(ctx context.Context, id int64, delta int64) error

	GetSettings(ctx context.Context, merchantID int64) (model.MerchantSettings, error)
	InsertDefaultSettings(ctx context.Context, merchantID int64) error
	UpdateSettings(ctx context.Context, settings model.MerchantSettings) error
}

type userImpl struct {
}

// NewUser ...
func NewUser() User {
	return &userImpl{}
}

// Upsert creates the user on first contact, otherwise refreshes
// username, first name and last_active. created_at is preserved.
func (u *userImpl) Upsert(ctx context.Context, user model.User) error {
	query := `
INSERT INTO users (id, username, first_name, role, last_active)
VALUES (:id, :username, :first_name, :role, :last_active) AS NEW
ON DUPLICATE KEY UPDATE
	username = NEW.username,
	first_name = NEW.first_name,
	last_active = NEW.last_active
`
	_, err := GetTx(ctx).NamedExecContext(ctx, query, user)
	return err
}

// Get ...
func (u *userImpl) Get(ctx context.Context, id int64) (model.User, error) {
	query := `
SELECT id, username, first_name, role,
	merchant_approved, merchant_approved_at, merchant_approved_by,
	total_stamps_earned, total_rewards_claimed,
	created_at, last_active
FROM users
WHERE id = ?
`
	var result model.User
	err := getQueryer(ctx).GetContext(ctx, &result, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, model.ErrNotFound
	}
	return result, err
}

// SetRole ...
func (u *userImpl) SetRole(ctx context.Context, id int64, role model.UserRole) error {
	query := `UPDATE users SET role = ? WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, role, id)
	return err
}

// ApproveMerchant ...
func (u *userImpl) ApproveMerchant(ctx context.Context, id int64, adminID int64, now time.Time) error {
	query := `
UPDATE users
SET merchant_approved = TRUE,
	merchant_approved_at = ?,
	merchant_approved_by = ?
WHERE id = ?
`
	_, err := GetTx(ctx).ExecContext(ctx, query, now, adminID, id)
	return err
}

// ListPendingMerchants ...
func (u *userImpl) ListPendingMerchants(ctx context.Context) ([]model.User, error) {
	query := `
SELECT id, username, first_name, role,
	merchant_approved, merchant_approved_at, merchant_approved_by,
	total_stamps_earned, total_rewards_claimed,
	created_at, last_active
FROM users
WHERE role = 'merchant' AND merchant_approved = FALSE
ORDER BY created_at
`
	var result []model.User
	err := getQueryer(ctx).SelectContext(ctx, &result, query)
	return result, err
}

// AddStampsEarned ...
func (u *userImpl) AddStampsEarned(ctx context.Context, id int64, delta int64) error {
	query := `UPDATE users SET total_stamps_earned = total_stamps_earned + ? WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, delta, id)
	return err
}

// AddRewardsClaimed ...
func (u *userImpl) AddRewardsClaimed(ctx context.Context, id int64, delta int64) error {
	query := `UPDATE users SET total_rewards_claimed = total_rewards_claimed + ? WHERE id = ?`
	_, err := GetTx(ctx).ExecContext(ctx, query, delta, id)
	return err
}

// GetSettings ...
func (u *userImpl) GetSettings(ctx context.Context, merchantID int64) (model.MerchantSettings, error) {
	query := `
SELECT merchant_id, require_approval, auto_approve, daily_summary_enabled,
	notification_hour, business_name, business_type, location
FROM merchant_settings
WHERE merchant_id = ?
`
	var result model.MerchantSettings
	err := getQueryer(ctx).GetContext(ctx, &result, query, merchantID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.MerchantSettings{}, model.ErrNotFound
	}
	return result, err
}

// InsertDefaultSettings ...
func (u *userImpl) InsertDefaultSettings(ctx context.Context, merchantID int64) error {
	query := `
INSERT INTO merchant_settings (merchant_id)
VALUES (?)
ON DUPLICATE KEY UPDATE merchant_id = merchant_id
`
	_, err := GetTx(ctx).ExecContext(ctx, query, merchantID)
	return err
}

// UpdateSettings ...
func (u *userImpl) UpdateSettings(ctx context.Context, settings model.MerchantSettings) error {
	query := `
UPDATE merchant_settings
SET require_approval = :require_approval,
	auto_approve = :auto_approve,
	daily_summary_enabled = :daily_summary_enabled,
	notification_hour = :notification_hour,
	business_name = :business_name,
	business_type = :business_type,
	location = :location
WHERE merchant_id = :merchant_id
`
	_, err := GetTx(ctx).NamedExecContext(ctx, query, settings)
	return err
}

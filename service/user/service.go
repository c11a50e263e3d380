package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

// Service owns user identity and merchant approval. Identities are
// opaque numeric ids handed in by the transport layer; users are
// created on first contact and roles change only through explicit
// promotion and approval actions.
type Service struct {
	provider  repository.Provider
	userRepo  repository.User
	notifRepo repository.Notification
}

// NewService ...
func NewService(
	provider repository.Provider,
	userRepo repository.User,
	notifRepo repository.Notification,
) *Service {
	return &Service{
		provider:  provider,
		userRepo:  userRepo,
		notifRepo: notifRepo,
	}
}

// EnsureUser upserts the user on contact: created with the customer
// role on first sight, otherwise username, first name and last_active
// are refreshed while role and counters stay untouched.
func (s *Service) EnsureUser(ctx context.Context, id int64, username string, firstName string) (model.User, error) {
	now := time.Now()

	var result model.User
	err := s.provider.Transact(ctx, func(ctx context.Context) error {
		user := model.User{
			ID:         id,
			Username:   nullString(username),
			FirstName:  firstName,
			Role:       model.UserRoleCustomer,
			CreatedAt:  now,
			LastActive: now,
		}
		if err := s.userRepo.Upsert(ctx, user); err != nil {
			return err
		}

		var err error
		result, err = s.userRepo.Get(ctx, id)
		return err
	})
	if err != nil {
		return model.User{}, err
	}
	return result, nil
}

// Get ...
func (s *Service) Get(ctx context.Context, id int64) (model.User, error) {
	return s.userRepo.Get(s.provider.Readonly(ctx), id)
}

// RequestMerchantAccess promotes the user to the merchant role,
// unapproved. Approval is a separate admin action.
func (s *Service) RequestMerchantAccess(ctx context.Context, id int64) error {
	return s.provider.Transact(ctx, func(ctx context.Context) error {
		return s.userRepo.SetRole(ctx, id, model.UserRoleMerchant)
	})
}

// ApproveMerchant flips the merchant approval flag, seeds the default
// merchant settings row and notifies the merchant, in one transaction.
func (s *Service) ApproveMerchant(ctx context.Context, adminID int64, merchantID int64) error {
	now := time.Now()

	return s.provider.Transact(ctx, func(ctx context.Context) error {
		if err := s.userRepo.ApproveMerchant(ctx, merchantID, adminID, now); err != nil {
			return err
		}
		if err := s.userRepo.InsertDefaultSettings(ctx, merchantID); err != nil {
			return err
		}

		const message = "Congratulations! Your merchant account has been approved. " +
			"Create your first campaign to start rewarding your customers."
		return s.notifRepo.Insert(ctx, merchantID, message, now)
	})
}

// PendingMerchants lists merchants awaiting approval, oldest first.
func (s *Service) PendingMerchants(ctx context.Context) ([]model.User, error) {
	return s.userRepo.ListPendingMerchants(s.provider.Readonly(ctx))
}

// IsMerchantApproved ...
func (s *Service) IsMerchantApproved(ctx context.Context, id int64) (bool, error) {
	user, err := s.userRepo.Get(s.provider.Readonly(ctx), id)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.Role == model.UserRoleMerchant && user.MerchantApproved, nil
}

// GetSettings returns the merchant's settings, creating the default
// row on first read.
func (s *Service) GetSettings(ctx context.Context, merchantID int64) (model.MerchantSettings, error) {
	settings, err := s.userRepo.GetSettings(s.provider.Readonly(ctx), merchantID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.MerchantSettings{}, err
	}

	err = s.provider.Transact(ctx, func(ctx context.Context) error {
		return s.userRepo.InsertDefaultSettings(ctx, merchantID)
	})
	if err != nil {
		return model.MerchantSettings{}, err
	}
	return s.userRepo.GetSettings(s.provider.Readonly(ctx), merchantID)
}

// UpdateSettings ...
func (s *Service) UpdateSettings(ctx context.Context, settings model.MerchantSettings) error {
	return s.provider.Transact(ctx, func(ctx context.Context) error {
		return s.userRepo.UpdateSettings(ctx, settings)
	})
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{Valid: true, String: s}
}

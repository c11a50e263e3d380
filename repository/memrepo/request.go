package memrepo

import (
	"context"
	"sort"
	"time"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

type requestRepo struct {
	db *DB
}

// StampRequestRepo ...
func (d *DB) StampRequestRepo() repository.StampRequest {
	return &requestRepo{db: d}
}

func (r *requestRepo) Insert(ctx context.Context, req model.StampRequest) (int64, error) {
	defer r.db.acquire(ctx)()

	req.ID = r.db.state.nextID()
	r.db.state.requests[req.ID] = req
	return req.ID, nil
}

func (r *requestRepo) LockPending(ctx context.Context, id int64) (model.StampRequest, error) {
	defer r.db.acquire(ctx)()

	req, ok := r.db.state.requests[id]
	if !ok || req.Status != model.RequestStatusPending {
		return model.StampRequest{}, model.ErrNotFound
	}
	return req, nil
}

func (r *requestRepo) MarkApproved(ctx context.Context, id int64, now time.Time) error {
	defer r.db.acquire(ctx)()

	req, ok := r.db.state.requests[id]
	if !ok {
		return nil
	}
	req.Status = model.RequestStatusApproved
	req.ProcessedAt = nullTime(now)
	r.db.state.requests[id] = req
	return nil
}

func (r *requestRepo) MarkRejected(ctx context.Context, id int64, reason string, now time.Time) error {
	defer r.db.acquire(ctx)()

	req, ok := r.db.state.requests[id]
	if !ok {
		return nil
	}
	req.Status = model.RequestStatusRejected
	req.RejectionReason = nullString(reason)
	req.ProcessedAt = nullTime(now)
	r.db.state.requests[id] = req
	return nil
}

func (r *requestRepo) pendingSorted(merchantID int64) []model.StampRequest {
	var result []model.StampRequest
	for _, req := range r.db.state.requests {
		if req.MerchantID == merchantID && req.Status == model.RequestStatusPending {
			result = append(result, req)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *requestRepo) ListPending(ctx context.Context, merchantID int64) ([]model.PendingRequest, error) {
	defer r.db.acquire(ctx)()

	var result []model.PendingRequest
	for _, req := range r.pendingSorted(merchantID) {
		pending := model.PendingRequest{StampRequest: req}
		if campaign, ok := r.db.state.campaigns[req.CampaignID]; ok {
			pending.CampaignName = campaign.Name
			pending.StampsNeeded = campaign.StampsNeeded
		}
		if customer, ok := r.db.state.users[req.CustomerID]; ok {
			pending.Username = customer.Username
			pending.FirstName = customer.FirstName
		}
		if enrollment, ok := r.db.state.enrollments[req.EnrollmentID]; ok {
			pending.CurrentStamps = enrollment.Stamps
		}
		result = append(result, pending)
	}
	return result, nil
}

func (r *requestRepo) ListPendingIDs(ctx context.Context, merchantID int64) ([]int64, error) {
	defer r.db.acquire(ctx)()

	var result []int64
	for _, req := range r.pendingSorted(merchantID) {
		result = append(result, req.ID)
	}
	return result, nil
}

func (r *requestRepo) CountPending(ctx context.Context, merchantID int64) (int64, error) {
	defer r.db.acquire(ctx)()

	return int64(len(r.pendingSorted(merchantID))), nil
}

type transactionRepo struct {
	db *DB
}

// StampTransactionRepo ...
func (d *DB) StampTransactionRepo() repository.StampTransaction {
	return &transactionRepo{db: d}
}

func (r *transactionRepo) Insert(ctx context.Context, txn model.StampTransaction) error {
	defer r.db.acquire(ctx)()

	txn.ID = r.db.state.nextID()
	r.db.state.transactions = append(r.db.state.transactions, txn)
	return nil
}

func (r *transactionRepo) ListByEnrollment(ctx context.Context, enrollmentID int64) ([]model.StampTransaction, error) {
	defer r.db.acquire(ctx)()

	var result []model.StampTransaction
	for _, txn := range r.db.state.transactions {
		if txn.EnrollmentID == enrollmentID {
			result = append(result, txn)
		}
	}
	return result, nil
}

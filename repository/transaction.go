package repository

import (
	"context"

	"github.com/stampme/stampme/model"
)

// StampTransaction ...
type StampTransaction interface {
	Insert(ctx context.Context, txn model.StampTransaction) error
	ListByEnrollment(ctx context.Context, enrollmentID int64) ([]model.StampTransaction, error)
}

type stampTransactionImpl struct {
}

// NewStampTransaction ...
func NewStampTransaction() StampTransaction {
	return &stampTransactionImpl{}
}

// Insert ...
func (t *stampTransactionImpl) Insert(ctx context.Context, txn model.StampTransaction) error {
	query := `
INSERT INTO transactions (enrollment_id, merchant_id, action_type, stamps_change, created_at)
VALUES (:enrollment_id, :merchant_id, :action_type, :stamps_change, :created_at)
`
	_, err := GetTx(ctx).NamedExecContext(ctx, query, txn)
	return err
}

// ListByEnrollment ...
func (t *stampTransactionImpl) ListByEnrollment(ctx context.Context, enrollmentID int64) ([]model.StampTransaction, error) {
	query := `
SELECT id, enrollment_id, merchant_id, action_type, stamps_change, created_at
FROM transactions
WHERE enrollment_id = ?
ORDER BY created_at
`
	var result []model.StampTransaction
	err := getQueryer(ctx).SelectContext(ctx, &result, query, enrollmentID)
	return result, err
}

package model

import (
	"database/sql"
	"time"
)

// StampRequest ...
//
// Status only ever transitions pending->approved or pending->rejected,
// never out of a terminal state.
type StampRequest struct {
	ID           int64 `db:"id"`
	CampaignID   int64 `db:"campaign_id"`
	CustomerID   int64 `db:"customer_id"`
	MerchantID   int64 `db:"merchant_id"`
	EnrollmentID int64 `db:"enrollment_id"`

	Status          RequestStatus  `db:"status"`
	CustomerMessage sql.NullString `db:"customer_message"`
	RejectionReason sql.NullString `db:"rejection_reason"`

	CreatedAt   time.Time    `db:"created_at"`
	ProcessedAt sql.NullTime `db:"processed_at"`
}

// RequestStatus ...
type RequestStatus string

const (
	// RequestStatusPending ...
	RequestStatusPending RequestStatus = "pending"

	// RequestStatusApproved ...
	RequestStatusApproved RequestStatus = "approved"

	// RequestStatusRejected ...
	RequestStatusRejected RequestStatus = "rejected"
)

// PendingRequest is a pending stamp request joined with display fields
// for the merchant review queue.
type PendingRequest struct {
	StampRequest

	CampaignName  string         `db:"campaign_name"`
	StampsNeeded  int            `db:"stamps_needed"`
	Username      sql.NullString `db:"username"`
	FirstName     string         `db:"first_name"`
	CurrentStamps int            `db:"current_stamps"`
}

package memrepo

import (
	"context"
	"sync"

	"github.com/stampme/stampme/model"
	"github.com/stampme/stampme/repository"
)

// DB is an in-memory implementation of the repository interfaces,
// substitutable for the MySQL-backed ones in tests and single-process
// deployments. Transact serializes on a mutex and rolls back by
// restoring a snapshot, giving the same all-or-nothing and
// one-writer-at-a-time semantics the SQL layer gets from InnoDB.
type DB struct {
	mut   sync.Mutex
	state *state
}

type statKey struct {
	merchantID int64
	date       string
}

type state struct {
	users    map[int64]model.User
	settings map[int64]model.MerchantSettings

	campaigns map[int64]model.Campaign
	tiers     []model.RewardTier

	enrollments map[int64]model.Enrollment
	requests    map[int64]model.StampRequest

	transactions []model.StampTransaction
	claims       []model.RewardClaim

	referrals     map[int64]model.Referral
	notifications map[int64]model.Notification
	stats         map[statKey]model.DailyStat

	lastID int64
}

// New ...
func New() *DB {
	return &DB{
		state: &state{
			users:         map[int64]model.User{},
			settings:      map[int64]model.MerchantSettings{},
			campaigns:     map[int64]model.Campaign{},
			enrollments:   map[int64]model.Enrollment{},
			requests:      map[int64]model.StampRequest{},
			referrals:     map[int64]model.Referral{},
			notifications: map[int64]model.Notification{},
			stats:         map[statKey]model.DailyStat{},
		},
	}
}

var _ repository.Provider = &DB{}

type ctxTxKeyType struct {
}

var ctxTxKey = ctxTxKeyType{}

// Transact ...
func (d *DB) Transact(ctx context.Context, fn func(ctx context.Context) error) error {
	d.mut.Lock()
	defer d.mut.Unlock()

	snapshot := d.state.clone()
	ctx = context.WithValue(ctx, ctxTxKey, d)

	if err := fn(ctx); err != nil {
		d.state = snapshot
		return err
	}
	return nil
}

// Readonly ...
func (d *DB) Readonly(ctx context.Context) context.Context {
	return ctx
}

// acquire takes the mutex unless the context is already inside Transact.
func (d *DB) acquire(ctx context.Context) func() {
	if ctx.Value(ctxTxKey) != nil {
		return func() {}
	}
	d.mut.Lock()
	return d.mut.Unlock
}

func (s *state) nextID() int64 {
	s.lastID++
	return s.lastID
}

func (s *state) clone() *state {
	next := &state{
		users:    make(map[int64]model.User, len(s.users)),
		settings: make(map[int64]model.MerchantSettings, len(s.settings)),

		campaigns: make(map[int64]model.Campaign, len(s.campaigns)),
		tiers:     append([]model.RewardTier(nil), s.tiers...),

		enrollments: make(map[int64]model.Enrollment, len(s.enrollments)),
		requests:    make(map[int64]model.StampRequest, len(s.requests)),

		transactions: append([]model.StampTransaction(nil), s.transactions...),
		claims:       append([]model.RewardClaim(nil), s.claims...),

		referrals:     make(map[int64]model.Referral, len(s.referrals)),
		notifications: make(map[int64]model.Notification, len(s.notifications)),
		stats:         make(map[statKey]model.DailyStat, len(s.stats)),

		lastID: s.lastID,
	}
	for k, v := range s.users {
		next.users[k] = v
	}
	for k, v := range s.settings {
		next.settings[k] = v
	}
	for k, v := range s.campaigns {
		next.campaigns[k] = v
	}
	for k, v := range s.enrollments {
		next.enrollments[k] = v
	}
	for k, v := range s.requests {
		next.requests[k] = v
	}
	for k, v := range s.referrals {
		next.referrals[k] = v
	}
	for k, v := range s.notifications {
		next.notifications[k] = v
	}
	for k, v := range s.stats {
		next.stats[k] = v
	}
	return next
}

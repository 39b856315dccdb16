//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"loyalty-subscription-core/internal/domain"
	"loyalty-subscription-core/internal/domain/model"
	"loyalty-subscription-core/internal/domain/ports/repository"
)

// newTestLogger creates a silent logger for tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(nil)
	return &logger
}

// snapshotter lets the mock transaction manager undo writes on rollback.
type snapshotter interface {
	snapshot() func()
}

// MockTxManager serializes transactions with a mutex (standing in for row
// locks) and restores repo state when the callback fails (standing in for
// rollback).
type MockTxManager struct {
	mu    sync.Mutex
	repos []snapshotter
}

func NewMockTxManager(repos ...snapshotter) *MockTxManager {
	return &MockTxManager{repos: repos}
}

func (m *MockTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	undos := make([]func(), 0, len(m.repos))
	for _, r := range m.repos {
		undos = append(undos, r.snapshot())
	}
	if err := fn(ctx, struct{}{}); err != nil {
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
		return err
	}
	return nil
}

// --- code store mock ---

type memCodeRepo struct {
	mu     sync.RWMutex
	byCode map[string]*model.ValidationCode

	SaveFunc func(ctx context.Context, tx repository.Tx, code *model.ValidationCode) error
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{byCode: make(map[string]*model.ValidationCode)}
}

func (m *memCodeRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*model.ValidationCode, len(m.byCode))
	for k, v := range m.byCode {
		cp := *v
		saved[k] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.byCode = saved
	}
}

func (m *memCodeRepo) Save(ctx context.Context, tx repository.Tx, code *model.ValidationCode) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, code)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byCode[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	m.byCode[code.Code] = &cp
	return nil
}

func (m *memCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.ValidationCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.byCode[code]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCodeRepo) FindByCodeForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.ValidationCode, error) {
	return m.FindByCode(ctx, tx, code)
}

func (m *memCodeRepo) MarkConsumed(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byCode {
		if c.ID == id {
			if c.Consumed {
				return domain.ErrCodeConsumed
			}
			c.Consumed = true
			t := at
			c.ConsumedAt = &t
			return nil
		}
	}
	return domain.ErrCodeNotFound
}

func (m *memCodeRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, c := range m.byCode {
		if now.After(c.ExpiresAt) {
			delete(m.byCode, k)
			n++
		}
	}
	return n, nil
}

func (m *memCodeRepo) get(code string) *model.ValidationCode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.byCode[code]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// --- ledger mock ---

type memLedgerRepo struct {
	mu          sync.RWMutex
	subs        map[string]*model.UserSubscription
	catalog     map[string]*model.Subscription
	places      map[string]*model.Place
	subscribers map[string]*model.Subscriber

	FindPlaceCalls int

	FindSubError     error // To simulate storage failures
	FindCatalogError error
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{
		subs:        make(map[string]*model.UserSubscription),
		catalog:     make(map[string]*model.Subscription),
		places:      make(map[string]*model.Place),
		subscribers: make(map[string]*model.Subscriber),
	}
}

func (m *memLedgerRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	saved := make(map[string]*model.UserSubscription, len(m.subs))
	for k, v := range m.subs {
		cp := *v
		if v.RemainingVisits != nil {
			n := *v.RemainingVisits
			cp.RemainingVisits = &n
		}
		saved[k] = &cp
	}
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.subs = saved
	}
}

func (m *memLedgerRepo) putSub(s *model.UserSubscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs[s.ID] = s
}

func (m *memLedgerRepo) putCatalog(s *model.Subscription)  { m.catalog[s.ID] = s }
func (m *memLedgerRepo) putPlace(p *model.Place)           { m.places[p.ID] = p }
func (m *memLedgerRepo) putSubscriber(s *model.Subscriber) { m.subscribers[s.ID] = s }

func (m *memLedgerRepo) FindUserSubscriptionByID(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	if m.FindSubError != nil {
		return nil, m.FindSubError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	if s.RemainingVisits != nil {
		n := *s.RemainingVisits
		cp.RemainingVisits = &n
	}
	return &cp, nil
}

func (m *memLedgerRepo) FindUserSubscriptionForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	return m.FindUserSubscriptionByID(ctx, tx, id)
}

func (m *memLedgerRepo) DecrementRemainingVisits(ctx context.Context, tx repository.Tx, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if s.RemainingVisits == nil || *s.RemainingVisits <= 0 {
		return 0, domain.ErrNoVisitsRemaining
	}
	*s.RemainingVisits--
	return *s.RemainingVisits, nil
}

func (m *memLedgerRepo) FindSubscriptionByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	if m.FindCatalogError != nil {
		return nil, m.FindCatalogError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.catalog[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *memLedgerRepo) FindPlaceByID(ctx context.Context, tx repository.Tx, id string) (*model.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindPlaceCalls++
	p, ok := m.places[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (m *memLedgerRepo) FindSubscriberByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscriber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subscribers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (m *memLedgerRepo) remaining(id string) *int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[id]
	if !ok || s.RemainingVisits == nil {
		return nil
	}
	n := *s.RemainingVisits
	return &n
}

// --- audit trail mock ---

type memRecordRepo struct {
	mu      sync.RWMutex
	records []*model.ValidationRecord

	SaveFunc func(ctx context.Context, tx repository.Tx, rec *model.ValidationRecord) error
}

func newMemRecordRepo() *memRecordRepo { return &memRecordRepo{} }

func (m *memRecordRepo) snapshot() func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.records)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.records = m.records[:n]
	}
}

func (m *memRecordRepo) Save(ctx context.Context, tx repository.Tx, rec *model.ValidationRecord) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memRecordRepo) ListBySubscriber(ctx context.Context, tx repository.Tx, subscriberID string, subscriptionID *string) ([]*model.ValidationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.ValidationRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		r := m.records[i]
		if r.SubscriberID != subscriberID {
			continue
		}
		if subscriptionID != nil && r.SubscriptionID != *subscriptionID {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRecordRepo) CountBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.records {
		if r.SubscriptionID == subscriptionID {
			n++
		}
	}
	return n, nil
}

// --- display-name cache mock ---

type memLedgerCache struct {
	mu          sync.RWMutex
	places      map[string]*repository.DisplayName
	subscribers map[string]*repository.DisplayName
}

func newMemLedgerCache() *memLedgerCache {
	return &memLedgerCache{
		places:      make(map[string]*repository.DisplayName),
		subscribers: make(map[string]*repository.DisplayName),
	}
}

func (m *memLedgerCache) GetPlaceName(ctx context.Context, placeID string) (*repository.DisplayName, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.places[placeID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (m *memLedgerCache) SetPlaceName(ctx context.Context, d *repository.DisplayName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.places[d.ID] = d
	return nil
}

func (m *memLedgerCache) GetSubscriberName(ctx context.Context, subscriberID string) (*repository.DisplayName, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.subscribers[subscriberID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return d, nil
}

func (m *memLedgerCache) SetSubscriberName(ctx context.Context, d *repository.DisplayName) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers[d.ID] = d
	return nil
}

// --- shared fixtures ---

func intPtr(n int) *int { return &n }

type fixture struct {
	codes   *memCodeRepo
	ledger  *memLedgerRepo
	records *memRecordRepo
	tm      *MockTxManager
	sub     *model.UserSubscription
}

// newFixture seeds one place, subscriber, catalog subscription and an active
// user subscription with the given quota (nil = unlimited).
func newFixture(remaining *int) *fixture {
	codes := newMemCodeRepo()
	ledger := newMemLedgerRepo()
	records := newMemRecordRepo()

	ledger.putPlace(&model.Place{ID: "place-1", Name: "Cafe Central"})
	ledger.putSubscriber(&model.Subscriber{ID: "subscriber-1", Name: "Dana Ortiz"})
	var quota *int
	if remaining != nil {
		q := *remaining
		quota = &q
	}
	ledger.putCatalog(&model.Subscription{
		ID: "sub-1", PlaceID: "place-1", Name: "Lunch Club",
		PriceCents: 2990, VisitsPerMonth: quota, BillingPeriod: "monthly",
	})
	now := time.Now()
	sub := &model.UserSubscription{
		ID:              "us-1",
		SubscriberID:    "subscriber-1",
		SubscriptionID:  "sub-1",
		PlaceID:         "place-1",
		Status:          model.UserSubscriptionStatusActive,
		StartDate:       now.Add(-24 * time.Hour),
		EndDate:         now.Add(30 * 24 * time.Hour),
		RemainingVisits: remaining,
		IsActive:        true,
	}
	ledger.putSub(sub)

	return &fixture{
		codes:   codes,
		ledger:  ledger,
		records: records,
		tm:      NewMockTxManager(codes, ledger, records),
		sub:     sub,
	}
}

// issueCode plants an unconsumed code for the fixture subscription.
func (f *fixture) issueCode(code string, ttl time.Duration) *model.ValidationCode {
	c, _ := model.NewValidationCode("code-"+code, code, f.sub.ID, time.Now(), ttl)
	_ = f.codes.Save(context.Background(), repository.NoTX, c)
	return c
}

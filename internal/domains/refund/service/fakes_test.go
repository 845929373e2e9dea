package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	"ecommerce-backend/internal/domains/fulfillment"
	ordermodel "ecommerce-backend/internal/domains/order/model"
	"ecommerce-backend/internal/domains/refund/model"
	usermodel "ecommerce-backend/internal/domains/user/model"
)

// =====================================================
// REFUND REPOSITORY
// =====================================================

type fakeRefundRepo struct {
	mu        sync.Mutex
	refunds   map[uuid.UUID]*model.Refund
	createErr error
	saveErr   error // returned once by the next SaveStatusWithTx
	saves     int
}

func newFakeRefundRepo() *fakeRefundRepo {
	return &fakeRefundRepo{refunds: make(map[uuid.UUID]*model.Refund)}
}

func cloneRefund(r *model.Refund) *model.Refund {
	c := *r
	c.Lines = make([]*model.RefundLine, 0, len(r.Lines))
	for _, l := range r.Lines {
		lc := *l
		c.Lines = append(c.Lines, &lc)
	}
	return &c
}

func (f *fakeRefundRepo) CreateWithTx(_ context.Context, _ pgx.Tx, refund *model.Refund) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.refunds[refund.ID] = cloneRefund(refund)
	return nil
}

func (f *fakeRefundRepo) GetByIDForUpdate(ctx context.Context, _ pgx.Tx, id uuid.UUID) (*model.Refund, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeRefundRepo) SaveStatusWithTx(_ context.Context, _ pgx.Tx, refund *model.Refund) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if err := f.saveErr; err != nil {
		f.saveErr = nil
		return err
	}
	f.refunds[refund.ID] = cloneRefund(refund)
	return nil
}

func (f *fakeRefundRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.refunds[id]
	if !ok {
		return nil, model.NewRefundNotFoundError(id)
	}
	return cloneRefund(r), nil
}

func (f *fakeRefundRepo) ActiveRefundedLineIDs(_ context.Context, orderLineIDs []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(orderLineIDs))
	for _, id := range orderLineIDs {
		wanted[id] = true
	}
	covered := make(map[uuid.UUID]struct{})
	for _, r := range f.refunds {
		for _, l := range r.Lines {
			if wanted[l.OrderLineID] && l.Status != model.RefundLineStatusDenied {
				covered[l.OrderLineID] = struct{}{}
			}
		}
	}
	return covered, nil
}

func (f *fakeRefundRepo) snapshot() map[uuid.UUID]*model.Refund {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := make(map[uuid.UUID]*model.Refund, len(f.refunds))
	for id, r := range f.refunds {
		snap[id] = cloneRefund(r)
	}
	return snap
}

func (f *fakeRefundRepo) restore(snap map[uuid.UUID]*model.Refund) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = snap
}

// stored returns the persisted copy of a refund.
func (f *fakeRefundRepo) stored(id uuid.UUID) *model.Refund {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refunds[id]
}

// =====================================================
// TRANSACTION MANAGER
// =====================================================

// fakeTxManager rolls the refund repository back to its state at the start
// of the transaction when fn fails or the commit fails.
type fakeTxManager struct {
	repo      *fakeRefundRepo
	commitErr error // returned once by the next commit
	calls     int
	rollbacks int
}

func (m *fakeTxManager) WithTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	m.calls++
	snap := m.repo.snapshot()

	err := fn(nil)
	if err == nil && m.commitErr != nil {
		err, m.commitErr = m.commitErr, nil
	}
	if err != nil {
		m.rollbacks++
		m.repo.restore(snap)
		return err
	}
	return nil
}

// =====================================================
// ORDER + USER REPOSITORIES
// =====================================================

type fakeOrderRepo struct {
	orders []*ordermodel.Order
}

func (f *fakeOrderRepo) ListByUserWithLines(_ context.Context, userID uuid.UUID) ([]*ordermodel.Order, error) {
	out := make([]*ordermodel.Order, 0)
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*ordermodel.Order, error) {
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, ordermodel.ErrOrderNotFound
}

type fakeUserRepo struct {
	users []*usermodel.User
}

func (f *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*usermodel.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, usermodel.ErrUserNotFound
}

func (f *fakeUserRepo) FindByIDUncached(ctx context.Context, id uuid.UUID) (*usermodel.User, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeUserRepo) FindByUsername(_ context.Context, username string) (*usermodel.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, usermodel.ErrUserNotFound
}

// =====================================================
// SIDE EFFECT COLLABORATORS
// =====================================================

type fakeRevoker struct {
	mu      sync.Mutex
	calls   []fulfillment.RevocationRequest
	failFor map[string]bool // course ids
}

func (f *fakeRevoker) RevokeLine(_ context.Context, req fulfillment.RevocationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.failFor[req.CourseID] {
		return fulfillment.ErrRevocationFailed
	}
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: uuid.NewString(), Queue: "refunds"}, nil
}

var errRedisDown = errors.New("redis: connection refused")

package entitlement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lifelessons/backend/models"
	"lifelessons/backend/store"
	"lifelessons/backend/store/storetest"
	"lifelessons/backend/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	store   *store.Store
	metrics *utils.Metrics
	handler *Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.New(storetest.Open(t))
	m := utils.NewMetrics(prometheus.NewRegistry())
	return &fixture{
		store:   s,
		metrics: m,
		handler: NewHandler(s.Users, s.Payments, m, zap.NewNop()),
	}
}

func (f *fixture) user(t *testing.T, uid string) *models.User {
	t.Helper()
	u := &models.User{UID: uid, Email: uid + "@example.com"}
	require.NoError(t, f.store.Users.Create(context.Background(), u))
	return u
}

func (f *fixture) premium(t *testing.T, id uint) bool {
	t.Helper()
	u, err := f.store.Users.FindByID(context.Background(), id)
	require.NoError(t, err)
	return u.IsPremium
}

func TestApplyByInternalID(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "uid-1")

	outcome, err := f.handler.ApplyPaymentConfirmation(context.Background(), "evt_1", LookupKeys{UserID: u.ID, UID: u.UID})
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.True(t, f.premium(t, u.ID))

	ev, err := f.store.Payments.Find(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.Equal(t, string(Applied), ev.Outcome)
	require.NotNil(t, ev.UserID)
	assert.Equal(t, u.ID, *ev.UserID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.EntitlementCounter(string(Applied))))
}

func TestApplyBySubjectIDFallback(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "uid-1")

	outcome, err := f.handler.ApplyPaymentConfirmation(context.Background(), "evt_1", LookupKeys{UID: u.UID})
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.True(t, f.premium(t, u.ID))
}

func TestApplyFallsBackWhenInternalIDUnknown(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "uid-1")

	outcome, err := f.handler.ApplyPaymentConfirmation(context.Background(), "evt_1", LookupKeys{UserID: 999, UID: u.UID})
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.True(t, f.premium(t, u.ID))
}

func TestRedeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "uid-1")
	keys := LookupKeys{UserID: u.ID, UID: u.UID}

	first, err := f.handler.ApplyPaymentConfirmation(context.Background(), "evt_1", keys)
	require.NoError(t, err)
	second, err := f.handler.ApplyPaymentConfirmation(context.Background(), "evt_1", keys)
	require.NoError(t, err)

	assert.Equal(t, Applied, first)
	assert.Equal(t, AlreadyPremium, second)
	assert.True(t, f.premium(t, u.ID))

	ev, err := f.store.Payments.Find(context.Background(), "evt_1")
	require.NoError(t, err)
	assert.Equal(t, string(Applied), ev.Outcome)
}

func TestAlreadyPremiumStaysPremium(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "uid-1")
	_, err := f.store.Users.MarkPremium(context.Background(), u.ID)
	require.NoError(t, err)

	for _, ref := range []string{"evt_a", "evt_a"} {
		outcome, err := f.handler.ApplyPaymentConfirmation(context.Background(), ref, LookupKeys{UserID: u.ID})
		require.NoError(t, err)
		assert.Equal(t, AlreadyPremium, outcome)
		assert.True(t, f.premium(t, u.ID))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.EntitlementCounter(string(AlreadyPremium))))
}

func TestConcurrentDeliveriesConverge(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "uid-1")

	var wg sync.WaitGroup
	outcomes := make([]Outcome, 6)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.handler.ApplyPaymentConfirmation(context.Background(), "evt_dup", LookupKeys{UserID: u.ID})
			assert.NoError(t, err)
			outcomes[i] = out
		}(i)
	}
	wg.Wait()

	applied := 0
	for _, out := range outcomes {
		if out == Applied {
			applied++
		} else {
			assert.Equal(t, AlreadyPremium, out)
		}
	}
	assert.Equal(t, 1, applied)
	assert.True(t, f.premium(t, u.ID))
}

func TestUnresolvedAccountIsAcknowledged(t *testing.T) {
	f := newFixture(t)

	for _, keys := range []LookupKeys{{UserID: 404}, {UID: "ghost"}, {}} {
		outcome, err := f.handler.ApplyPaymentConfirmation(context.Background(), "evt_ghost", keys)
		require.NoError(t, err)
		assert.Equal(t, UnresolvedAccount, outcome)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.EntitlementCounter(string(UnresolvedAccount))))

	ev, err := f.store.Payments.Find(context.Background(), "evt_ghost")
	require.NoError(t, err)
	assert.Equal(t, string(UnresolvedAccount), ev.Outcome)
	assert.Nil(t, ev.UserID)
}

func TestMismatchedKeysAreUnresolved(t *testing.T) {
	f := newFixture(t)
	a := f.user(t, "uid-a")
	f.user(t, "uid-b")

	outcome, err := f.handler.ApplyPaymentConfirmation(context.Background(), "evt_1", LookupKeys{UserID: a.ID, UID: "uid-b"})
	require.NoError(t, err)
	assert.Equal(t, UnresolvedAccount, outcome)
	assert.False(t, f.premium(t, a.ID))
}

type brokenAccounts struct{}

func (brokenAccounts) FindByID(context.Context, uint) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func (brokenAccounts) FindByUID(context.Context, string) (*models.User, error) {
	return nil, errors.New("connection reset")
}

func (brokenAccounts) MarkPremium(context.Context, uint) (bool, error) {
	return false, errors.New("connection reset")
}

func TestStoreFailureIsReturned(t *testing.T) {
	h := NewHandler(brokenAccounts{}, nil, nil, zap.NewNop())

	_, err := h.ApplyPaymentConfirmation(context.Background(), "evt_1", LookupKeys{UserID: 1})
	assert.Error(t, err)
}

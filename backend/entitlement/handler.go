// Package entitlement applies confirmed payments to accounts. The only
// transition is free -> premium; repeats are no-ops.
package entitlement

import (
	"context"
	"errors"
	"fmt"

	"lifelessons/backend/models"
	"lifelessons/backend/store"

	"go.uber.org/zap"
)

type Outcome string

const (
	Applied           Outcome = "applied"
	AlreadyPremium    Outcome = "already_premium"
	UnresolvedAccount Outcome = "unresolved"
)

// LookupKeys identify the account a payment was made for. Either may be
// empty, but not both.
type LookupKeys struct {
	UserID uint
	UID    string
}

func (k LookupKeys) Empty() bool {
	return k.UserID == 0 && k.UID == ""
}

type Accounts interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	MarkPremium(ctx context.Context, id uint) (bool, error)
}

type EventLog interface {
	Record(ctx context.Context, event *models.PaymentEvent) error
}

type Observer interface {
	EntitlementOutcome(outcome string)
}

type Handler struct {
	accounts Accounts
	events   EventLog
	observer Observer
	logger   *zap.Logger
}

func NewHandler(accounts Accounts, events EventLog, observer Observer, logger *zap.Logger) *Handler {
	return &Handler{accounts: accounts, events: events, observer: observer, logger: logger}
}

// ApplyPaymentConfirmation upgrades the referenced account. An account that
// cannot be resolved is reported as UnresolvedAccount with a nil error so the
// event can be acknowledged. A non-nil error means the store failed and the
// event should be redelivered.
func (h *Handler) ApplyPaymentConfirmation(ctx context.Context, eventRef string, keys LookupKeys) (Outcome, error) {
	log := h.logger.With(zap.String("event_id", eventRef), zap.Uint("key_user_id", keys.UserID), zap.String("key_uid", keys.UID))

	user, err := h.resolve(ctx, keys)
	if errors.Is(err, store.ErrNotFound) {
		log.Warn("payment confirmation does not match any account")
		h.finish(ctx, eventRef, nil, UnresolvedAccount)
		return UnresolvedAccount, nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve account: %w", err)
	}

	if user.IsPremium {
		log.Info("payment confirmation for premium account ignored", zap.Uint("user_id", user.ID))
		h.finish(ctx, eventRef, &user.ID, AlreadyPremium)
		return AlreadyPremium, nil
	}

	changed, err := h.accounts.MarkPremium(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("mark premium: %w", err)
	}
	if !changed {
		// a concurrent delivery got there first
		h.finish(ctx, eventRef, &user.ID, AlreadyPremium)
		return AlreadyPremium, nil
	}

	log.Info("account upgraded to premium", zap.Uint("user_id", user.ID))
	h.finish(ctx, eventRef, &user.ID, Applied)
	return Applied, nil
}

// resolve prefers the internal id and falls back to the subject id. When
// both keys are present they must name the same account.
func (h *Handler) resolve(ctx context.Context, keys LookupKeys) (*models.User, error) {
	if keys.UserID != 0 {
		user, err := h.accounts.FindByID(ctx, keys.UserID)
		switch {
		case err == nil:
			if keys.UID != "" && user.UID != keys.UID {
				h.logger.Warn("payment lookup keys disagree",
					zap.Uint("user_id", user.ID), zap.String("uid", user.UID), zap.String("key_uid", keys.UID))
				return nil, store.ErrNotFound
			}
			return user, nil
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}
	if keys.UID != "" {
		return h.accounts.FindByUID(ctx, keys.UID)
	}
	return nil, store.ErrNotFound
}

func (h *Handler) finish(ctx context.Context, eventRef string, userID *uint, outcome Outcome) {
	if h.observer != nil {
		h.observer.EntitlementOutcome(string(outcome))
	}
	if h.events == nil || eventRef == "" {
		return
	}
	err := h.events.Record(ctx, &models.PaymentEvent{EventID: eventRef, UserID: userID, Outcome: string(outcome)})
	if err != nil {
		h.logger.Error("failed to record payment event", zap.String("event_id", eventRef), zap.Error(err))
	}
}

package store

import (
	"context"

	"lifelessons/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentEventStore struct {
	db *gorm.DB
}

func NewPaymentEventStore(db *gorm.DB) *PaymentEventStore {
	return &PaymentEventStore{db: db}
}

// Record stores the outcome of a payment event. The first outcome recorded
// for an event id wins; later deliveries are ignored.
func (s *PaymentEventStore) Record(ctx context.Context, event *models.PaymentEvent) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(event).Error
	return translate(err)
}

func (s *PaymentEventStore) Find(ctx context.Context, eventID string) (*models.PaymentEvent, error) {
	var event models.PaymentEvent
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error; err != nil {
		return nil, translate(err)
	}
	return &event, nil
}

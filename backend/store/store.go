package store

import (
	"errors"
	"fmt"

	"lifelessons/backend/config"
	"lifelessons/backend/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a unique index violation.
	ErrConflict = errors.New("record already exists")
)

// Store bundles the repositories handed to the core and the HTTP layer.
type Store struct {
	DB       *gorm.DB
	Users    *UserStore
	Lessons  *LessonStore
	Social   *SocialStore
	Payments *PaymentEventStore
}

func New(db *gorm.DB) *Store {
	return &Store{
		DB:       db,
		Users:    NewUserStore(db),
		Lessons:  NewLessonStore(db),
		Social:   NewSocialStore(db),
		Payments: NewPaymentEventStore(db),
	}
}

// InitDB connects to Postgres and migrates the schema.
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
	)
	return Open(postgres.Open(dsn))
}

func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

func paginate(page, limit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

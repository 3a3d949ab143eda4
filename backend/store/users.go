package store

import (
	"context"

	"lifelessons/backend/models"

	"gorm.io/gorm"
)

// UserStore is the user directory: accounts keyed by internal id and by
// the identity provider's subject id.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) FindByUID(ctx context.Context, uid string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

// Create inserts a new account. A uid or email collision returns ErrConflict.
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	return translate(s.db.WithContext(ctx).Create(user).Error)
}

func (s *UserStore) UpdateProfile(ctx context.Context, id uint, displayName, photoURL string) (*models.User, error) {
	updates := map[string]interface{}{}
	if displayName != "" {
		updates["display_name"] = displayName
	}
	if photoURL != "" {
		updates["photo_url"] = photoURL
	}
	if len(updates) > 0 {
		res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
	}
	return s.FindByID(ctx, id)
}

// MarkPremium flips is_premium from false to true. It reports whether this
// call performed the transition; false means the account was already premium.
// Nothing in this package ever clears the flag.
func (s *UserStore) MarkPremium(ctx context.Context, id uint) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_premium = ?", id, false).
		Update("is_premium", true)
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *UserStore) SetRole(ctx context.Context, id uint, role string) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindByID(ctx, id)
}

func (s *UserStore) List(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	page, limit = paginate(page, limit, 100)

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return users, total, nil
}

// Counts returns the number of accounts and how many of them are premium.
func (s *UserStore) Counts(ctx context.Context) (total, premium int64, err error) {
	db := s.db.WithContext(ctx).Model(&models.User{})
	if err = db.Count(&total).Error; err != nil {
		return 0, 0, translate(err)
	}
	if err = s.db.WithContext(ctx).Model(&models.User{}).Where("is_premium = ?", true).Count(&premium).Error; err != nil {
		return 0, 0, translate(err)
	}
	return total, premium, nil
}

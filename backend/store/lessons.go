package store

import (
	"context"
	"strings"

	"lifelessons/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SortNewest    = "newest"
	SortMostLiked = "most_liked"
)

// LessonFilter narrows a lesson listing. Empty fields do not filter.
type LessonFilter struct {
	Visibility  string
	AccessLevel string
	Category    string
	Tone        string
	Search      string
	CreatorID   uint
	Sort        string
	Page        int
	Limit       int
}

type LessonStore struct {
	db *gorm.DB
}

func NewLessonStore(db *gorm.DB) *LessonStore {
	return &LessonStore{db: db}
}

func (s *LessonStore) Create(ctx context.Context, lesson *models.Lesson) error {
	lesson.LikesCount = 0
	return translate(s.db.WithContext(ctx).Create(lesson).Error)
}

func (s *LessonStore) Get(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := s.db.WithContext(ctx).Preload("Creator").First(&lesson, id).Error; err != nil {
		return nil, translate(err)
	}
	return &lesson, nil
}

func (s *LessonStore) List(ctx context.Context, f LessonFilter) ([]models.Lesson, int64, error) {
	page, limit := paginate(f.Page, f.Limit, 50)

	query := s.db.WithContext(ctx).Model(&models.Lesson{})
	if f.Visibility != "" {
		query = query.Where("visibility = ?", f.Visibility)
	}
	if f.AccessLevel != "" {
		query = query.Where("access_level = ?", f.AccessLevel)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Tone != "" {
		query = query.Where("emotional_tone = ?", f.Tone)
	}
	if f.CreatorID != 0 {
		query = query.Where("creator_id = ?", f.CreatorID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		query = query.Where("LOWER(title) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	switch f.Sort {
	case SortMostLiked:
		query = query.Order("likes_count DESC").Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var lessons []models.Lesson
	err := query.Preload("Creator").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&lessons).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return lessons, total, nil
}

// Update applies column changes and returns the fresh row. Likes and
// ownership columns are never accepted here.
func (s *LessonStore) Update(ctx context.Context, id uint, changes map[string]interface{}) (*models.Lesson, error) {
	for _, col := range []string{"id", "likes_count", "creator_id", "creator_uid", "created_at"} {
		delete(changes, col)
	}
	if len(changes) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Lesson{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the lesson together with every like, comment, favorite
// and report that references it.
func (s *LessonStore) Delete(ctx context.Context, id uint) error {
	return translate(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.Select("id").First(&lesson, id).Error; err != nil {
			return err
		}
		for _, dependent := range []interface{}{
			&models.LessonLike{},
			&models.Comment{},
			&models.Favorite{},
			&models.Report{},
		} {
			if err := tx.Where("lesson_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Lesson{}, id).Error
	}))
}

// ToggleLike adds uid to the lesson's likes set or removes it, then
// recomputes likes_count from the set while holding the lesson row lock.
func (s *LessonStore) ToggleLike(ctx context.Context, lessonID uint, uid string) (liked bool, count int, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&lesson, lessonID).Error; err != nil {
			return err
		}

		res := tx.Where("lesson_id = ? AND uid = ?", lessonID, uid).Delete(&models.LessonLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.LessonLike{LessonID: lessonID, UID: uid}).Error; err != nil {
				return err
			}
			liked = true
		}

		var n int64
		if err := tx.Model(&models.LessonLike{}).Where("lesson_id = ?", lessonID).Count(&n).Error; err != nil {
			return err
		}
		count = int(n)
		return tx.Model(&models.Lesson{}).Where("id = ?", lessonID).UpdateColumn("likes_count", count).Error
	})
	if err != nil {
		return false, 0, translate(err)
	}
	return liked, count, nil
}

func (s *LessonStore) HasLiked(ctx context.Context, lessonID uint, uid string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.LessonLike{}).
		Where("lesson_id = ? AND uid = ?", lessonID, uid).
		Count(&n).Error
	return n > 0, translate(err)
}

func (s *LessonStore) LikeUIDs(ctx context.Context, lessonID uint) ([]string, error) {
	var uids []string
	err := s.db.WithContext(ctx).Model(&models.LessonLike{}).
		Where("lesson_id = ?", lessonID).
		Order("id").
		Pluck("uid", &uids).Error
	return uids, translate(err)
}

func (s *LessonStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Lesson{}).Count(&n).Error
	return n, translate(err)
}

package store

import (
	"context"
	"errors"

	"lifelessons/backend/models"

	"gorm.io/gorm"
)

// SocialStore holds the satellites of a lesson: comments, favorites, reports.
type SocialStore struct {
	db *gorm.DB
}

func NewSocialStore(db *gorm.DB) *SocialStore {
	return &SocialStore{db: db}
}

func (s *SocialStore) AddComment(ctx context.Context, comment *models.Comment) error {
	return translate(s.db.WithContext(ctx).Create(comment).Error)
}

func (s *SocialStore) ListComments(ctx context.Context, lessonID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("lesson_id = ?", lessonID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, translate(err)
}

// ToggleFavorite removes the (user, lesson) favorite if present, otherwise
// creates it. It reports whether the lesson is a favorite afterwards.
func (s *SocialStore) ToggleFavorite(ctx context.Context, userID, lessonID uint) (bool, error) {
	var favorited bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND lesson_id = ?", userID, lessonID).Delete(&models.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		if err := tx.Create(&models.Favorite{UserID: userID, LessonID: lessonID}).Error; err != nil {
			return err
		}
		favorited = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent toggle created the same row
		return true, nil
	}
	if err != nil {
		return false, translate(err)
	}
	return favorited, nil
}

func (s *SocialStore) IsFavorite(ctx context.Context, userID, lessonID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		Count(&n).Error
	return n > 0, translate(err)
}

func (s *SocialStore) ListFavorites(ctx context.Context, userID uint) ([]models.Favorite, error) {
	var favorites []models.Favorite
	err := s.db.WithContext(ctx).
		Preload("Lesson").
		Preload("Lesson.Creator").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&favorites).Error
	return favorites, translate(err)
}

func (s *SocialStore) CreateReport(ctx context.Context, report *models.Report) error {
	if report.Status == "" {
		report.Status = models.ReportPending
	}
	return translate(s.db.WithContext(ctx).Create(report).Error)
}

func (s *SocialStore) ListReports(ctx context.Context, status string) ([]models.Report, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var reports []models.Report
	err := query.Find(&reports).Error
	return reports, translate(err)
}

func (s *SocialStore) DeleteReport(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Report{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SocialStore) CountReports(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Report{}).Count(&n).Error
	return n, translate(err)
}

// CountByLesson returns how many comments, favorites and reports reference
// the lesson.
func (s *SocialStore) CountByLesson(ctx context.Context, lessonID uint) (comments, favorites, reports int64, err error) {
	db := s.db.WithContext(ctx)
	if err = db.Model(&models.Comment{}).Where("lesson_id = ?", lessonID).Count(&comments).Error; err != nil {
		return 0, 0, 0, translate(err)
	}
	if err = db.Model(&models.Favorite{}).Where("lesson_id = ?", lessonID).Count(&favorites).Error; err != nil {
		return 0, 0, 0, translate(err)
	}
	if err = db.Model(&models.Report{}).Where("lesson_id = ?", lessonID).Count(&reports).Error; err != nil {
		return 0, 0, 0, translate(err)
	}
	return comments, favorites, reports, nil
}

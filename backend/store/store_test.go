package store_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"lifelessons/backend/models"
	"lifelessons/backend/store"
	"lifelessons/backend/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(storetest.Open(t))
}

func createUser(t *testing.T, s *store.Store, uid string) *models.User {
	t.Helper()
	u := &models.User{UID: uid, Email: uid + "@example.com", DisplayName: uid}
	require.NoError(t, s.Users.Create(context.Background(), u))
	return u
}

func createLesson(t *testing.T, s *store.Store, owner *models.User, visibility, tier string) *models.Lesson {
	t.Helper()
	l := &models.Lesson{
		Title:            "Lesson by " + owner.UID,
		ShortDescription: "short",
		Category:         "Mindset",
		EmotionalTone:    "Gratitude",
		Visibility:       visibility,
		AccessLevel:      tier,
		CreatorID:        owner.ID,
		CreatorUID:       owner.UID,
	}
	require.NoError(t, s.Lessons.Create(context.Background(), l))
	return l
}

func TestUserUniqueness(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	createUser(t, s, "uid-1")

	err := s.Users.Create(ctx, &models.User{UID: "uid-1", Email: "other@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	err = s.Users.Create(ctx, &models.User{UID: "uid-2", Email: "uid-1@example.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	_, err = s.Users.FindByUID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkPremiumIsMonotonic(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := createUser(t, s, "uid-1")

	changed, err := s.Users.MarkPremium(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = s.Users.MarkPremium(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	// neither profile sync nor role changes touch the flag
	_, err = s.Users.UpdateProfile(ctx, u.ID, "New Name", "")
	require.NoError(t, err)
	_, err = s.Users.SetRole(ctx, u.ID, models.RoleAdmin)
	require.NoError(t, err)

	got, err := s.Users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsPremium)
	assert.Equal(t, "New Name", got.DisplayName)
	assert.Equal(t, models.RoleAdmin, got.Role)

	total, premium, err := s.Users.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(1), premium)
}

func TestToggleLikeKeepsCountInSync(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	lesson := createLesson(t, s, owner, models.VisibilityPublic, models.AccessFree)

	likers := []string{"a", "b", "c", "a", "b", "a", "d", "c"}
	members := map[string]bool{}
	for _, uid := range likers {
		liked, count, err := s.Lessons.ToggleLike(ctx, lesson.ID, uid)
		require.NoError(t, err)

		members[uid] = !members[uid]
		assert.Equal(t, members[uid], liked)

		expected := 0
		for _, in := range members {
			if in {
				expected++
			}
		}
		assert.Equal(t, expected, count)

		uids, err := s.Lessons.LikeUIDs(ctx, lesson.ID)
		require.NoError(t, err)
		stored, err := s.Lessons.Get(ctx, lesson.ID)
		require.NoError(t, err)
		assert.Equal(t, len(uids), stored.LikesCount)
	}

	liked, err := s.Lessons.HasLiked(ctx, lesson.ID, "d")
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestToggleLikeConcurrent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	lesson := createLesson(t, s, owner, models.VisibilityPublic, models.AccessFree)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := s.Lessons.ToggleLike(ctx, lesson.ID, fmt.Sprintf("uid-%d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	stored, err := s.Lessons.Get(ctx, lesson.ID)
	require.NoError(t, err)
	uids, err := s.Lessons.LikeUIDs(ctx, lesson.ID)
	require.NoError(t, err)
	assert.Len(t, uids, 10)
	assert.Equal(t, 10, stored.LikesCount)
}

func TestToggleLikeMissingLesson(t *testing.T) {
	s := newStore(t)
	_, _, err := s.Lessons.ToggleLike(context.Background(), 999, "uid")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestFavoriteAtMostOnce(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	fan := createUser(t, s, "fan")
	lesson := createLesson(t, s, owner, models.VisibilityPublic, models.AccessFree)

	for i := 0; i < 5; i++ {
		favorited, err := s.Social.ToggleFavorite(ctx, fan.ID, lesson.ID)
		require.NoError(t, err)
		assert.Equal(t, i%2 == 0, favorited)

		var n int64
		require.NoError(t, s.DB.Model(&models.Favorite{}).Where("user_id = ? AND lesson_id = ?", fan.ID, lesson.ID).Count(&n).Error)
		assert.LessOrEqual(t, n, int64(1))
	}

	favorites, err := s.Social.ListFavorites(ctx, fan.ID)
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, lesson.ID, favorites[0].Lesson.ID)

	// the unique index backs the toggle
	err = s.DB.Create(&models.Favorite{UserID: fan.ID, LessonID: lesson.ID}).Error
	assert.Error(t, err)
}

func TestDeleteLessonCascades(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	fan := createUser(t, s, "fan")
	doomed := createLesson(t, s, owner, models.VisibilityPublic, models.AccessFree)
	kept := createLesson(t, s, owner, models.VisibilityPublic, models.AccessFree)

	for _, l := range []*models.Lesson{doomed, kept} {
		require.NoError(t, s.Social.AddComment(ctx, &models.Comment{LessonID: l.ID, UserID: fan.ID, Text: "nice"}))
		_, err := s.Social.ToggleFavorite(ctx, fan.ID, l.ID)
		require.NoError(t, err)
		require.NoError(t, s.Social.CreateReport(ctx, &models.Report{LessonID: l.ID, ReportedBy: fan.ID, Reason: "spam"}))
		_, _, err = s.Lessons.ToggleLike(ctx, l.ID, fan.UID)
		require.NoError(t, err)
	}

	require.NoError(t, s.Lessons.Delete(ctx, doomed.ID))

	_, err := s.Lessons.Get(ctx, doomed.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	comments, favorites, reports, err := s.Social.CountByLesson(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Zero(t, comments)
	assert.Zero(t, favorites)
	assert.Zero(t, reports)
	uids, err := s.Lessons.LikeUIDs(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Empty(t, uids)

	comments, favorites, reports, err = s.Social.CountByLesson(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), comments)
	assert.Equal(t, int64(1), favorites)
	assert.Equal(t, int64(1), reports)

	assert.ErrorIs(t, s.Lessons.Delete(ctx, doomed.ID), store.ErrNotFound)
}

func TestListLessonsFilters(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	createLesson(t, s, owner, models.VisibilityPublic, models.AccessFree)
	createLesson(t, s, owner, models.VisibilityPublic, models.AccessPremium)
	createLesson(t, s, owner, models.VisibilityPrivate, models.AccessFree)

	lessons, total, err := s.Lessons.List(ctx, store.LessonFilter{Visibility: models.VisibilityPublic, AccessLevel: models.AccessFree})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, lessons, 1)
	require.NotNil(t, lessons[0].Creator)
	assert.Equal(t, "owner", lessons[0].Creator.UID)

	_, total, err = s.Lessons.List(ctx, store.LessonFilter{Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	_, total, err = s.Lessons.List(ctx, store.LessonFilter{CreatorID: owner.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	_, total, err = s.Lessons.List(ctx, store.LessonFilter{Category: "Career"})
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = s.Lessons.List(ctx, store.LessonFilter{Search: "LESSON BY"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestUpdateLessonIgnoresDerivedColumns(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	owner := createUser(t, s, "owner")
	lesson := createLesson(t, s, owner, models.VisibilityPublic, models.AccessFree)

	updated, err := s.Lessons.Update(ctx, lesson.ID, map[string]interface{}{
		"title":       "Renamed",
		"likes_count": 42,
		"creator_id":  999,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 0, updated.LikesCount)
	assert.Equal(t, owner.ID, updated.CreatorID)

	_, err = s.Lessons.Update(ctx, 999, map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPaymentEventRecordedOnce(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Payments.Record(ctx, &models.PaymentEvent{EventID: "evt_1", Outcome: "applied"}))
	require.NoError(t, s.Payments.Record(ctx, &models.PaymentEvent{EventID: "evt_1", Outcome: "already_premium"}))

	ev, err := s.Payments.Find(ctx, "evt_1")
	require.NoError(t, err)
	assert.Equal(t, "applied", ev.Outcome)
}

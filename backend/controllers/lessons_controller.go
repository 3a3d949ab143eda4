package controllers

import (
	"errors"

	"lifelessons/backend/access"
	"lifelessons/backend/models"
	"lifelessons/backend/store"
	"lifelessons/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 12
	featuredCount   = 6
)

type LessonsController struct {
	Store  *store.Store
	Logger *zap.Logger
}

func NewLessonsController(s *store.Store, logger *zap.Logger) *LessonsController {
	return &LessonsController{Store: s, Logger: logger}
}

type CreateLessonRequest struct {
	Title            string `json:"title" validate:"required,min=3,max=150"`
	ShortDescription string `json:"shortDescription" validate:"required,max=500"`
	Description      string `json:"description" validate:"max=20000"`
	Category         string `json:"category" validate:"required,lesson_category"`
	EmotionalTone    string `json:"emotionalTone" validate:"required,lesson_tone"`
	ImageURL         string `json:"imageURL" validate:"omitempty,url"`
	Visibility       string `json:"visibility" validate:"omitempty,oneof=public private"`
	AccessLevel      string `json:"accessLevel" validate:"omitempty,oneof=free premium"`
}

// UpdateLessonRequest is a partial update; nil fields are left alone.
type UpdateLessonRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=3,max=150"`
	ShortDescription *string `json:"shortDescription" validate:"omitempty,max=500"`
	Description      *string `json:"description" validate:"omitempty,max=20000"`
	Category         *string `json:"category" validate:"omitempty,lesson_category"`
	EmotionalTone    *string `json:"emotionalTone" validate:"omitempty,lesson_tone"`
	ImageURL         *string `json:"imageURL" validate:"omitempty,url"`
	Visibility       *string `json:"visibility" validate:"omitempty,oneof=public private"`
	AccessLevel      *string `json:"accessLevel" validate:"omitempty,oneof=free premium"`
}

func (r *UpdateLessonRequest) changes() map[string]interface{} {
	out := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			out[col] = *v
		}
	}
	set("title", r.Title)
	set("short_description", r.ShortDescription)
	set("description", r.Description)
	set("category", r.Category)
	set("emotional_tone", r.EmotionalTone)
	set("image_url", r.ImageURL)
	set("visibility", r.Visibility)
	set("access_level", r.AccessLevel)
	return out
}

type ListLessonsQuery struct {
	Category string `query:"category" json:"category" validate:"omitempty,lesson_category"`
	Tone     string `query:"tone" json:"tone" validate:"omitempty,lesson_tone"`
	Search   string `query:"search" json:"search" validate:"max=100"`
	Sort     string `query:"sort" json:"sort" validate:"omitempty,oneof=newest most_liked"`
	Page     int    `query:"page" json:"page" validate:"gte=0"`
	Limit    int    `query:"limit" json:"limit" validate:"gte=0,lte=50"`
}

type LikeResponse struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// CreateLesson godoc
// @Summary Create a lesson
// @Description Publishes a lesson owned by the caller. Premium lessons require a premium account.
// @Tags lessons
// @Accept json
// @Produce json
// @Param input body CreateLessonRequest true "Lesson data"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /lessons [post]
func (lc *LessonsController) CreateLesson(c *fiber.Ctx) error {
	var req CreateLessonRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilityPublic
	}
	if req.AccessLevel == "" {
		req.AccessLevel = models.AccessFree
	}

	actor, err := requireUser(c, lc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	verdict := access.AuthorizeLessonWrite(actor, nil, access.OpCreate, access.LessonChanges{AccessLevel: &req.AccessLevel})
	if !verdict.Allowed() {
		return denied(c, verdict)
	}

	lesson := models.Lesson{
		Title:            req.Title,
		ShortDescription: req.ShortDescription,
		Description:      req.Description,
		Category:         req.Category,
		EmotionalTone:    req.EmotionalTone,
		ImageURL:         req.ImageURL,
		Visibility:       req.Visibility,
		AccessLevel:      req.AccessLevel,
		CreatorID:        actor.ID,
		CreatorUID:       actor.UID,
	}
	if err := lc.Store.Lessons.Create(c.UserContext(), &lesson); err != nil {
		lc.Logger.Error("create lesson", zap.Uint("user_id", actor.ID), zap.Error(err))
		return utils.InternalServerError(c, "Could not create lesson")
	}
	lesson.Creator = actor

	view, _ := access.Present(&lesson, access.Full, access.SingleItem)
	return utils.Created(c, view)
}

// GetLessons godoc
// @Summary Browse public lessons
// @Description Free lessons by default; narrowing by category or tone also surfaces premium lessons, masked for non-premium viewers.
// @Tags lessons
// @Produce json
// @Param category query string false "Category"
// @Param tone query string false "Emotional tone"
// @Param search query string false "Title search"
// @Param sort query string false "newest or most_liked"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} utils.SuccessResponse
// @Router /lessons [get]
func (lc *LessonsController) GetLessons(c *fiber.Ctx) error {
	var q ListLessonsQuery
	if err := c.QueryParser(&q); err != nil {
		return utils.BadRequest(c, "Invalid query")
	}
	if errs := utils.ValidateStruct(&q); errs != nil {
		return utils.ValidationError(c, errs)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}

	actor, err := currentUser(c, lc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	scope := access.ListingScope(actor, q.Category != "" || q.Tone != "")
	lessons, total, err := lc.Store.Lessons.List(c.UserContext(), store.LessonFilter{
		Visibility:  scope.Visibility,
		AccessLevel: scope.AccessLevel,
		Category:    q.Category,
		Tone:        q.Tone,
		Search:      q.Search,
		Sort:        q.Sort,
		Page:        q.Page,
		Limit:       q.Limit,
	})
	if err != nil {
		lc.Logger.Error("list lessons", zap.Error(err))
		return utils.InternalServerError(c, "Could not fetch lessons")
	}

	return utils.Paginate(c, access.PresentListing(actor, lessons), total, q.Page, q.Limit)
}

func (lc *LessonsController) GetFeaturedLessons(c *fiber.Ctx) error {
	actor, err := currentUser(c, lc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	scope := access.ListingScope(actor, false)
	lessons, _, err := lc.Store.Lessons.List(c.UserContext(), store.LessonFilter{
		Visibility:  scope.Visibility,
		AccessLevel: scope.AccessLevel,
		Sort:        store.SortMostLiked,
		Limit:       featuredCount,
	})
	if err != nil {
		lc.Logger.Error("list featured lessons", zap.Error(err))
		return utils.InternalServerError(c, "Could not fetch lessons")
	}

	return utils.Success(c, fiber.StatusOK, access.PresentListing(actor, lessons))
}

// GetMyLessons returns every lesson the caller owns, private ones included.
func (lc *LessonsController) GetMyLessons(c *fiber.Ctx) error {
	actor, err := requireUser(c, lc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	page := max(c.QueryInt("page", 1), 1)
	lessons, total, err := lc.Store.Lessons.List(c.UserContext(), store.LessonFilter{
		CreatorID: actor.ID,
		Limit:     50,
		Page:      page,
	})
	if err != nil {
		lc.Logger.Error("list own lessons", zap.Uint("user_id", actor.ID), zap.Error(err))
		return utils.InternalServerError(c, "Could not fetch lessons")
	}

	views := make([]access.LessonView, 0, len(lessons))
	for i := range lessons {
		view, _ := access.Present(&lessons[i], access.AuthorizeLessonRead(actor, &lessons[i]), access.SingleItem)
		views = append(views, view)
	}
	return utils.Paginate(c, views, total, page, 50)
}

// GetLesson godoc
// @Summary Get a lesson
// @Description Returns the lesson in full, masked (premium content for non-premium viewers) or 403 for private lessons.
// @Tags lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /lessons/{id} [get]
func (lc *LessonsController) GetLesson(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	actor, err := currentUser(c, lc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	lesson, err := lc.Store.Lessons.Get(c.UserContext(), lessonID)
	if err != nil {
		return lc.lessonLoadError(c, err)
	}

	view, ok := access.Present(lesson, access.AuthorizeLessonRead(actor, lesson), access.SingleItem)
	if !ok {
		return utils.Forbidden(c, "This lesson is private")
	}

	if actor != nil {
		ctx := c.UserContext()
		if view.Liked, err = lc.Store.Lessons.HasLiked(ctx, lesson.ID, actor.UID); err != nil {
			lc.Logger.Warn("like lookup", zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		}
		if view.Favorited, err = lc.Store.Social.IsFavorite(ctx, actor.ID, lesson.ID); err != nil {
			lc.Logger.Warn("favorite lookup", zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		}
	}

	return utils.Success(c, fiber.StatusOK, view)
}

// UpdateLesson godoc
// @Summary Update a lesson
// @Tags lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param input body UpdateLessonRequest true "Fields to change"
// @Success 200 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /lessons/{id} [put]
func (lc *LessonsController) UpdateLesson(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	var req UpdateLessonRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}

	lesson, err := lc.Store.Lessons.Get(c.UserContext(), lessonID)
	if err != nil {
		return lc.lessonLoadError(c, err)
	}

	actor, err := requireUser(c, lc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	verdict := access.AuthorizeLessonWrite(actor, lesson, access.OpUpdate, access.LessonChanges{AccessLevel: req.AccessLevel})
	if !verdict.Allowed() {
		return denied(c, verdict)
	}

	updated, err := lc.Store.Lessons.Update(c.UserContext(), lesson.ID, req.changes())
	if err != nil {
		return lc.lessonLoadError(c, err)
	}

	view, _ := access.Present(updated, access.Full, access.SingleItem)
	return utils.Success(c, fiber.StatusOK, view)
}

// DeleteLesson removes a lesson and everything attached to it. Owners and
// administrators may delete.
func (lc *LessonsController) DeleteLesson(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	lesson, err := lc.Store.Lessons.Get(c.UserContext(), lessonID)
	if err != nil {
		return lc.lessonLoadError(c, err)
	}

	actor, err := requireUser(c, lc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	verdict := access.AuthorizeLessonWrite(actor, lesson, access.OpDelete, access.LessonChanges{})
	if !verdict.Allowed() {
		return denied(c, verdict)
	}

	if err := lc.Store.Lessons.Delete(c.UserContext(), lesson.ID); err != nil {
		return lc.lessonLoadError(c, err)
	}

	lc.Logger.Info("lesson deleted",
		zap.Uint("lesson_id", lesson.ID),
		zap.Uint("by_user_id", actor.ID),
		zap.Bool("moderation", !lesson.IsOwnedBy(actor)),
	)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": lesson.ID, "deleted": true})
}

// ToggleLike likes the lesson for the caller, or removes the like.
func (lc *LessonsController) ToggleLike(c *fiber.Ctx) error {
	lessonID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid lesson ID")
	}

	actor, err := requireUser(c, lc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	lesson, err := lc.Store.Lessons.Get(c.UserContext(), lessonID)
	if err != nil {
		return lc.lessonLoadError(c, err)
	}
	if access.AuthorizeLessonRead(actor, lesson) == access.Denied {
		return utils.Forbidden(c, "This lesson is private")
	}

	liked, count, err := lc.Store.Lessons.ToggleLike(c.UserContext(), lesson.ID, actor.UID)
	if err != nil {
		return lc.lessonLoadError(c, err)
	}

	return utils.Success(c, fiber.StatusOK, LikeResponse{Liked: liked, LikesCount: count})
}

func (lc *LessonsController) lessonLoadError(c *fiber.Ctx, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return utils.NotFound(c, "Lesson not found")
	}
	lc.Logger.Error("lesson store", zap.String("path", c.Path()), zap.Error(err))
	return utils.InternalServerError(c, "Could not query database")
}

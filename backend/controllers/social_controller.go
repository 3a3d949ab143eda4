package controllers

import (
	"errors"
	"time"

	"lifelessons/backend/access"
	"lifelessons/backend/models"
	"lifelessons/backend/store"
	"lifelessons/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SocialController serves comments, favorites and reports.
type SocialController struct {
	Store  *store.Store
	Logger *zap.Logger
}

func NewSocialController(s *store.Store, logger *zap.Logger) *SocialController {
	return &SocialController{Store: s, Logger: logger}
}

type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=2000" example:"This lesson hit home."`
}

type ReportRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500" example:"Inappropriate content"`
}

type FavoriteResponse struct {
	Favorited bool `json:"favorited"`
}

type FavoriteView struct {
	ID        uint              `json:"id"`
	Lesson    access.LessonView `json:"lesson"`
	CreatedAt string            `json:"createdAt"`
}

// visibleLesson loads the lesson and the caller (nil when anonymous) and
// writes the error response when the caller may not see it at all.
func (sc *SocialController) visibleLesson(c *fiber.Ctx) (*models.Lesson, *models.User, access.ReadDecision, error) {
	lessonID, err := paramID(c, "id")
	if err != nil {
		return nil, nil, access.Denied, utils.BadRequest(c, "Invalid lesson ID")
	}

	actor, err := currentUser(c, sc.Store.Users)
	if err != nil {
		return nil, nil, access.Denied, unauthorized(c, err)
	}

	lesson, err := sc.Store.Lessons.Get(c.UserContext(), lessonID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, access.Denied, utils.NotFound(c, "Lesson not found")
		}
		sc.Logger.Error("load lesson", zap.Uint("lesson_id", lessonID), zap.Error(err))
		return nil, nil, access.Denied, utils.InternalServerError(c, "Could not query database")
	}

	decision := access.AuthorizeLessonRead(actor, lesson)
	if decision == access.Denied {
		return nil, nil, decision, utils.Forbidden(c, "This lesson is private")
	}
	return lesson, actor, decision, nil
}

// AddComment godoc
// @Summary Comment on a lesson
// @Description Only viewers who can read the full lesson may comment.
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param input body AddCommentRequest true "Comment"
// @Success 201 {object} utils.SuccessResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /lessons/{id}/comments [post]
func (sc *SocialController) AddComment(c *fiber.Ctx) error {
	var req AddCommentRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}

	lesson, actor, decision, err := sc.visibleLesson(c)
	if lesson == nil {
		return err
	}
	if actor == nil {
		return utils.Unauthorized(c, "Unauthorized")
	}
	if decision != access.Full {
		return utils.Forbidden(c, "Premium membership required to comment on this lesson")
	}

	comment := models.Comment{
		LessonID:  lesson.ID,
		UserID:    actor.ID,
		UserName:  actor.DisplayName,
		UserImage: actor.PhotoURL,
		Text:      req.Text,
	}
	if err := sc.Store.Social.AddComment(c.UserContext(), &comment); err != nil {
		sc.Logger.Error("add comment", zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		return utils.InternalServerError(c, "Could not create comment")
	}

	return utils.Created(c, comment)
}

func (sc *SocialController) GetComments(c *fiber.Ctx) error {
	lesson, _, _, err := sc.visibleLesson(c)
	if lesson == nil {
		return err
	}

	comments, err := sc.Store.Social.ListComments(c.UserContext(), lesson.ID)
	if err != nil {
		sc.Logger.Error("list comments", zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		return utils.InternalServerError(c, "Could not fetch comments")
	}
	return utils.Success(c, fiber.StatusOK, comments)
}

// ToggleFavorite saves the lesson to the caller's favorites or removes it.
func (sc *SocialController) ToggleFavorite(c *fiber.Ctx) error {
	lesson, actor, _, err := sc.visibleLesson(c)
	if lesson == nil {
		return err
	}
	if actor == nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	favorited, err := sc.Store.Social.ToggleFavorite(c.UserContext(), actor.ID, lesson.ID)
	if err != nil {
		sc.Logger.Error("toggle favorite", zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		return utils.InternalServerError(c, "Could not update favorites")
	}
	return utils.Success(c, fiber.StatusOK, FavoriteResponse{Favorited: favorited})
}

func (sc *SocialController) GetFavorites(c *fiber.Ctx) error {
	actor, err := requireUser(c, sc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}

	favorites, err := sc.Store.Social.ListFavorites(c.UserContext(), actor.ID)
	if err != nil {
		sc.Logger.Error("list favorites", zap.Uint("user_id", actor.ID), zap.Error(err))
		return utils.InternalServerError(c, "Could not fetch favorites")
	}

	views := make([]FavoriteView, 0, len(favorites))
	for _, fav := range favorites {
		if fav.Lesson == nil {
			continue
		}
		// lessons made private since they were saved drop out here
		view, ok := access.Present(fav.Lesson, access.AuthorizeLessonRead(actor, fav.Lesson), access.Listing)
		if !ok {
			continue
		}
		view.Favorited = true
		views = append(views, FavoriteView{ID: fav.ID, Lesson: view, CreatedAt: fav.CreatedAt.Format(time.RFC3339)})
	}
	return utils.Success(c, fiber.StatusOK, views)
}

// ReportLesson godoc
// @Summary Report a lesson
// @Tags reports
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param input body ReportRequest true "Reason"
// @Success 201 {object} utils.SuccessResponse
// @Security BearerAuth
// @Router /lessons/{id}/reports [post]
func (sc *SocialController) ReportLesson(c *fiber.Ctx) error {
	var req ReportRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}

	lesson, actor, _, err := sc.visibleLesson(c)
	if lesson == nil {
		return err
	}
	if actor == nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	report := models.Report{LessonID: lesson.ID, ReportedBy: actor.ID, Reason: req.Reason}
	if err := sc.Store.Social.CreateReport(c.UserContext(), &report); err != nil {
		sc.Logger.Error("create report", zap.Uint("lesson_id", lesson.ID), zap.Error(err))
		return utils.InternalServerError(c, "Could not create report")
	}

	sc.Logger.Info("lesson reported", zap.Uint("lesson_id", lesson.ID), zap.Uint("report_id", report.ID))
	return utils.Created(c, report)
}

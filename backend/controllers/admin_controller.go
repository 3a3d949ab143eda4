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

// AdminController is mounted behind AdminMiddleware.
type AdminController struct {
	Store  *store.Store
	Logger *zap.Logger
}

func NewAdminController(s *store.Store, logger *zap.Logger) *AdminController {
	return &AdminController{Store: s, Logger: logger}
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type StatsResponse struct {
	Users        int64 `json:"users"`
	PremiumUsers int64 `json:"premiumUsers"`
	Lessons      int64 `json:"lessons"`
	Reports      int64 `json:"reports"`
}

func (ac *AdminController) GetUsers(c *fiber.Ctx) error {
	page := max(c.QueryInt("page", 1), 1)
	limit := c.QueryInt("limit", 20)

	users, total, err := ac.Store.Users.List(c.UserContext(), page, limit)
	if err != nil {
		ac.Logger.Error("list users", zap.Error(err))
		return utils.InternalServerError(c, "Could not fetch users")
	}
	if limit < 1 || limit > 100 {
		limit = 100
	}
	return utils.Paginate(c, users, total, page, limit)
}

// UpdateUserRole godoc
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param input body UpdateRoleRequest true "New role"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id}/role [patch]
func (ac *AdminController) UpdateUserRole(c *fiber.Ctx) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid user ID")
	}

	var req UpdateRoleRequest
	if ok, err := utils.ParseAndValidate(c, &req); !ok {
		return err
	}

	actor, err := requireUser(c, ac.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}
	if !access.AuthorizeAdminAction(actor).Allowed() {
		return denied(c, access.DeniedNotAdministrator)
	}
	if actor.ID == userID {
		return utils.BadRequest(c, "Administrators cannot change their own role")
	}

	user, err := ac.Store.Users.SetRole(c.UserContext(), userID, req.Role)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "User not found")
		}
		ac.Logger.Error("set role", zap.Uint("user_id", userID), zap.Error(err))
		return utils.InternalServerError(c, "Could not update role")
	}

	ac.Logger.Info("role changed", zap.Uint("user_id", userID), zap.String("role", req.Role), zap.Uint("by_user_id", actor.ID))
	return utils.Success(c, fiber.StatusOK, user)
}

// GetLessons lists every lesson, private and premium ones included, unmasked.
func (ac *AdminController) GetLessons(c *fiber.Ctx) error {
	page := max(c.QueryInt("page", 1), 1)
	filter := store.LessonFilter{
		Visibility:  c.Query("visibility"),
		AccessLevel: c.Query("accessLevel"),
		Category:    c.Query("category"),
		Search:      c.Query("search"),
		Page:        page,
		Limit:       50,
	}

	lessons, total, err := ac.Store.Lessons.List(c.UserContext(), filter)
	if err != nil {
		ac.Logger.Error("admin list lessons", zap.Error(err))
		return utils.InternalServerError(c, "Could not fetch lessons")
	}

	views := make([]access.LessonView, 0, len(lessons))
	for i := range lessons {
		view, _ := access.Present(&lessons[i], access.Full, access.SingleItem)
		views = append(views, view)
	}
	return utils.Paginate(c, views, total, page, 50)
}

func (ac *AdminController) GetReports(c *fiber.Ctx) error {
	status := c.Query("status")
	if status != "" && status != models.ReportPending && status != models.ReportResolved {
		return utils.BadRequest(c, "Invalid report status")
	}

	reports, err := ac.Store.Social.ListReports(c.UserContext(), status)
	if err != nil {
		ac.Logger.Error("list reports", zap.Error(err))
		return utils.InternalServerError(c, "Could not fetch reports")
	}
	return utils.Success(c, fiber.StatusOK, reports)
}

// DismissReport deletes a report without touching the lesson.
func (ac *AdminController) DismissReport(c *fiber.Ctx) error {
	reportID, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid report ID")
	}

	if err := ac.Store.Social.DeleteReport(c.UserContext(), reportID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return utils.NotFound(c, "Report not found")
		}
		ac.Logger.Error("dismiss report", zap.Uint("report_id", reportID), zap.Error(err))
		return utils.InternalServerError(c, "Could not dismiss report")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"id": reportID, "deleted": true})
}

func (ac *AdminController) GetStats(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var stats StatsResponse
	var err error
	if stats.Users, stats.PremiumUsers, err = ac.Store.Users.Counts(ctx); err == nil {
		if stats.Lessons, err = ac.Store.Lessons.Count(ctx); err == nil {
			stats.Reports, err = ac.Store.Social.CountReports(ctx)
		}
	}
	if err != nil {
		ac.Logger.Error("admin stats", zap.Error(err))
		return utils.InternalServerError(c, "Could not compute stats")
	}
	return utils.Success(c, fiber.StatusOK, stats)
}

package controllers

import (
	"lifelessons/backend/middleware"
	"lifelessons/backend/store"
	"lifelessons/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type UserController struct {
	Store  *store.Store
	Logger *zap.Logger
}

func NewUserController(s *store.Store, logger *zap.Logger) *UserController {
	return &UserController{Store: s, Logger: logger}
}

// SyncUserRequest optionally overrides the profile taken from the token.
type SyncUserRequest struct {
	DisplayName string `json:"displayName" validate:"omitempty,max=100"`
	PhotoURL    string `json:"photoURL" validate:"omitempty,url"`
}

// SyncUser godoc
// @Summary Sync the caller's profile
// @Description Creates the account on first call and refreshes display name and photo.
// @Tags users
// @Accept json
// @Produce json
// @Param input body SyncUserRequest false "Profile overrides"
// @Success 200 {object} utils.SuccessResponse
// @Failure 401 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /users/sync [post]
func (uc *UserController) SyncUser(c *fiber.Ctx) error {
	var req SyncUserRequest
	if len(c.Body()) > 0 {
		if ok, err := utils.ParseAndValidate(c, &req); !ok {
			return err
		}
	}

	userID, ok := middleware.UserID(c)
	if !ok {
		return utils.Unauthorized(c, "Unauthorized")
	}
	if claims := middleware.Claims(c); claims != nil {
		if req.DisplayName == "" {
			req.DisplayName = claims.DisplayName
		}
		if req.PhotoURL == "" {
			req.PhotoURL = claims.PhotoURL
		}
	}

	user, err := uc.Store.Users.UpdateProfile(c.UserContext(), userID, req.DisplayName, req.PhotoURL)
	if err != nil {
		uc.Logger.Error("sync profile", zap.Uint("user_id", userID), zap.Error(err))
		return utils.InternalServerError(c, "Could not update profile")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (uc *UserController) GetMe(c *fiber.Ctx) error {
	user, err := requireUser(c, uc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}
	return utils.Success(c, fiber.StatusOK, user)
}

func (uc *UserController) TestAuth(c *fiber.Ctx) error {
	user, err := requireUser(c, uc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}
	return c.JSON(fiber.Map{"message": "You are okay!", "user": user.Email})
}

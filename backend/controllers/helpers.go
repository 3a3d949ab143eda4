package controllers

import (
	"errors"
	"strconv"

	"lifelessons/backend/access"
	"lifelessons/backend/middleware"
	"lifelessons/backend/models"
	"lifelessons/backend/store"
	"lifelessons/backend/utils"

	"github.com/gofiber/fiber/v2"
)

var errAnonymous = errors.New("not authenticated")

// currentUser re-reads the caller's account so decisions see the latest
// role and premium flag. Anonymous callers yield (nil, nil).
func currentUser(c *fiber.Ctx, users *store.UserStore) (*models.User, error) {
	userID, ok := middleware.UserID(c)
	if !ok {
		return nil, nil
	}
	return users.FindByID(c.UserContext(), userID)
}

// requireUser is currentUser for routes behind AuthMiddleware.
func requireUser(c *fiber.Ctx, users *store.UserStore) (*models.User, error) {
	user, err := currentUser(c, users)
	if err == nil && user == nil {
		err = errAnonymous
	}
	return user, err
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

func denied(c *fiber.Ctx, v access.Verdict) error {
	switch v {
	case access.DeniedNotPremium:
		return utils.Forbidden(c, "Premium membership required to publish premium lessons")
	case access.DeniedNotAdministrator:
		return utils.Forbidden(c, "Admin access required")
	default:
		return utils.Forbidden(c, "Only the lesson owner can do this")
	}
}

func unauthorized(c *fiber.Ctx, err error) error {
	if errors.Is(err, errAnonymous) || errors.Is(err, store.ErrNotFound) {
		return utils.Unauthorized(c, "Unauthorized")
	}
	return utils.InternalServerError(c, "Could not load account")
}

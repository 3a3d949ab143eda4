package controllers

import (
	"lifelessons/backend/entitlement"
	"lifelessons/backend/payment"
	"lifelessons/backend/store"
	"lifelessons/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const headerStripeSignature = "Stripe-Signature"

type PaymentController struct {
	Store         *store.Store
	Checkout      payment.Checkout
	Entitlements  *entitlement.Handler
	WebhookSecret string
	Logger        *zap.Logger
}

func NewPaymentController(s *store.Store, checkout payment.Checkout, entitlements *entitlement.Handler, webhookSecret string, logger *zap.Logger) *PaymentController {
	return &PaymentController{
		Store:         s,
		Checkout:      checkout,
		Entitlements:  entitlements,
		WebhookSecret: webhookSecret,
		Logger:        logger,
	}
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

// CreateCheckout godoc
// @Summary Start the premium upgrade
// @Description Opens a Stripe Checkout session for the one-time premium payment.
// @Tags payments
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /payments/checkout [post]
func (pc *PaymentController) CreateCheckout(c *fiber.Ctx) error {
	actor, err := requireUser(c, pc.Store.Users)
	if err != nil {
		return unauthorized(c, err)
	}
	if actor.IsPremium {
		return utils.Conflict(c, "You are already a Premium member")
	}

	url, err := pc.Checkout.CreateSession(c.UserContext(), payment.CheckoutRequest{
		UserID: actor.ID,
		UID:    actor.UID,
		Email:  actor.Email,
	})
	if err != nil {
		pc.Logger.Error("create checkout session", zap.Uint("user_id", actor.ID), zap.Error(err))
		return utils.Error(c, fiber.StatusBadGateway, fiber.NewError(fiber.StatusBadGateway, "Could not start checkout"))
	}

	return utils.Success(c, fiber.StatusOK, CheckoutResponse{URL: url})
}

// Webhook receives Stripe events. Anything that verifies is acknowledged,
// including confirmations that match no account; only store failures are
// answered with 500 so Stripe redelivers.
func (pc *PaymentController) Webhook(c *fiber.Ctx) error {
	conf, err := payment.ParseWebhook(c.Body(), c.Get(headerStripeSignature), pc.WebhookSecret)
	if err != nil {
		pc.Logger.Warn("rejected webhook", zap.Error(err))
		return utils.BadRequest(c, "Invalid webhook")
	}
	if conf == nil {
		return c.JSON(fiber.Map{"received": true})
	}

	if conf.Keys.Empty() {
		pc.Logger.Warn("payment confirmation without lookup keys", zap.String("event_id", conf.EventID), zap.String("session_id", conf.SessionID))
	}

	outcome, err := pc.Entitlements.ApplyPaymentConfirmation(c.UserContext(), conf.EventID, conf.Keys)
	if err != nil {
		pc.Logger.Error("apply payment confirmation", zap.String("event_id", conf.EventID), zap.Error(err))
		return utils.InternalServerError(c, "Could not apply payment")
	}

	return c.JSON(fiber.Map{"received": true, "outcome": outcome})
}

package routes

import (
	"lifelessons/backend/access"
	"lifelessons/backend/config"
	"lifelessons/backend/controllers"
	"lifelessons/backend/entitlement"
	"lifelessons/backend/identity"
	"lifelessons/backend/middleware"
	"lifelessons/backend/payment"
	"lifelessons/backend/store"
	"lifelessons/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Config       *config.Config
	Store        *store.Store
	Verifier     identity.Verifier
	Identifier   *access.Identifier
	Checkout     payment.Checkout
	Entitlements *entitlement.Handler
	Metrics      *utils.Metrics
	Gatherer     prometheus.Gatherer
	Logger       *zap.Logger
}

// NewApp builds the fiber app with global middleware and all routes.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "life-lessons",
		ErrorHandler: errorHandler(d.Logger),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.ClientURL,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(middleware.LoggingMiddleware(d.Logger, d.Metrics))

	SetupRoutes(app, d)
	return app
}

func SetupRoutes(app *fiber.App, d Deps) {
	healthController := controllers.NewHealthController(d.Store.DB)
	app.Get("/", healthController.Root)
	app.Get("/healthz", healthController.Health)
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Middleware
	authMiddleware := middleware.AuthMiddleware(d.Verifier, d.Identifier, d.Logger)
	optionalAuth := middleware.OptionalAuthMiddleware(d.Verifier, d.Identifier, d.Logger)
	adminMiddleware := middleware.AdminMiddleware(d.Store.Users)

	api := app.Group("/api")

	// User routes
	userController := controllers.NewUserController(d.Store, d.Logger)
	api.Get("/test-auth", authMiddleware, userController.TestAuth)
	api.Post("/users/sync", authMiddleware, userController.SyncUser)
	api.Get("/users/me", authMiddleware, userController.GetMe)

	// Lesson routes
	lessonsController := controllers.NewLessonsController(d.Store, d.Logger)
	socialController := controllers.NewSocialController(d.Store, d.Logger)
	lessons := api.Group("/lessons")
	lessons.Get("/", optionalAuth, lessonsController.GetLessons)
	lessons.Get("/featured", optionalAuth, lessonsController.GetFeaturedLessons)
	lessons.Get("/mine", authMiddleware, lessonsController.GetMyLessons)
	lessons.Post("/", authMiddleware, lessonsController.CreateLesson)
	lessons.Get("/:id", optionalAuth, lessonsController.GetLesson)
	lessons.Put("/:id", authMiddleware, lessonsController.UpdateLesson)
	lessons.Delete("/:id", authMiddleware, lessonsController.DeleteLesson)
	lessons.Post("/:id/like", authMiddleware, lessonsController.ToggleLike)
	lessons.Get("/:id/comments", optionalAuth, socialController.GetComments)
	lessons.Post("/:id/comments", authMiddleware, socialController.AddComment)
	lessons.Post("/:id/favorite", authMiddleware, socialController.ToggleFavorite)
	lessons.Post("/:id/reports", authMiddleware, socialController.ReportLesson)
	api.Get("/favorites", authMiddleware, socialController.GetFavorites)

	// Payment routes
	paymentController := controllers.NewPaymentController(d.Store, d.Checkout, d.Entitlements, d.Config.StripeWebhookSecret, d.Logger)
	api.Post("/payments/checkout", authMiddleware, paymentController.CreateCheckout)
	api.Post("/payments/webhook", paymentController.Webhook)

	// Admin routes
	adminController := controllers.NewAdminController(d.Store, d.Logger)
	admin := api.Group("/admin", authMiddleware, adminMiddleware)
	admin.Get("/users", adminController.GetUsers)
	admin.Patch("/users/:id/role", adminController.UpdateUserRole)
	admin.Get("/lessons", adminController.GetLessons)
	admin.Delete("/lessons/:id", lessonsController.DeleteLesson)
	admin.Get("/reports", adminController.GetReports)
	admin.Delete("/reports/:id", adminController.DismissReport)
	admin.Get("/stats", adminController.GetStats)
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
		} else {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return utils.Error(c, code, fiber.NewError(code, utils.StatusMessage(code)))
	}
}

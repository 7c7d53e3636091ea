package router

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/avdeevk/lms-api/config"
	"github.com/avdeevk/lms-api/database"
	"github.com/avdeevk/lms-api/handlers"
	auth_handlers "github.com/avdeevk/lms-api/handlers/auth"
	course_handlers "github.com/avdeevk/lms-api/handlers/course"
	lesson_handlers "github.com/avdeevk/lms-api/handlers/lesson"
	payment_handlers "github.com/avdeevk/lms-api/handlers/payment"
	subscription_handlers "github.com/avdeevk/lms-api/handlers/subscription"
	user_handlers "github.com/avdeevk/lms-api/handlers/user"
	"github.com/avdeevk/lms-api/jobqueue"
	"github.com/avdeevk/lms-api/services"
	"github.com/avdeevk/lms-api/services/stripe"
	"github.com/avdeevk/lms-api/utils/auth"
	"github.com/avdeevk/lms-api/utils/middleware"
)

// SetupRoutes wires handlers, services and middleware onto the app
func SetupRoutes(app *fiber.App, store database.Storage, env *config.Env, queue *jobqueue.Queue) {
	if env.JWT_SECRET == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        env.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        env.JWT_ISSUER,
	})

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	stripeClient := stripe.NewClient(stripe.Config{
		SecretKey: env.STRIPE_SECRET_KEY,
		BaseURL:   env.STRIPE_BASE_URL,
	})

	paymentService := services.NewPaymentService(db, stripeClient, env.DOMAIN)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)

	authHandler := auth_handlers.NewAuthHandler(db, jwtManager)
	userHandler := user_handlers.NewUserHandler(db)
	courseHandler := course_handlers.NewCourseHandler(db)
	lessonHandler := lesson_handlers.NewLessonHandler(db, queue)
	paymentHandler := payment_handlers.NewPaymentHandler(db, paymentService)
	subscriptionHandler := subscription_handlers.NewSubscriptionHandler(db)

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth)

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", authHandler.Refresh)

	// User routes
	users := api.Group("/users", authMiddleware.Required())
	users.Get("/", userHandler.ListUsers)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)

	// Course routes
	courses := api.Group("/courses", authMiddleware.Required())
	courses.Get("/", courseHandler.ListCourses)
	courses.Post("/", courseHandler.CreateCourse)
	courses.Get("/:id", courseHandler.GetCourse)
	courses.Put("/:id", courseHandler.UpdateCourse)
	courses.Delete("/:id", courseHandler.DeleteCourse)
	courses.Post("/:id/subscribe", subscriptionHandler.Toggle)

	// Lesson routes
	lessons := api.Group("/lessons", authMiddleware.Required())
	lessons.Get("/", lessonHandler.ListLessons)
	lessons.Post("/", lessonHandler.CreateLesson)
	lessons.Get("/:id", lessonHandler.GetLesson)
	lessons.Put("/:id", lessonHandler.UpdateLesson)
	lessons.Delete("/:id", lessonHandler.DeleteLesson)

	// Payment routes. The success/cancel callbacks are registered before
	// the :id routes so Fiber does not swallow them as parameters.
	payments := api.Group("/payments", authMiddleware.Required())
	payments.Get("/success", paymentHandler.PaymentSuccess)
	payments.Get("/cancel", paymentHandler.PaymentCancel)
	payments.Get("/", paymentHandler.ListPayments)
	payments.Post("/", paymentHandler.CreatePayment)
	payments.Get("/:id", paymentHandler.GetPayment)
	payments.Get("/:id/status", paymentHandler.PaymentStatus)
}

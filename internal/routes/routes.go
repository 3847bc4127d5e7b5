package routes

import (
	"github.com/damil-o/TrainerBizBack/internal/config"
	"github.com/damil-o/TrainerBizBack/internal/handlers"
	"github.com/damil-o/TrainerBizBack/internal/middleware"
	"github.com/damil-o/TrainerBizBack/internal/realtime"
	"github.com/damil-o/TrainerBizBack/internal/repository"
	"github.com/damil-o/TrainerBizBack/internal/scheduler"
	"github.com/damil-o/TrainerBizBack/internal/services"
	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegisterRoutes wires repositories, services, and handlers onto the app and
// starts the realtime hub. The returned scheduler is not started; main owns
// its lifecycle.
func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool) (*scheduler.Scheduler, error) {
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	purchaseRepo := repository.NewPurchaseRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	consultationRepo := repository.NewConsultationRepository(db)
	planRepo := repository.NewPlanFileRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	testimonialRepo := repository.NewTestimonialRepository(db)
	pushRepo := repository.NewPushSubscriptionRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	var storageService services.StorageService
	if cfg.SupabaseURL != "" && cfg.SupabaseBucket != "" && cfg.SupabaseServiceKey != "" {
		storageService = services.NewSupabaseStorageService(cfg.SupabaseURL, cfg.SupabaseBucket, cfg.SupabaseServiceKey)
	}
	var mailer services.Mailer
	if cfg.SMTPHost != "" && cfg.SMTPFrom != "" {
		mailer = services.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}
	var leadSink services.LeadSink
	if cfg.SheetsCredFile != "" && cfg.SheetsSpreadsheet != "" {
		leadSink = services.NewSheetsLeadSink(cfg.SheetsCredFile, cfg.SheetsSpreadsheet, cfg.SheetsRange)
	}

	hub := realtime.NewHub()
	go hub.Run()

	notificationService := services.NewNotificationService(
		notificationRepo, profileRepo, pushRepo, services.NewWebPushSender(), hub)
	verifier := services.NewFlutterwaveClient(cfg.FlutterwaveBaseURL, cfg.FlutterwaveSecret)
	purchaseService := services.NewPurchaseService(
		purchaseRepo, serviceRepo, verifier, notificationService, hub, cfg.PaymentCurrency)
	meetProvider := services.NewStubMeetProvider()
	bookingService := services.NewBookingService(db, bookingRepo, meetProvider, notificationService, hub)
	consultationService := services.NewConsultationService(consultationRepo, meetProvider, notificationService)
	var deliveryService *services.DeliveryService
	if storageService != nil && mailer != nil {
		deliveryService = services.NewDeliveryService(purchaseRepo, storageService, mailer)
	}

	authHandler := handlers.NewAuthHandler(db, userRepo, profileRepo, cfg.JWTSecret, cfg.AdminEmail)
	profileHandler := handlers.NewProfileHandler(profileRepo, storageService)
	serviceHandler := handlers.NewServiceHandler(serviceRepo)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService, deliveryService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	consultationHandler := handlers.NewConsultationHandler(consultationService)
	planHandler := handlers.NewPlanHandler(planRepo, purchaseRepo, storageService, notificationService)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, pushRepo, notificationService)
	testimonialHandler := handlers.NewTestimonialHandler(testimonialRepo, storageService)
	leadHandler := handlers.NewLeadHandler(leadRepo, leadSink)
	realtimeHandler := handlers.NewRealtimeHandler(hub, profileRepo, cfg.JWTSecret)

	jobs := scheduler.New(purchaseService, profileRepo)

	api := app.Group("/api")

	// Public surface: storefront, payment callback, lead capture.
	api.Get("/services", serviceHandler.ListPublic)
	api.Get("/testimonials", testimonialHandler.ListPublic)
	api.Post("/payments/verify", purchaseHandler.VerifyPayment)
	api.Post("/leads", leadHandler.Create)

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// Registered ahead of the /v1 group so the upgrade request can carry its
	// token in the query string instead of the Authorization header.
	api.Use("/v1/ws", realtimeHandler.WebSocketAuth)
	api.Get("/v1/ws", websocket.New(realtimeHandler.HandleWebSocket))

	authed := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret), middleware.LoadIdentity(profileRepo))

	authed.Get("/me", authHandler.Me)
	authed.Post("/heartbeat", authHandler.Heartbeat)
	authed.Post("/logout", authHandler.Logout)

	profile := authed.Group("/profile")
	profile.Get("", profileHandler.GetProfile)
	profile.Put("", profileHandler.UpdateProfile)
	profile.Post("/avatar", profileHandler.UploadAvatar)

	purchases := authed.Group("/purchases")
	purchases.Post("/checkout", purchaseHandler.Checkout)
	purchases.Get("", purchaseHandler.List)
	purchases.Get("/:id", purchaseHandler.Get)
	purchases.Get("/:id/files", planHandler.ListForPurchase)

	bookings := authed.Group("/bookings")
	bookings.Post("", bookingHandler.Create)
	bookings.Get("", bookingHandler.List)
	bookings.Get("/:id", bookingHandler.Get)
	bookings.Put("/:id/status", bookingHandler.UpdateStatus)

	authed.Get("/consultations", consultationHandler.List)

	notifications := authed.Group("/notifications")
	notifications.Get("", notificationHandler.List)
	notifications.Get("/unread", notificationHandler.UnreadCount)
	notifications.Put("/:id/read", notificationHandler.MarkRead)
	notifications.Put("/read-all", notificationHandler.MarkAllRead)
	notifications.Post("/push/subscribe", notificationHandler.SubscribePush)
	notifications.Post("/push/unsubscribe", notificationHandler.UnsubscribePush)

	authed.Get("/resources", planHandler.ListResources)
	authed.Post("/testimonials", testimonialHandler.Submit)
	authed.Post("/testimonials/video", testimonialHandler.UploadVideo)

	admin := authed.Group("/admin", middleware.AdminRequired())
	admin.Get("/clients", profileHandler.ListClients)
	admin.Put("/clients/:id/blocked", profileHandler.SetBlocked)
	admin.Put("/clients/:id/admin", profileHandler.SetAdmin)

	admin.Get("/services", serviceHandler.ListAll)
	admin.Get("/services/:id", serviceHandler.Get)
	admin.Post("/services", serviceHandler.Create)
	admin.Put("/services/:id", serviceHandler.Update)
	admin.Delete("/services/:id", serviceHandler.Delete)

	admin.Put("/purchases/:id/complete", purchaseHandler.Complete)
	admin.Put("/purchases/:id/cancel", purchaseHandler.Cancel)
	admin.Post("/purchases/deliver", purchaseHandler.DeliverPDF)
	admin.Post("/purchases/check-expiring", purchaseHandler.CheckExpiring)

	admin.Post("/bookings/:id/meeting-link", bookingHandler.CreateMeetingLink)
	admin.Post("/consultations", consultationHandler.Create)
	admin.Put("/consultations/:id/cancel", consultationHandler.Cancel)
	admin.Post("/consultations/:id/meeting-link", consultationHandler.CreateMeetingLink)

	admin.Post("/plans", planHandler.Upload)
	admin.Delete("/plans/:id", planHandler.Delete)

	admin.Post("/notifications", notificationHandler.Send)

	admin.Get("/testimonials", testimonialHandler.ListAll)
	admin.Put("/testimonials/:id/status", testimonialHandler.SetStatus)
	admin.Put("/testimonials/:id/featured", testimonialHandler.SetFeatured)

	return jobs, nil
}

package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"gatherplan/config"
	_ "gatherplan/docs"
	"gatherplan/internal/adapters/aiscorer"
	authadapter "gatherplan/internal/adapters/auth"
	"gatherplan/internal/adapters/chat"
	"gatherplan/internal/adapters/email"
	"gatherplan/internal/adapters/notify"
	delivery "gatherplan/internal/delivery/http"
	"gatherplan/internal/delivery/http/controllers"
	"gatherplan/internal/delivery/http/middleware"
	"gatherplan/internal/domain"
	"gatherplan/internal/repository/postgres"
	"gatherplan/internal/services"
)

// @title GatherPlan API
// @version 1.0
// @description Group event coordination: lifecycle, invitations, venue recommendations, and voting.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger := config.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	participantRepo := postgres.NewParticipantRepository(db)
	venueRepo := postgres.NewVenueRepository(db)
	optionRepo := postgres.NewVenueOptionRepository(db)
	voteRepo := postgres.NewVoteRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to create mailer", "err", err)
		os.Exit(1)
	}
	renderer := email.NewTemplateRenderer()
	hasher := authadapter.NewBcryptHasher(bcrypt.DefaultCost)
	tokenIssuer := authadapter.NewJWTIssuer(cfg.JWTSecret)
	tokenVerifier := authadapter.NewJWTVerifier(cfg.JWTSecret)
	chatService := chat.NewLoggingChat(logger)
	notifier := notify.NewLoggingNotifier(logger)

	var scorer domain.VenueScorer
	if cfg.AIScorerURL != "" {
		scorer = aiscorer.NewHTTPScorer(&http.Client{Timeout: cfg.AIScorerTimeout + 5*time.Second}, cfg.AIScorerURL)
	}

	// Services
	background := services.NewBackground(logger)
	defer background.Wait()

	emailService := services.NewEmailService(mailer, renderer, logger)
	lifecycleService := services.NewLifecycleService(
		eventRepo, participantRepo, venueRepo, userRepo,
		chatService, notifier, emailService, background, logger,
		cfg.ContextTimeout, cfg.DefaultAcceptanceThreshold,
	)
	participantService := services.NewParticipantService(
		eventRepo, participantRepo, userRepo, lifecycleService,
		chatService, notifier, emailService, background, logger,
		cfg.ContextTimeout,
	)
	recommendationService := services.NewRecommendationService(
		eventRepo, venueRepo, optionRepo, participantRepo,
		scorer, logger, cfg.AIScorerTimeout,
	)
	voteService := services.NewVoteService(
		eventRepo, optionRepo, voteRepo, participantRepo,
		logger, cfg.ContextTimeout,
	)
	authService := services.NewAuthService(
		userRepo, hasher, tokenIssuer, cfg.JWTExpiry,
		emailService, background,
	)

	// Delivery
	mux := delivery.NewRouter(delivery.Controllers{
		Auth:            controllers.NewAuthController(logger, authService),
		Events:          controllers.NewEventController(logger, lifecycleService, voteService),
		Participants:    controllers.NewParticipantController(logger, participantService),
		Recommendations: controllers.NewRecommendationController(logger, recommendationService),
		Votes:           controllers.NewVoteController(logger, voteService),
	}, tokenVerifier, logger)

	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, mux))

	addr := ":" + cfg.Port
	logger.Info("starting server", "addr", addr, "env", cfg.Environment)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

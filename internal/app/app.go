package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chargehub/internal/ai"
	"chargehub/internal/config"
	httpserver "chargehub/internal/http"
	"chargehub/internal/http/handlers"
	"chargehub/internal/password"
	"chargehub/internal/payment"
	redisstore "chargehub/internal/redis"
	"chargehub/internal/repository"
	"chargehub/internal/service"
	"chargehub/internal/ws"
	libdb "chargehub/libs/db"
	libredis "chargehub/libs/redis"
)

const (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// App wires the chargehub dependency graph.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// stationNotifier forwards availability snapshots to websocket subscribers.
type stationNotifier struct {
	hub *ws.Hub
}

func (n stationNotifier) PublishStationState(state service.StationState) {
	n.hub.Broadcast(state)
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := libredis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	userRepo := repository.NewUserRepository(sqlDB)
	stationRepo := repository.NewStationRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)
	admissionRepo := repository.NewAdmissionRepository(sqlDB)
	insightsRepo := repository.NewInsightsRepository(sqlDB)

	activeStore := redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())

	hub := ws.NewHub(wsPingInterval, logger)
	wsServer := ws.NewServer(hub, wsWriteTimeout, logger)

	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	hasher := password.NewBcryptHasher(0)
	authService := service.NewAuthService(userRepo, hasher, tokens, logger)
	stationService := service.NewStationService(stationRepo, logger)
	admissionService := service.NewAdmissionService(
		userRepo,
		stationRepo,
		sessionRepo,
		admissionRepo,
		payment.NewSimulatedProcessor(),
		activeStore,
		stationNotifier{hub: hub},
		logger,
	)
	insightsService := service.NewInsightsService(insightsRepo)
	adminService := service.NewAdminService(userRepo, insightsRepo, logger)

	// The assistant falls back to deterministic replies when no API key is
	// configured, so a nil gemini client is fine.
	geminiClient := ai.NewClient(cfg.Gemini.APIKey, cfg.Gemini.Model, http.DefaultClient)
	assistant := ai.NewAssistant(geminiClient, logger)

	authHandlers := handlers.NewAuthHandlers(authService, logger)
	stationHandlers := handlers.NewStationHandlers(stationService, insightsService, logger)
	sessionHandlers := handlers.NewSessionHandlers(admissionService, sessionRepo, logger)
	ownerHandlers := handlers.NewOwnerHandlers(stationService, sessionRepo, admissionService, logger)
	adminHandlers := handlers.NewAdminHandlers(adminService, stationService, sessionRepo, logger)
	aiHandlers := handlers.NewAIHandlers(assistant, stationService, insightsService, logger)

	routes := httpserver.Routes{
		Health: handlers.NewHealthHandler(),
		Signup: authHandlers.Signup,
		Login:  authHandlers.Login,

		Stations:         stationHandlers.ListApproved,
		StationAnalytics: stationHandlers.Analytics,
		WS:               wsServer.HandleWS,

		SessionStart: sessionHandlers.Start,
		QueueStatus:  sessionHandlers.QueueStatus,
		SessionStop:  sessionHandlers.Stop,
		SessionsMe:   sessionHandlers.History,
		Insights:     aiHandlers.Insights,
		Chat:         aiHandlers.Chat,
		Recommend:    aiHandlers.Recommend,
		Search:       aiHandlers.Search,

		OwnerStationCreate:  ownerHandlers.CreateStation,
		OwnerStationList:    ownerHandlers.ListStations,
		OwnerActiveSessions: ownerHandlers.ActiveSessions,
		OwnerComplete:       ownerHandlers.CompleteSession,
		OwnerCancel:         ownerHandlers.CancelSession,

		AdminDashboard:  adminHandlers.Dashboard,
		AdminUsers:      adminHandlers.Users,
		AdminUserUpdate: adminHandlers.UpdateUser,
		AdminBlacklist:  adminHandlers.Blacklist,
		AdminStations:   adminHandlers.Stations,
		AdminApprove:    adminHandlers.ApproveStation,
		AdminSessions:   adminHandlers.ActiveSessions,
		AdminQueue:      adminHandlers.Queue,
	}

	router := httpserver.NewRouter(routes, tokens)
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		hub:         hub,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the HTTP server and the websocket hub ping loop.
func (a *App) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.server.Run(groupCtx)
	})
	group.Go(func() error {
		return a.hub.Run(groupCtx)
	})
	return group.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docuvault/access-management/internal"
	"github.com/docuvault/access-management/internal/access"
	"github.com/docuvault/access-management/internal/assignment"
	assignmentPostgres "github.com/docuvault/access-management/internal/assignment/postgres"
	"github.com/docuvault/access-management/internal/auth"
	authPostgres "github.com/docuvault/access-management/internal/auth/postgres"
	"github.com/docuvault/access-management/internal/grant"
	grantPostgres "github.com/docuvault/access-management/internal/grant/postgres"
	"github.com/docuvault/access-management/internal/profile"
	profilePostgres "github.com/docuvault/access-management/internal/profile/postgres"
	"github.com/docuvault/access-management/internal/transport/rest"
	"github.com/docuvault/access-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	// Repositories
	authRepo := authPostgres.NewRepository(deps.GormDB)
	profileRepo := profilePostgres.NewProfileRepository(deps.GormDB)
	grantRepo := grantPostgres.NewGrantRepository(deps.GormDB)
	assignmentRepo := assignmentPostgres.NewAssignmentRepository(deps.GormDB)

	// Services
	tokenGen := auth.NewJWTTokenGenerator(&deps.Config.Security)
	authService := auth.NewService(authRepo, tokenGen, deps.Config.Security.BCryptCost)
	profileService := profile.NewService(profileRepo, assignmentRepo, grantRepo, deps.Logger)
	grantService := grant.NewService(grantRepo, profileRepo, deps.Logger)
	assignmentService := assignment.NewService(assignmentRepo, profileRepo, deps.Logger)
	accessService := access.NewService(assignmentRepo, profileRepo, grantRepo, deps.Logger)

	// Handlers
	authHandler := auth.NewHandler(authService)
	profileHandler := profile.NewHandler(profileService)
	grantHandler := grant.NewHandler(grantService)
	assignmentHandler := assignment.NewHandler(assignmentService)
	accessHandler := access.NewHandler(accessService)

	rbac := auth.NewRBACAuthorization(&auth.DefaultPermissionChecker{}, deps.Logger)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, authHandler, rbac, profileHandler, grantHandler, assignmentHandler, accessHandler, deps.Logger)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Observability.Logging.Level, config.Observability.Logging.Format)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	router := chi.NewRouter()

	return &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper(),
		DB:     db,
		GormDB: gormDB,
		Router: router,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers gorm over the shared pgx connection pool so repositories
// and raw sqlx queries use the same pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
}

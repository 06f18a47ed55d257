package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	appControllers "github.com/vmelnikov/unifed/internal/app/controllers"
	"github.com/vmelnikov/unifed/internal/app/generator"
	appMigrations "github.com/vmelnikov/unifed/internal/app/migrations"
	appRoutes "github.com/vmelnikov/unifed/internal/app/routes"
	appServices "github.com/vmelnikov/unifed/internal/app/services"
	appStores "github.com/vmelnikov/unifed/internal/app/stores"
	"github.com/vmelnikov/unifed/internal/config"
	appMiddleware "github.com/vmelnikov/unifed/internal/middleware"
	"github.com/vmelnikov/unifed/internal/pkg/logger"
)

// connectTimeout bounds each store handshake during startup.
const connectTimeout = 10 * time.Second

// Stores holds the live connections to the five backing stores.
type Stores struct {
	Postgres    *pgxpool.Pool
	MongoClient *mongo.Client
	Mongo       *mongo.Database
	Neo4j       neo4j.DriverWithContext
	Redis       *redis.Client
	Elastic     *elasticsearch.Client
}

// Close releases every store connection. Errors are logged, not returned;
// shutdown proceeds regardless.
func (s *Stores) Close(ctx context.Context, lgr zerolog.Logger) {
	if s.Postgres != nil {
		s.Postgres.Close()
	}
	if s.MongoClient != nil {
		if err := s.MongoClient.Disconnect(ctx); err != nil {
			lgr.Error().Err(err).Msg("MongoDB disconnect error")
		}
	}
	if s.Neo4j != nil {
		if err := s.Neo4j.Close(ctx); err != nil {
			lgr.Error().Err(err).Msg("Neo4j driver close error")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			lgr.Error().Err(err).Msg("Redis client close error")
		}
	}
	// The elasticsearch client has no connection state to release.
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Synchronizer     *appServices.Synchronizer
	Federation       *appServices.Federation
	Attendance       *appServices.AttendanceService
	Audience         *appServices.AudienceService
	GroupReport      *appServices.GroupReportService
	SyncController   *appControllers.SyncController
	ReportController *appControllers.ReportController
	Logger           zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStores connects to all five backing stores, verifies each
// connection, and applies the relational migrations.
func SetupStores(cfg *config.Config, lgr zerolog.Logger) (*Stores, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	stores := &Stores{}
	ok := false
	defer func() {
		if !ok {
			stores.Close(context.Background(), lgr)
		}
	}()

	poolCfg, err := pgxpool.ParseConfig(cfg.GetPostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("invalid postgres configuration: %w", err)
	}
	if cfg.Postgres.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)
	}
	stores.Postgres, err = pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := stores.Postgres.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	stores.MongoClient, err = mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := stores.MongoClient.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	stores.Mongo = stores.MongoClient.Database(cfg.Mongo.DBName)

	stores.Neo4j, err = neo4j.NewDriverWithContext(cfg.Neo4j.URI,
		neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if err := stores.Neo4j.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("failed to verify neo4j connectivity: %w", err)
	}

	stores.Redis = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := stores.Redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	stores.Elastic, err = elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.User,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	lgr.Info().Msg("All store connections established")

	migrationsDir := cfg.Postgres.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}
	migrator := appMigrations.NewMigrator(stores.Postgres, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied")

	ok = true
	return stores, nil
}

// BuildDependencies initializes store adapters, services, and controllers.
func BuildDependencies(cfg *config.Config, stores *Stores, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	relational := appStores.NewPostgresStore(stores.Postgres, lgr)
	document := appStores.NewMongoStore(stores.Mongo, lgr)
	graph := appStores.NewNeo4jStore(stores.Neo4j, lgr)
	keyValue := appStores.NewRedisStore(stores.Redis, lgr)
	search := appStores.NewElasticStore(stores.Elastic, lgr)

	deps.Synchronizer = appServices.NewSynchronizer(relational, document, graph, keyValue, search, lgr)
	deps.Federation = appServices.NewFederation(relational, graph, keyValue, search, lgr)
	deps.Attendance = appServices.NewAttendanceService(deps.Federation, lgr)
	deps.Audience = appServices.NewAudienceService(relational, graph, lgr)
	deps.GroupReport = appServices.NewGroupReportService(deps.Federation, relational, graph, lgr)

	generatorCfg := generator.DefaultConfig()
	generatorCfg.Universities = cfg.Generator.Universities
	generatorCfg.Institutes = cfg.Generator.Institutes
	generatorCfg.Departments = cfg.Generator.Departments
	generatorCfg.Specialities = cfg.Generator.Specialities
	generatorCfg.Groups = cfg.Generator.Groups
	generatorCfg.Students = cfg.Generator.Students
	generatorCfg.Courses = cfg.Generator.Courses
	generatorCfg.SchedulesPerLecture = cfg.Generator.SchedulesPerLecture
	generatorCfg.PresenceProbability = cfg.Generator.PresenceProbability

	deps.SyncController = appControllers.NewSyncController(generatorCfg, deps.Synchronizer, lgr)
	deps.ReportController = appControllers.NewReportController(deps.Attendance, deps.Audience, deps.GroupReport, lgr)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(gin.Recovery())

	appRoutes.SetupRouter(router, deps.SyncController, deps.ReportController)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}

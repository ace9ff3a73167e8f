package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/vidtube-accounts/config"
	"github.com/oksasatya/vidtube-accounts/internal/application"
	"github.com/oksasatya/vidtube-accounts/internal/container"
	pginfra "github.com/oksasatya/vidtube-accounts/internal/infrastructure/postgres"
	"github.com/oksasatya/vidtube-accounts/internal/infrastructure/search"
	"github.com/oksasatya/vidtube-accounts/internal/interface/middleware"
	"github.com/oksasatya/vidtube-accounts/internal/router"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
	"github.com/oksasatya/vidtube-accounts/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolConfig{
		MaxConns:    cfg.DBMaxConns,
		MinConns:    cfg.DBMinConns,
		MaxConnLife: cfg.DBMaxConnLife,
	})
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		logger.Fatalf("migration failed: %v", err)
	}

	rdb := openRedis(ctx, cfg, logger)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	blobs, closeBlobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to init blob store: %v", err)
	}
	defer closeBlobs()

	jwtManager := helpers.NewJWTManager(helpers.JWTConfig{
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Issuer:        cfg.JWTIssuer,
	})

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetBlobStore(blobs)
	container.SetJWT(jwtManager)

	if es := openSearch(ctx, cfg, logger); es != nil {
		container.SetES(es)
	}

	if cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.Warnf("rabbitmq unavailable, account emails disabled: %v", err)
		} else {
			defer pub.Close()
			container.SetRabbitPub(pub)
		}
	}

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		container.SetMetrics(metrics.NewCollector(reg))
		container.SetGatherer(reg)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	reg.AddCheck("postgres", pool.Ping)
	if rdb != nil {
		reg.AddCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no migrations to run")
			return nil
		}
		return err
	}
	return nil
}

// openRedis returns nil when Redis is unreachable; rate limiting then runs
// on in-process buckets.
func openRedis(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *redis.Client {
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		logger.WithField("addr", cfg.RedisAddr).Warnf("redis unavailable, using local rate limiter: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func openBlobStore(ctx context.Context, cfg *config.Config) (application.BlobStore, func(), error) {
	switch cfg.BlobDriver {
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, nil, errors.New("GCS_BUCKET is required")
		}
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, nil, err
		}
		return helpers.NewGCSStore(client, cfg.GCSBucket), func() { _ = client.Close() }, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, nil, errors.New("S3_BUCKET is required")
		}
		client, err := helpers.NewS3Client(ctx, cfg.S3Region, cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			return nil, nil, err
		}
		return helpers.NewS3Store(client, cfg.S3Bucket, cfg.S3Region, cfg.S3PublicBaseURL), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown BLOB_DRIVER %q", cfg.BlobDriver)
	}
}

// openSearch returns nil when Elasticsearch is not configured or unreachable;
// user search then answers with an empty list.
func openSearch(ctx context.Context, cfg *config.Config, logger *logrus.Logger) *elasticsearch.Client {
	addrs := cfg.ESAddrs()
	if len(addrs) == 0 || cfg.ESUsersIndex == "" {
		return nil
	}
	es, err := helpers.NewESClient(ctx, helpers.ESConfig{
		Addresses: addrs,
		Username:  cfg.ElasticsearchUser,
		Password:  cfg.ElasticsearchPass,
	})
	if err != nil {
		logger.Warnf("elasticsearch unavailable, user search disabled: %v", err)
		return nil
	}
	if err := search.NewUserIndex(es, cfg.ESUsersIndex).EnsureIndex(ctx); err != nil {
		helpers.LogError(logger, "ensure users index", err, logrus.Fields{"index": cfg.ESUsersIndex})
	}
	return es
}

package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vidtube-accounts/config"
	"github.com/oksasatya/vidtube-accounts/internal/application"
	"github.com/oksasatya/vidtube-accounts/pkg/helpers"
	"github.com/oksasatya/vidtube-accounts/pkg/metrics"
)

// app-level container to share constructed components across packages.
// The router wires its modules from these singletons. Optional components
// (redis, rabbit, elasticsearch) are nil when not configured.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	blobStore   application.BlobStore

	jwtManager *helpers.JWTManager

	rabbitPub *helpers.RabbitPublisher
	esClient  *elasticsearch.Client

	gatherer  prometheus.Gatherer
	collector *metrics.Collector
)

func SetConfig(c *config.Config)              { cfg = c }
func GetConfig() *config.Config               { return cfg }
func SetLogger(l *logrus.Logger)              { logger = l }
func GetLogger() *logrus.Logger               { return logger }
func SetPGPool(p *pgxpool.Pool)               { pgPool = p }
func GetPGPool() *pgxpool.Pool                { return pgPool }
func SetRedis(r *redis.Client)                { redisClient = r }
func GetRedis() *redis.Client                 { return redisClient }
func SetBlobStore(b application.BlobStore)    { blobStore = b }
func GetBlobStore() application.BlobStore     { return blobStore }
func SetJWT(m *helpers.JWTManager)            { jwtManager = m }
func GetJWT() *helpers.JWTManager             { return jwtManager }
func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }
func SetES(c *elasticsearch.Client)           { esClient = c }
func GetES() *elasticsearch.Client            { return esClient }
func SetGatherer(g prometheus.Gatherer)       { gatherer = g }
func GetGatherer() prometheus.Gatherer        { return gatherer }
func SetMetrics(c *metrics.Collector)         { collector = c }

// GetMetrics returns the collector, or a no-op recorder when metrics are off.
func GetMetrics() metrics.Recorder {
	if collector == nil {
		return metrics.Nop{}
	}
	return collector
}

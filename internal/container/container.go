package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-auth-service/config"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	"github.com/oksasatya/go-ddd-auth-service/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client

	jwtManager *helpers.JWTManager
	hasher     helpers.PasswordHasher

	notifier *mailer.AsyncSink
	esClient *elasticsearch.Client
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }

// GetJWT falls back to a manager built from the loaded config.
func GetJWT() *helpers.JWTManager {
	if jwtManager == nil && cfg != nil {
		jwtManager = helpers.NewJWTManager(cfg.JWTRefreshSecret, cfg.RefreshTTL, cfg.RememberTTL, cfg.AppName)
	}
	return jwtManager
}

func SetHasher(h helpers.PasswordHasher) { hasher = h }

// GetHasher defaults to bcrypt when none was configured.
func GetHasher() helpers.PasswordHasher {
	if hasher == nil {
		hasher = helpers.BcryptHasher{}
	}
	return hasher
}

func SetNotifier(n *mailer.AsyncSink) { notifier = n }
func GetNotifier() *mailer.AsyncSink  { return notifier }
func SetES(c *elasticsearch.Client)   { esClient = c }
func GetES() *elasticsearch.Client    { return esClient }

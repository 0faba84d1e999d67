package router

import (
	"github.com/oksasatya/go-ddd-auth-service/internal/application"
	"github.com/oksasatya/go-ddd-auth-service/internal/container"
	"github.com/oksasatya/go-ddd-auth-service/internal/domain/policy"
	repo "github.com/oksasatya/go-ddd-auth-service/internal/domain/repository"
	pginfra "github.com/oksasatya/go-ddd-auth-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-auth-service/internal/infrastructure/redisstore"
	"github.com/oksasatya/go-ddd-auth-service/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-ddd-auth-service/internal/interface/http"
	"github.com/oksasatya/go-ddd-auth-service/internal/router/modules"
	"github.com/oksasatya/go-ddd-auth-service/pkg/helpers"
	mailtpl "github.com/oksasatya/go-ddd-auth-service/pkg/mailer/templates"
)

type AuthModuleDeps struct {
	Auth         *application.AuthService
	Recovery     *application.RecoveryService
	Verification *application.VerificationService
	AuthHandler  *handlers.AuthHandler
	UserHandler  *handlers.UserHandler
}

func buildAuditSink() repo.AuditSink {
	cfg := container.GetConfig()
	sinks := application.MultiAuditSink{pginfra.NewAuditRepository(container.GetPGPool())}
	if es := container.GetES(); es != nil && cfg.AuditESEnabled {
		sinks = append(sinks, search.NewAuditIndexer(es, cfg.ESAuditIndex))
	}
	return sinks
}

func buildAuthDeps() AuthModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()
	rdb := container.GetRedis()

	users := pginfra.NewUserRepository(pool)
	resets := pginfra.NewPasswordResetRepository(pool)
	audit := buildAuditSink()
	refresh := redisstore.NewRefreshStore(rdb)
	pol := policy.Default(cfg.PasswordMinLength)
	brand := mailtpl.Brand{
		AppName:        cfg.AppName,
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		SupportURL:     cfg.SupportURL,
	}

	creds := application.NewCredentialStore(users, container.GetHasher())
	tokens := application.NewTokenIssuer(redisstore.NewTokenStore(rdb), users, cfg.AccessTTL, logger)

	auth := application.NewAuthService(creds, tokens, container.GetJWT(), refresh, pol, audit, logger)
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		auth.Uploader = helpers.NewGCSUploader(gcs, cfg.GCSBucket)
	}

	sink := container.GetNotifier()

	recovery := application.NewRecoveryService(creds, resets, tokens, refresh, pol, sink, audit, logger)
	recovery.Brand = brand
	recovery.ResetURL = cfg.ResetPasswordURL
	recovery.TTL = cfg.ResetTokenTTL
	recovery.MinDuration = cfg.ResetMinDuration
	// the watermark has to outlive the longest refresh JWT
	recovery.RefreshTTL = max(cfg.RefreshTTL, cfg.RememberTTL)

	verification := application.NewVerificationService(creds, redisstore.NewVerifyStore(rdb), sink, audit, logger)
	verification.Brand = brand
	verification.VerifyURL = cfg.VerifyEmailURL
	verification.TTL = cfg.VerifyTokenTTL

	return AuthModuleDeps{
		Auth:         auth,
		Recovery:     recovery,
		Verification: verification,
		AuthHandler:  handlers.NewAuthHandler(auth, recovery, verification, logger, cfg.CookieDomain, cfg.CookieSecure),
		UserHandler:  handlers.NewUserHandler(auth, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules.
// The returned services back the background jobs started by main.
func InitModules(r *Registry) AuthModuleDeps {
	deps := buildAuthDeps()
	rdb := container.GetRedis()
	r.Add(modules.NewAuthModule(deps.AuthHandler, deps.UserHandler, deps.Auth, rdb, container.GetLogger()))

	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(rdb))
	}
	return deps
}

package main

import (
	"context"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/followupbot/tenantkit/modules/meeting"
	"github.com/followupbot/tenantkit/pkg/config"
	"github.com/followupbot/tenantkit/pkg/httpserver"
	"github.com/followupbot/tenantkit/pkg/logger"
	"github.com/followupbot/tenantkit/pkg/pg"
	"github.com/followupbot/tenantkit/pkg/redis"
	"github.com/followupbot/tenantkit/pkg/requestid"
	"github.com/followupbot/tenantkit/pkg/slackwebhook"
	"github.com/followupbot/tenantkit/pkg/tenant"
	"github.com/followupbot/tenantkit/pkg/tenantstore"
)

type appConfig struct {
	Env                string        `env:"APP_ENV" envDefault:"development"`
	SlackSigningSecret string        `env:"SLACK_SIGNING_SECRET,required"`
	AutoProvision      bool          `env:"TENANT_AUTO_PROVISION" envDefault:"false"`
	CacheTTL           time.Duration `env:"TENANT_CACHE_TTL" envDefault:"5m"`
}

func main() {
	ctx := context.Background()

	var appCfg appConfig
	var pgCfg pg.Config
	var redisCfg redis.Config
	var httpCfg httpserver.Config
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&httpCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, "webhookd"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		log.Error("postgres connect failed", logger.Error(err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		log.Error("migrations failed", logger.Error(err))
		os.Exit(1)
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		log.Error("redis connect failed", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	store := tenantstore.New(pool)
	cache := tenant.NewRedisCache(redisClient, tenant.WithCacheLogger(log))
	resolver := tenant.NewResolver(store,
		tenant.WithCache(cache),
		tenant.WithCacheTTL(appCfg.CacheTTL),
		tenant.WithAutoProvision(appCfg.AutoProvision),
		tenant.WithResolverLogger(log),
	)
	auth := slackwebhook.NewAuthenticator(appCfg.SlackSigningSecret)

	meetings, err := meeting.NewHandler(pool, log)
	if err != nil {
		log.Error("meeting handler init failed", logger.Error(err))
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(tenant.Middleware(auth, resolver,
		tenant.WithLogger(log),
		tenant.WithSkipPaths("/health", "/ready"),
	))
	r.Get("/health", httpserver.HealthCheckHandler(log))
	r.Get("/ready", httpserver.HealthCheckHandler(log,
		pg.Healthcheck(pool),
		redis.Healthcheck(redisClient),
	))
	r.Mount("/slack", meetings.Router())

	srv := httpserver.New(httpCfg, log)
	if err := srv.Run(ctx, r); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

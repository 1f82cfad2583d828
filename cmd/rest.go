package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	agentRest "github.com/AzielCF/az-agent/agents/adapter/rest"
	apptRest "github.com/AzielCF/az-agent/appointments/adapter/rest"
	avatarRest "github.com/AzielCF/az-agent/avatar/adapter/rest"
	convRest "github.com/AzielCF/az-agent/conversation/adapter/rest"
	coreconfig "github.com/AzielCF/az-agent/core/config"
	knowledgeRest "github.com/AzielCF/az-agent/knowledge/adapter/rest"
	leadRest "github.com/AzielCF/az-agent/leads/adapter/rest"
	"github.com/AzielCF/az-agent/pkg/metrics"
	"github.com/AzielCF/az-agent/pkg/taskpool"
	"github.com/AzielCF/az-agent/ui/rest"
	"github.com/AzielCF/az-agent/ui/rest/middleware"
	"github.com/AzielCF/az-agent/ui/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	audioMaxAge     = 24 * time.Hour
	audioSweepEvery = time.Hour
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve the agent API and realtime channel over http",
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	fiberConfig := fiber.Config{
		EnableTrustedProxyCheck: true,
		BodyLimit:               20 * 1024 * 1024,
		Network:                 "tcp",
		AppName:                 "Az-Agent",
		ServerHeader:            "Hidden",
	}
	if len(cfg.App.TrustedProxies) > 0 {
		fiberConfig.TrustedProxies = cfg.App.TrustedProxies
		fiberConfig.ProxyHeader = fiber.HeaderXForwardedHost
	}

	app := fiber.New(fiberConfig)

	app.Use(requestid.New())

	origins := strings.Join(cfg.App.CorsAllowedOrigins, ", ")
	if !strings.Contains(origins, cfg.App.BaseUrl) {
		origins += ", " + cfg.App.BaseUrl
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
	app.Use(middleware.Recovery())
	app.Use(middleware.Metrics())

	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "SAMEORIGIN",
		HSTSMaxAge:                31536000,
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        1000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	if len(cfg.App.BasicAuth) == 0 {
		logrus.Fatalln("APP_BASIC_AUTH is required. Admin routes must not be public; please set APP_BASIC_AUTH=<user>:<secret>[,<user2>:<secret2>] and restart.")
	}
	account := make(map[string]string)
	for _, basicAuth := range cfg.App.BasicAuth {
		ba := strings.Split(basicAuth, ":")
		if len(ba) != 2 {
			logrus.Fatalln("Basic auth is not valid, please this following format <user>:<secret>")
		}
		account[ba[0]] = ba[1]
	}

	app.Static(cfg.App.BasePath+"/statics", cfg.Paths.Statics)
	app.Get(cfg.App.BasePath+"/metrics", adaptor.HTTPHandler(metrics.Handler()))

	apiPrefix := cfg.App.BasePath + "/api"
	apiGroup := app.Group(apiPrefix)
	apiGroup.Use(basicauth.New(basicauth.Config{
		Users: account,
		Next:  skipBasicAuth(apiPrefix),
	}))

	agentRest.NewAgentHandler(agentService).RegisterRoutes(apiGroup)
	agentRest.NewWidgetHandler(agentService, cfg.App.BaseUrl+cfg.App.BasePath).RegisterRoutes(apiGroup)
	knowledgeRest.NewKnowledgeHandler(knowledgeService).RegisterRoutes(apiGroup)
	convRest.NewConversationHandler(orchestrator).RegisterRoutes(apiGroup)
	leadRest.NewLeadHandler(leadService).RegisterRoutes(apiGroup)
	apptRest.NewAppointmentHandler(bookingService, availability).RegisterRoutes(apiGroup)
	avatarRest.NewAvatarHandler(avatarService).RegisterRoutes(apiGroup)

	health := rest.NewHealth(hub.ClientCount).
		With("database", func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}).
		With("smtp", mailer.Ping)
	if vkClient != nil {
		health.With("valkey", vkClient.Ping)
	}
	health.RegisterRoutes(apiGroup)
	apiGroup.Get("/workers/stats", rest.WorkerPoolStats(taskpool.GetGlobalPool()))
	apiGroup.Get("/settings", rest.Settings(coreconfig.GetAllSettings))

	websocket.NewServer(hub, orchestrator, avatarService).RegisterRoutes(apiGroup)

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"code":  "NOT_FOUND_ERROR",
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	reminders.Start(ctx)
	go sweepAudio(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		cancel()
		StopApp()
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}

// sweepAudio removes synthesized speech files once clients no longer need them.
func sweepAudio(ctx context.Context) {
	ticker := time.NewTicker(audioSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := speech.Cleanup(audioMaxAge)
			if err != nil {
				logrus.WithError(err).Warn("[AVATAR] Audio cleanup failed")
			} else if removed > 0 {
				logrus.Debugf("[AVATAR] Removed %d expired audio files", removed)
			}
		}
	}
}

package cmd

import (
	"context"
	"os"
	"path/filepath"
	"time"

	agentApp "github.com/AzielCF/az-agent/agents/application"
	agentRepo "github.com/AzielCF/az-agent/agents/repository"
	apptApp "github.com/AzielCF/az-agent/appointments/application"
	apptRepo "github.com/AzielCF/az-agent/appointments/repository"
	avatarApp "github.com/AzielCF/az-agent/avatar/application"
	convApp "github.com/AzielCF/az-agent/conversation/application"
	"github.com/AzielCF/az-agent/conversation/providers"
	coreconfig "github.com/AzielCF/az-agent/core/config"
	coreDB "github.com/AzielCF/az-agent/core/database"
	"github.com/AzielCF/az-agent/infrastructure/mail"
	"github.com/AzielCF/az-agent/infrastructure/queue"
	"github.com/AzielCF/az-agent/infrastructure/valkey"
	knowledgeApp "github.com/AzielCF/az-agent/knowledge/application"
	"github.com/AzielCF/az-agent/knowledge/embedding"
	knowledgeRepo "github.com/AzielCF/az-agent/knowledge/repository"
	leadApp "github.com/AzielCF/az-agent/leads/application"
	leadRepo "github.com/AzielCF/az-agent/leads/repository"
	notifyApp "github.com/AzielCF/az-agent/notifications/application"
	notifyDomain "github.com/AzielCF/az-agent/notifications/domain"
	"github.com/AzielCF/az-agent/pkg/taskpool"
	"github.com/AzielCF/az-agent/pkg/utils"
	"github.com/AzielCF/az-agent/ui/websocket"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type healthMailer interface {
	notifyDomain.Mailer
	Ping(ctx context.Context) error
}

type closablePublisher interface {
	notifyDomain.Publisher
	Close() error
}

var (
	db        *gorm.DB
	vkClient  *valkey.Client
	serverID  string
	mailer    healthMailer
	publisher closablePublisher

	agentService     *agentApp.AgentService
	leadService      *leadApp.LeadService
	bookingService   *apptApp.BookingService
	availability     *apptApp.AvailabilityEngine
	reminders        *apptApp.ReminderScheduler
	knowledgeService *knowledgeApp.KnowledgeService
	orchestrator     *convApp.Orchestrator
	notifier         *notifyApp.Service
	speech           *avatarApp.SilentSynthesizer
	avatarService    *avatarApp.Service
	hub              *websocket.Hub
)

var rootCmd = &cobra.Command{
	Use:   "az-agent",
	Short: "AI sales agents for your website",
	Long: `az-agent hosts conversational sales agents that chat with website visitors,
capture leads and book appointments against each agent's working hours.`,
}

func init() {
	utils.LoadConfig(".")

	time.Local = time.UTC

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "hide or displaying log with --debug <true/false> | example: --debug=true")
	rootCmd.PersistentFlags().StringSliceP("basic-auth", "b", nil, "basic auth credential | -b=yourUsername:yourPassword")

	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("app_basic_auth", rootCmd.PersistentFlags().Lookup("basic-auth"))
}

// initEnvConfig builds the typed configuration from the environment and lets
// explicit flags win over it.
func initEnvConfig() {
	cfg, err := coreconfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("[CONFIG] Failed to load configuration: %v", err)
	}

	flags := rootCmd.PersistentFlags()
	if flags.Changed("port") {
		cfg.App.Port = viper.GetString("app_port")
	}
	if flags.Changed("debug") {
		cfg.App.Debug = viper.GetBool("app_debug")
	}
	if flags.Changed("basic-auth") {
		cfg.App.BasicAuth = viper.GetStringSlice("app_basic_auth")
	}
}

func initApp() {
	cfg := coreconfig.Global
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if err := utils.CreateFolder(cfg.Paths.Storages, cfg.Paths.Statics); err != nil {
		logrus.Errorln(err)
	}

	ctx := context.Background()
	serverID = utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Storages)

	var err error
	db, err = coreDB.NewDatabase(cfg)
	if err != nil {
		logrus.Fatalf("[DB] %v", err)
	}

	agents := agentRepo.NewAgentGormRepository(db)
	leads := leadRepo.NewLeadGormRepository(db)
	appointments := apptRepo.NewAppointmentGormRepository(db)
	chunks := knowledgeRepo.NewChunkGormRepository(db)
	for name, repo := range map[string]interface{ InitSchema(context.Context) error }{
		"agents":       agents,
		"leads":        leads,
		"appointments": appointments,
		"knowledge":    chunks,
	} {
		if err := repo.InitSchema(ctx); err != nil {
			logrus.Fatalf("[DB] Failed to migrate %s: %v", name, err)
		}
	}

	if cfg.Database.ValkeyEnabled {
		vkClient, err = valkey.NewClient(valkey.ConfigFrom(cfg.Database))
		if err != nil {
			logrus.WithError(err).Warn("[VALKEY] Unavailable, continuing with local locks and broadcasts")
			vkClient = nil
		} else {
			logrus.Infof("[VALKEY] Connected to %s", cfg.Database.ValkeyAddress)
		}
	}

	if cfg.Mail.Enabled {
		mailer = mail.NewSMTPSender(cfg.Mail)
	} else {
		mailer = mail.LogSender{}
	}

	publisher = queue.LogPublisher{}
	if cfg.Queue.Enabled {
		amqp, err := queue.NewAMQPPublisher(cfg.Queue.URL, cfg.Queue.Exchange)
		if err != nil {
			logrus.WithError(err).Warn("[QUEUE] Broker unavailable, domain events will only be logged")
		} else {
			publisher = amqp
		}
	}

	pool := taskpool.GetGlobalPool()

	hub = websocket.NewHub()
	if vkClient != nil {
		hub.WithFanout(valkey.NewPubSub(vkClient), serverID)
	}

	notifier = notifyApp.NewService(mailer, publisher, pool, cfg.Mail.AdminEmail).
		WithBroadcaster(hub).
		WithConfirmationMarker(appointments)

	agentService = agentApp.NewAgentService(agents, cfg.App.DefaultOwnerID)
	leadService = leadApp.NewLeadService(leads, agentService, notifier)
	availability = apptApp.NewAvailabilityEngine(agentService, appointments)
	bookingService = apptApp.NewBookingService(agentService, leadService, appointments, notifier)
	if vkClient != nil {
		bookingService.WithLocker(valkey.NewKeyedLock(vkClient, "booking", cfg.Booking.LockTTL))
	}
	reminders = apptApp.NewReminderScheduler(agentService, leadService, appointments, notifier, cfg.Booking.ReminderInterval, cfg.Booking.ReminderWindow)

	embedder, err := embedding.New(ctx, cfg.AI, cfg.APIKeys)
	if err != nil {
		logrus.Fatalf("[KNOWLEDGE] %v", err)
	}
	knowledgeService = knowledgeApp.NewKnowledgeService(agentService, chunks, embedder)

	model, err := providers.New(ctx, cfg.AI, cfg.APIKeys)
	if err != nil {
		logrus.WithError(err).Error("[ORCHESTRATOR] No language model configured, replies will use the fallback message")
	}
	orchestrator = convApp.NewOrchestrator(agentService, knowledgeService, model, pool, convApp.Settings{
		Temperature:      cfg.AI.Temperature,
		TopP:             cfg.AI.TopP,
		MaxTokens:        cfg.AI.MaxTokens,
		Timeout:          cfg.AI.Timeout,
		HistoryTurns:     cfg.AI.HistoryTurns,
		KnowledgeLimit:   cfg.AI.KnowledgeLimit,
		KnowledgeTimeout: cfg.AI.KnowledgeTimeout,
	})

	speech = avatarApp.NewSilentSynthesizer(filepath.Join(cfg.Paths.Statics, "audio"), cfg.App.BasePath+"/statics/audio")
	avatarService = avatarApp.NewService(speech)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp performs a clean shutdown of background workers and connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if reminders != nil {
		reminders.Stop()
	}

	// drain queued notifications before closing their transports
	taskpool.StopGlobalPool()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logrus.WithError(err).Warn("[QUEUE] Close failed")
		}
	}
	if vkClient != nil {
		vkClient.Close()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logrus.Info("[APP] Application stopped cleanly.")
}

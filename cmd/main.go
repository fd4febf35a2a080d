package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/accrual"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/api"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/backup"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/bot"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/commands"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/config"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/database"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/ingest"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leaderboard"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/leveling"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/logging"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/metrics"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/notifier"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/settings"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/store"
	"github.com/MowgiAU/fuiji-fruit-bot-redesign-sub000/internal/voice"
)

type components struct {
	store     *store.Store
	settings  *settings.Store
	engine    *accrual.Engine
	boards    *leaderboard.Service
	backups   *backup.Manager
	scheduler *backup.Scheduler
	ingestor  *ingest.Ingestor
	tracker   *voice.Tracker
	dispatch  *notifier.Dispatcher
	apiServer *api.Server
}

func main() {
	fmt.Println("Starting XP accrual and leaderboard engine")

	cfg := config.LoadOrDefault("config.json")

	if err := logging.InitGlobalLogger(logging.LevelInfo, "leveling.log"); err != nil {
		panic(err)
	}
	metrics.Init()

	if err := database.Initialize(cfg.Storage.AuditDB); err != nil {
		panic(err)
	}

	comps, err := startComponents(cfg)
	if err != nil {
		panic(err)
	}

	if err := initializeBot(cfg, comps); err != nil {
		panic(err)
	}

	if cfg.API.Enabled {
		comps.apiServer = api.NewServer(cfg.API, api.Deps{
			Store:       comps.store,
			Settings:    comps.settings,
			Engine:      comps.engine,
			Leaderboard: comps.boards,
			Backups:     comps.backups,
			Ingestor:    comps.ingestor,
			Voice:       comps.tracker,
		})
		comps.apiServer.Start()
	}

	logging.Info("All components started, tracking %d users", comps.store.UserCount())

	waitForShutdown()
	stopComponents(comps)

	logging.Info("Shutdown complete")
	logging.CloseGlobalLogger()
}

func startComponents(cfg *config.Config) (*components, error) {
	cfgStore, err := settings.Open(cfg.Storage.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("settings store: %w", err)
	}

	recordStore, err := store.Open(cfg.Storage.DataFile)
	if err != nil {
		return nil, fmt.Errorf("record store: %w", err)
	}
	recordStore.SetRetryPolicy(cfg.Storage.SaveRetries, time.Duration(cfg.Storage.RetryDelayMS)*time.Millisecond)

	backups, err := backup.NewManager(cfg.Storage.BackupDir, recordStore, cfg.Backup.MaxBackups)
	if err != nil {
		return nil, fmt.Errorf("backup manager: %w", err)
	}
	recordStore.SetPreSaveHook(backups.CreatePreSave)

	rates := leveling.Rates{
		MessageMin:       cfg.Leveling.MessageXPMin,
		MessageMax:       cfg.Leveling.MessageXPMax,
		ReactionGiven:    cfg.Leveling.ReactionGivenXP,
		ReactionReceived: cfg.Leveling.ReactionReceivedXP,
		VoicePerMinute:   cfg.Leveling.VoiceXPPerMinute,
	}.Sanitize()

	engine := accrual.NewEngine(recordStore, cfgStore, rates)
	boards := leaderboard.NewService(recordStore)
	dispatch := notifier.NewDispatcher(cfgStore)

	queue := ingest.NewQueue(uint32(cfg.Leveling.QueueSize))
	cooldown := time.Duration(cfg.Leveling.MessageCooldownSec) * time.Second
	ingestor := ingest.NewIngestor(queue, engine, cfgStore, dispatch, cooldown)
	ingestor.Start()

	tracker := voice.NewTracker(engine, cfgStore, dispatch, time.Duration(cfg.Leveling.VoiceTickSec)*time.Second)
	tracker.Start()

	var scheduler *backup.Scheduler
	if cfg.Backup.Enabled {
		scheduler = backup.NewScheduler(backups,
			time.Duration(cfg.Backup.IntervalMin)*time.Minute, cfg.Backup.DailyHour)
		scheduler.Start()
	}

	return &components{
		store:     recordStore,
		settings:  cfgStore,
		engine:    engine,
		boards:    boards,
		backups:   backups,
		scheduler: scheduler,
		ingestor:  ingestor,
		tracker:   tracker,
		dispatch:  dispatch,
	}, nil
}

func initializeBot(cfg *config.Config, comps *components) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("no bot token configured (set DISCORD_TOKEN)")
	}

	if err := bot.Initialize(cfg.Bot.Token); err != nil {
		return err
	}
	session := bot.GetSession()

	// Handlers must be in place before the gateway connects.
	session.SetupEventHandlers(comps.ingestor, comps.tracker)

	if err := session.Connect(); err != nil {
		return err
	}

	comps.dispatch.SetSession(session.GetDiscord())

	return commands.Initialize(session, commands.Deps{
		Store:       comps.store,
		Settings:    comps.settings,
		Engine:      comps.engine,
		Leaderboard: comps.boards,
		Backups:     comps.backups,
		Ingestor:    comps.ingestor,
		Voice:       comps.tracker,
	})
}

func waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutdown signal received...")
}

func stopComponents(comps *components) {
	if comps.apiServer != nil {
		if err := comps.apiServer.Stop(); err != nil {
			logging.Warn("API shutdown: %v", err)
		}
	}
	if comps.scheduler != nil {
		comps.scheduler.Stop()
	}

	// Tracker stop flushes pending voice minutes, ingestor stop drains the
	// queue; both must finish before the final save.
	comps.tracker.Stop()
	comps.ingestor.Stop()

	if session := bot.GetSession(); session != nil {
		session.Close()
	}

	if err := comps.store.Save(); err != nil {
		logging.Error("Final save failed: %v", err)
	}
	database.Close()
}

package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"engagekit/internal/app"
	"engagekit/pkg/banner"
	"engagekit/pkg/config"
	"engagekit/pkg/logger"
	"engagekit/pkg/models"
	"engagekit/pkg/pipeline"
	"engagekit/pkg/shutdown"
)

// build metadata - set via ldflags during build/release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load(".env")
	dbVal, cfgVal, setFlags := config.ParseCommandFlags()

	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])
	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		logger.Init()
		shutdown.Abort("failed to load config", err, "")
	}

	// flags win over config/env when explicitly provided
	dbPath := cfg.Storage.DBPath
	if setFlags["db"] || dbPath == "" {
		dbPath = dbVal
	}
	cfg.Storage.DBPath = dbPath

	if cfg.Logging.Level != "" {
		logger.InitWithLevel(cfg.Logging.Level)
	} else {
		logger.Init()
	}
	if cfg.Logging.InteractionsDir != "" {
		if err := logger.AttachInteractionFileSink(cfg.Logging.InteractionsDir); err != nil {
			shutdown.Abort("failed to attach interactions sink", err, dbPath)
		}
	}

	srcs := []string{}
	if len(setFlags) > 0 {
		srcs = append(srcs, "flags")
	}
	if envUsed {
		srcs = append(srcs, "env")
	}
	if _, err := config.Load(cfgPath); err == nil {
		srcs = append(srcs, "config")
	}
	verStr := version
	if commit != "none" {
		verStr += " (" + commit + ")"
	}
	if buildDate != "unknown" {
		verStr += " @ " + buildDate
	}
	banner.Print(cfg, dbPath, strings.Join(srcs, ", "), verStr)

	userID := os.Getenv("ENGAGEKIT_USER_ID")
	if userID == "" {
		userID = "local"
	}

	a, err := app.New(cfg, app.Options{
		LocalUser: models.NewChatUser(userID, os.Getenv("ENGAGEKIT_USER_NICKNAME"), true),
		Callbacks: pipeline.Callbacks{
			OnNewMessage: func(msg models.ChatMessage) {
				logger.Info("message_delivered", "channel", msg.RoomID, "msg", msg.ID, "sender", msg.Sender.ID)
			},
			OnMessageDeleted: func(channel, id string) {
				logger.Info("message_removed", "channel", channel, "msg", id)
			},
			OnError: func(channel string, err error) {
				logger.Warn("delivery_error", "channel", channel, "error", err)
			},
		},
		PresentWidget: func(res models.WidgetResource) {
			logger.Info("widget_presented", "widget", res.ID, "kind", string(res.Kind), "channel", res.Channel)
		},
		Version: version,
	})
	if err != nil {
		shutdown.Abort("session init failed", err, dbPath)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("session terminated", err, dbPath)
	}
}

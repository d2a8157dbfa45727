// Package main is the entry point for the Warden application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wardenlabs/warden/internal/commands"
	"github.com/wardenlabs/warden/internal/events"
	"github.com/wardenlabs/warden/pkg/config"
	"github.com/wardenlabs/warden/pkg/discord"
	"github.com/wardenlabs/warden/pkg/errors"
	"github.com/wardenlabs/warden/pkg/logger"
	"github.com/wardenlabs/warden/pkg/moderation"
	"github.com/wardenlabs/warden/pkg/modlog"
	"github.com/wardenlabs/warden/pkg/mqtt"
	"github.com/wardenlabs/warden/pkg/store"
	"github.com/wardenlabs/warden/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Starting Warden...", "Main")
	logger.Info(fmt.Sprintf("Working directory: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	errors.Init(cfg.ErrorWebhook, func() {
		if discordClient != nil {
			if err := discordClient.Stop(); err != nil {
				return
			}
		}
	})

	// Open the case store
	st, err := store.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error opening case store: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn(fmt.Sprintf("Error closing case store: %v", err), "Main")
		}
	}()

	// Initialize MQTT
	mqttClientID := "warden"
	if !cfg.IsProd() {
		mqttClientID = "warden_canary"
	}

	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
	)
	defer mqttClient.Destroy()

	// Initialize web server
	webServer := web.Init(cfg.LogsWebhook)
	web.SetupAPIRoutes(webServer, st)
	webServer.StartAsync(cfg.Port)

	// Initialize Discord client
	discordClient, err = discord.Init(cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	// Wire the moderation pipeline: store + platform + audit fanout
	audit := modlog.Fanout{
		&modlog.ChannelEmitter{Sender: discordClient.Session, ChannelID: cfg.ModLogChannelID},
		&mqtt.AuditEmitter{Communicator: mqttClient},
		modlog.LogEmitter{},
	}
	actions := moderation.New(st, discord.NewPlatformAdapter(discordClient.Session), audit, log)

	// Register commands and events
	commands.RegisterAll(discordClient, actions)
	events.RegisterAll(discordClient, st)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func(discordClient *discord.ExtendedClient) {
		if err := discordClient.Stop(); err != nil {
			logger.Warn(fmt.Sprintf("Error stopping Discord client: %v", err), "Main")
		}
	}(discordClient)

	if err := mqttClient.PublishStatus(true, discordClient.GuildCount()); err != nil {
		logger.Warn(fmt.Sprintf("Error publishing status: %v", err), "Main")
	}

	logger.Success("Warden started!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	_ = mqttClient.PublishStatus(false, 0)
	logger.System("Shutting down Warden...", "Main")
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}

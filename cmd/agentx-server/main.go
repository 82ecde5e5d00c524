// Package main provides the entry point for the AgentX server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentx/agentx/internal/config"
	"github.com/agentx/agentx/internal/container"
	"github.com/agentx/agentx/internal/errmgr"
	"github.com/agentx/agentx/internal/httpapi"
	"github.com/agentx/agentx/internal/logging"
	"github.com/agentx/agentx/internal/provider"
	"github.com/agentx/agentx/internal/repository"
	"github.com/agentx/agentx/internal/sessionmgr"
	"github.com/agentx/agentx/internal/tool"
)

var (
	port      = flag.Int("port", 0, "Server port (overrides config)")
	directory = flag.String("directory", "", "Working directory")
	memStore  = flag.Bool("memory", false, "Use an in-memory repository instead of the on-disk one")
	version   = flag.Bool("version", false, "Print version and exit")
)

const buildTime = "dev"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("agentx-server %s (%s)\n", httpapi.Version, buildTime)
		os.Exit(0)
	}

	workDir := *directory
	if workDir == "" {
		var err error
		workDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to get working directory: %v\n", err)
			os.Exit(1)
		}
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create data directories: %v\n", err)
		os.Exit(1)
	}

	appConfig, err := config.Load(workDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		appConfig.Port = *port
	}

	logging.Init(logging.Config{
		Level:  logging.ParseLevel(appConfig.LogLevel),
		Output: os.Stderr,
		Pretty: true,
	})
	log := logging.Logger
	log.Info().Str("version", httpapi.Version).Str("workdir", workDir).Msg("starting agentx-server")

	var repo repository.Repository
	if *memStore {
		repo = repository.NewMemory()
	} else {
		repo = repository.NewFile(appConfig.DataDir)
	}

	ctx := context.Background()
	providers, err := provider.InitializeProviders(ctx, appConfig)
	if err != nil {
		log.Warn().Err(err).Msg("some providers failed to initialize")
	}

	toolReg := tool.DefaultRegistry(workDir)
	errMgr := errmgr.New(log)

	c := container.New(repo, providers, toolReg, errMgr, workDir, log)
	sessions := sessionmgr.New(repo, c, log)

	srvCfg := httpapi.DefaultConfig()
	srvCfg.Port = appConfig.Port
	srvCfg.JWTSecret = appConfig.JWTSecret
	srvCfg.InviteCodeRequired = appConfig.InviteCodeRequired

	srv := httpapi.New(srvCfg, repo, c, sessions, providers, log)

	go func() {
		log.Info().Int("port", srvCfg.Port).Msg("listening")
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	c.DestroyAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
	log.Info().Msg("stopped")
}

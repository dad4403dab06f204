package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colinh09/ps-ai-battler/internal/api"
	"github.com/colinh09/ps-ai-battler/internal/bridge"
	"github.com/colinh09/ps-ai-battler/internal/config"
	"github.com/colinh09/ps-ai-battler/internal/constants"
	"github.com/colinh09/ps-ai-battler/internal/dex"
	"github.com/colinh09/ps-ai-battler/internal/llm"
	"github.com/colinh09/ps-ai-battler/internal/logging"
	"github.com/colinh09/ps-ai-battler/internal/session"
	"github.com/colinh09/ps-ai-battler/internal/showdown"
	"github.com/colinh09/ps-ai-battler/internal/version"

	"github.com/gin-gonic/gin"
)

func main() {
	checkEnvVars([]string{constants.EnvPSUsername, constants.EnvPSPassword})

	// Configuration path may be provided via PS_BATTLER_CONFIG or
	// defaults to ./ps_battler_config.json; a missing default file
	// runs on built-in defaults.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Missing or invalid battler configuration", err, logging.Fields{
			"hint": "provide a ps_battler_config.json with optional sections server{address}, showdown{websocket_url,action_url,avatar}, battle{opponent,format,auto_accept_challenges,auto_rechallenge,decision_timeout_seconds,turn_deadline_seconds,log_limit}, llm{base_url,model}, dex{db_path,data_dir}",
		})
	}

	// Allow the dex DB path to be configured via PS_BATTLER_DB. Seed
	// files under the data directory fill empty tables on first start.
	dbPath := os.Getenv(constants.EnvDexDB)
	if dbPath == "" {
		dbPath = cfg.DBPath
	}
	db, err := dex.OpenAndMigrate(dbPath, cfg.DataDir)
	if err != nil {
		logging.Fatal("Failed to initialize dex database", err, logging.Fields{"db_path": dbPath})
	}
	repo := dex.NewSQLiteRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := showdown.New(showdown.Options{
		WebSocketURL: cfg.WebSocketURL,
		ActionURL:    cfg.ActionURL,
		Username:     os.Getenv(constants.EnvPSUsername),
		Password:     os.Getenv(constants.EnvPSPassword),
		Avatar:       cfg.Avatar,
	})
	if err := client.Connect(ctx); err != nil {
		logging.Fatal("Failed to reach the simulator", err, logging.Fields{"url": cfg.WebSocketURL})
	}
	defer client.Close()

	// Without an LLM key the bot still battles on the scripted
	// type-effectiveness decider.
	var decider bridge.Decider = bridge.ScriptedDecider{}
	if key := os.Getenv(constants.EnvOpenAIAPIKey); key != "" {
		decider = llm.New(cfg.LLMBaseURL, cfg.LLMModel, key, cfg.DecisionTimeout)
	} else {
		logging.Warn("OPENAI_API_KEY not set, using the scripted decider", nil)
	}

	manager, err := session.NewManager(session.Options{
		Conn:                 client,
		Decider:              decider,
		Dex:                  repo,
		DecisionTimeout:      cfg.DecisionTimeout,
		TurnDeadline:         cfg.TurnDeadline,
		LogLimit:             cfg.LogLimit,
		OpponentUsername:     cfg.Opponent,
		ChallengeFormat:      cfg.Format,
		AutoRechallenge:      cfg.AutoRechallenge,
		AutoAcceptChallenges: cfg.AutoAcceptChallenges,
	})
	if err != nil {
		logging.Fatal("Failed to build session manager", err, nil)
	}

	managerDone := make(chan error, 1)
	go func() { managerDone <- manager.Run(ctx) }()

	handler := api.NewBattleHandler(manager)
	router := gin.Default()

	apiRoutes := router.Group(constants.RouteAPIPrefix)
	{
		apiRoutes.GET(constants.RouteHealthz, api.Healthz)
		apiRoutes.GET(constants.RouteVersion, api.Version)
		apiRoutes.GET(constants.RouteStatus, handler.Status)
		apiRoutes.POST(constants.RouteChallenges, handler.CreateChallenge)
		apiRoutes.GET(constants.RouteBattles, handler.ListBattles)
		apiRoutes.GET(constants.RouteBattleByID, handler.GetBattle)
		apiRoutes.POST(constants.RouteBattleForfeit, handler.ForfeitBattle)
		apiRoutes.GET(constants.RouteSummaries, handler.ListSummaries)
	}

	server := &http.Server{Addr: cfg.ServerAddress, Handler: router}
	go func() {
		logging.Info("Server started", logging.Fields{
			constants.LogFieldAddr: cfg.ServerAddress,
			"version":              version.String(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Failed to start server", err, nil)
		}
	}()

	// Run until a signal arrives or the simulator stream ends.
	select {
	case <-ctx.Done():
		logging.Info("Shutting down", nil)
	case err := <-managerDone:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Simulator connection terminated", err, nil)
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server shutdown failed", err, nil)
	}
}

func checkEnvVars(vars []string) {
	for _, v := range vars {
		if os.Getenv(v) == "" {
			logging.Fatal("Required environment variable not set", nil, logging.Fields{"var": v})
		}
	}
}

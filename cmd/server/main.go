package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/fundquota-backend/internal/adapter/grpc"
	"github.com/simaogato/fundquota-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/fundquota-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/fundquota-backend/internal/adapter/repository/sqlstore"
	"github.com/simaogato/fundquota-backend/internal/adapter/scheduler"
	"github.com/simaogato/fundquota-backend/internal/config"
	"github.com/simaogato/fundquota-backend/internal/logger"
	"github.com/simaogato/fundquota-backend/internal/usecase/contribution"
	"github.com/simaogato/fundquota-backend/internal/usecase/dashboard"
	"github.com/simaogato/fundquota-backend/internal/usecase/editor"
	"github.com/simaogato/fundquota-backend/internal/usecase/investor"
	"github.com/simaogato/fundquota-backend/internal/usecase/marking"
	"github.com/simaogato/fundquota-backend/internal/usecase/seeder"
	"github.com/simaogato/fundquota-backend/internal/usecase/trade"
	"github.com/simaogato/fundquota-backend/internal/usecase/updatecheck"
	"github.com/simaogato/fundquota-backend/internal/usecase/valuation"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = ""

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to the TOML config file")
	flag.Parse()

	// 1. Load configuration and logging
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if version == "" {
		version = cfg.App.Version
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Open the ledger
	store, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to open ledger")
	}
	defer store.Close()

	// Initialize System Seeder and run it
	if err := seeder.NewSystemSeeder(store.Positions()).Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed cash position")
	}

	// 3. Initialize Services (Use Cases)
	valuationService := valuation.NewValuationService(store, *cfg.Valuation.StrictReads)
	policy := contribution.Policy{
		RequireMark:         *cfg.Contribution.RequireMark,
		MaxMarkAge:          cfg.Contribution.MaxMarkAge.Duration,
		AllowOverWithdrawal: cfg.Contribution.AllowOverWithdrawal,
	}

	server := &grpcadapter.Server{
		ContributionService: contribution.NewContributionService(store, valuationService, policy),
		TradeService:        trade.NewTradeService(store, valuationService),
		MarkingService:      marking.NewMarkingService(store, valuationService),
		DashboardService:    dashboard.NewDashboardService(store, valuationService),
		InvestorService:     investor.NewInvestorService(store, valuationService),
		ValuationService:    valuationService,
		EditorService:       editor.NewEditorService(store),
	}
	if cfg.Update.Enabled {
		server.UpdateService = updatecheck.NewUpdateService(updatecheck.Config{
			APIBase:        cfg.Update.APIBase,
			Owner:          cfg.Update.Owner,
			Repo:           cfg.Update.Repo,
			CurrentVersion: version,
			Timeout:        cfg.Update.Timeout.Duration,
		})
	}

	// 4. Start the quota snapshot scheduler
	sched := scheduler.NewScheduler(ctx, valuationService)
	if err := sched.Register(cfg.Schedule.QuotaSnapshot); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled tasks")
	}
	sched.Start()

	// 5. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(),
			grpcadapter.AuthInterceptor(cfg.GRPC.APIToken),
		),
	)
	grpcadapter.RegisterFundServiceServer(grpcServer, server)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPC.Addr).Msg("Failed to listen")
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.GRPC.Addr).Str("version", version).Msg("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("Failed to serve gRPC server")
		}
	}()

	// Graceful shutdown
	waitForShutdown(grpcServer, sched)
}

func openStore(ctx context.Context, cfg *config.Config) (*sqlstore.Store, error) {
	if cfg.Storage.Driver == config.DriverPostgres {
		return postgres.Open(ctx, cfg.Storage.DSN)
	}
	return sqlite.Open(ctx, cfg.Storage.Path)
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the server
func waitForShutdown(grpcServer *grpclib.Server, sched *scheduler.Scheduler) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Info().Stringer("signal", sig).Msg("Shutting down gracefully")

	sched.Stop()
	grpcServer.GracefulStop()
	log.Info().Msg("gRPC server stopped")
}

// Command ingestd is the primary service entrypoint: it wires
// configuration, logging, storage, the reference-data store, and the
// Filter Pipeline/Lifecycle Engine/Correlator/Write Batcher into a running
// Scheduler, and serves the health/status HTTP surface alongside it.
// Grounded on the teacher's cmd/server/main.go wiring order (logging ->
// Postgres (sqlx+GORM) -> router -> metrics endpoint -> ListenAndServe),
// extended with the Redis connection and background workers this domain
// adds.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vatpac-net/ingestd/internal/airspace"
	"github.com/vatpac-net/ingestd/internal/batch"
	"github.com/vatpac-net/ingestd/internal/cache"
	"github.com/vatpac-net/ingestd/internal/completion"
	"github.com/vatpac-net/ingestd/internal/config"
	"github.com/vatpac-net/ingestd/internal/correlator"
	"github.com/vatpac-net/ingestd/internal/db"
	"github.com/vatpac-net/ingestd/internal/events"
	"github.com/vatpac-net/ingestd/internal/feed"
	"github.com/vatpac-net/ingestd/internal/filter"
	"github.com/vatpac-net/ingestd/internal/httpapi"
	"github.com/vatpac-net/ingestd/internal/lifecycle"
	"github.com/vatpac-net/ingestd/internal/logging"
	"github.com/vatpac-net/ingestd/internal/repositories"
	"github.com/vatpac-net/ingestd/internal/scheduler"
	"github.com/vatpac-net/ingestd/internal/store"
	"github.com/vatpac-net/ingestd/internal/workers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("ingestd: loading config: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("ingestd: initializing logger: %v", err)
	}
	defer logging.Close()

	logger := logging.GetLogger()
	logger.Infow("ingestd starting up", "environment", cfg.AppEnv)

	if err := db.InitPostgres(cfg); err != nil {
		logger.Fatalw("connecting to postgres (sqlx)", "error", err)
	}
	ormDB, err := db.InitPostgresORM(cfg.PostgresDSN())
	if err != nil {
		logger.Fatalw("connecting to postgres (gorm)", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := db.Bootstrap(ctx, db.DB); err != nil {
		logger.Fatalw("bootstrapping schema", "error", err)
	}

	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.Fatalw("connecting to redis", "error", err)
	}
	defer redisClient.Close()

	memCache := cache.NewMemoryCache(time.Minute, 5*time.Minute)

	ref := airspace.NewStore()
	ref.SetSectorCache(memCache)
	if err := reloadAirspace(cfg, ref); err != nil {
		logger.Fatalw("loading reference data", "error", err)
	}

	const callsignCaseSensitive = true
	pipeline := filter.New(ref, callsignCaseSensitive, cfg.CallsignFilterEnabled)

	const transceiverRetention = 30 * time.Minute
	coalescer := store.New(transceiverRetention)
	feedClient := feed.New(cfg)

	queue := events.New(redisClient)
	if err := queue.EnsureGroup(ctx); err != nil {
		logger.Fatalw("ensuring completion consumer group", "error", err)
	}

	handler := completion.New(coalescer, queue)
	batcher := batch.New(ormDB, cfg.BatchThreshold, cfg.FlushInterval)
	persister := scheduler.NewFlightPersister(batcher)
	engine := lifecycle.New(cfg, coalescer, ref, handler, handler, persister)

	archiver := repositories.NewControllerArchiveRepository(db.DB)

	transceiverRepo := repositories.NewTransceiverRepository(db.DB)
	occupancyRepo := repositories.NewOccupancyRepository(db.DB)
	summaryRepo := repositories.NewSummaryRepository(db.DB)

	corr := correlator.New(transceiverRepo)
	corr.SetCache(memCache)
	summaryBuilder := completion.NewSummaryBuilder(corr, occupancyRepo, summaryRepo)
	// workerID is per-process so two replicas of this service never
	// collide on the same Redis consumer name (grounded on the teacher's
	// uuid.New().String() identifier pattern, internal/common/session_service.go).
	workerID := fmt.Sprintf("ingestd-%s", uuid.New().String()[:8])
	completionWorker := workers.NewCompletionWorker(workerID, queue, summaryBuilder)

	orch := scheduler.New(cfg, feedClient, pipeline, coalescer, ref, engine, batcher, handler, archiver)

	upSince := time.Now()
	router := httpapi.NewRouter(db.DB, orch, upSince)
	srv := &http.Server{Addr: ":8080", Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orch.Run(gctx) })
	g.Go(func() error { return completionWorker.Start(gctx, 4) })
	g.Go(func() error {
		logger.Infow("health/status server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("ingestd exiting with error", "error", err)
		os.Exit(1)
	}
	logger.Infow("ingestd stopped cleanly")
}

// reloadAirspace loads every reference-data file configured and installs
// it into the Store. Exposed separately from main so a future SIGHUP-driven
// reload handler (spec §4.B "periodic reload") can call it directly.
func reloadAirspace(cfg *config.Config, ref *airspace.Store) error {
	airports, err := airspace.LoadAirports(cfg.AirportsCSVPath)
	if err != nil {
		return err
	}
	boundary, err := airspace.LoadBoundary(cfg.BoundaryGeoJSONPath)
	if err != nil {
		return err
	}
	sectors, err := airspace.LoadSectors(cfg.SectorsGeoJSONPath)
	if err != nil {
		return err
	}
	callsigns, err := airspace.LoadCallsigns(cfg.ControllerCallsignsPath)
	if err != nil {
		return err
	}
	ref.Reload(airports, boundary, sectors, callsigns, cfg.RegionLetter)
	return nil
}

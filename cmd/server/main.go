package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/snow-fourth/mc3DDD/internal/persistence/indexdb"
	"github.com/snow-fourth/mc3DDD/internal/persistence/slots"
	"github.com/snow-fourth/mc3DDD/internal/sim/physics"
	"github.com/snow-fourth/mc3DDD/internal/sim/tuning"
	"github.com/snow-fourth/mc3DDD/internal/sim/world"
	"github.com/snow-fourth/mc3DDD/internal/sim/world/terrain"
	"github.com/snow-fourth/mc3DDD/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		worldID    = flag.String("world", "world_1", "world id")
		seed       = flag.Int64("seed", 0, "world seed (overrides tuning when nonzero)")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite save-slot index")
		loadLatest = flag.Bool("load_latest_snapshot", false, "resume from the most recent save slot")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Fatalf("load tuning: %v", err)
	}
	if *seed != 0 {
		tune.Seed = *seed
	}

	worldDir := filepath.Join(*dataDir, "worlds", *worldID)
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(worldDir, "index.db"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
	}
	store := slots.New(*dataDir, *worldID, tune.Seed, idx, logger)

	reg := prometheus.NewRegistry()
	metrics := world.NewMetrics(reg)

	engine := world.NewEngine(world.EngineConfig{
		WorldID:    *worldID,
		TickRateHz: tune.TickRateHz,
		Seed:       tune.Seed,
		Movement: physics.MoverConfig{
			MoveSpeed:   tune.Movement.MoveSpeed,
			FlySpeed:    tune.Movement.FlySpeed,
			Gravity:     tune.Movement.Gravity,
			JumpImpulse: tune.Movement.JumpImpulse,
		},
		SpawnX:   tune.Spawn.X,
		SpawnZ:   tune.Spawn.Z,
		SpawnYaw: tune.Spawn.Yaw,
	}, terrain.NewGenerator(tune.Seed), store, metrics, logger)

	if *loadLatest {
		if err := resumeLatest(engine, store, logger); err != nil {
			logger.Fatalf("resume: %v", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	engineDone := make(chan error, 1)
	go func() { engineDone <- engine.Run(ctx) }()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/v1/ws", ws.NewServer(engine, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Printf("world %s seed %d listening on %s", *worldID, tune.Seed, *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("ListenAndServe: %v", err)
	}

	if err := <-engineDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("engine: %v", err)
	}
	logger.Printf("shutdown complete")
}

// resumeLatest restores the newest save slot into the engine's world
// before the loop starts. No saves yet is not an error.
func resumeLatest(engine *world.Engine, store *slots.Store, logger *log.Logger) error {
	slot, snap, err := store.LoadLatest()
	if errors.Is(err, fs.ErrNotExist) {
		logger.Printf("no saves found, starting fresh")
		return nil
	}
	if err != nil {
		return err
	}
	if err := engine.Restore(snap); err != nil {
		return err
	}
	logger.Printf("resumed from slot %q", strings.TrimSpace(slot))
	return nil
}

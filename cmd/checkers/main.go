// Command checkers runs the checkers engine behind a line protocol on
// stdin/stdout, or behind an HTTP JSON API with -http.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/hailam/checkers/internal/engine"
	"github.com/hailam/checkers/internal/protocol"
	"github.com/hailam/checkers/internal/server"
	"github.com/hailam/checkers/internal/storage"
)

const memoryDB = ":memory:"

var (
	dbDir        = flag.String("db", "", "database directory (default: platform data dir, "+memoryDB+" for no persistence)")
	settingsFile = flag.String("settings", "", "import settings from a JSON file")
	httpAddr     = flag.String("http", "", "serve the HTTP API on this address instead of the line protocol")
	depthWhite   = flag.Int("depth-white", 0, "search depth for White")
	depthBlack   = flag.Int("depth-black", 0, "search depth for Black")
	scoring      = flag.String("scoring", "", "scoring mode: NumberOnly or NumberAndPotential")
	noRandom     = flag.Bool("norandom", false, "fixed move order (seed 0)")
	seed         = flag.Int64("seed", -1, "random seed for move ordering")
	cpuprofile   = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	if err := run(); err != nil {
		log.Printf("checkers: %v", err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run() error {
	store, err := openStorage(*dbDir)
	if err != nil {
		return err
	}
	defer store.Close()

	settings, err := loadSettings(store)
	if err != nil {
		return err
	}

	var rnd *engine.RandSource
	if *seed >= 0 {
		rnd = engine.NewRandSource(*seed)
	} else {
		rnd = engine.NewRandSourceFor(settings.NoRandom)
	}

	cfg := engine.Config{Scoring: settings.Scoring(), Rand: rnd}
	if settings.CacheSize > 0 {
		cache, err := engine.NewResultCache(settings.CacheSize)
		if err != nil {
			return err
		}
		defer func() {
			log.Printf("result cache: %d hits, %.1f%% hit rate", cache.Hits(), cache.HitRate())
			cache.Close()
		}()
		cfg.Cache = cache
	}
	eng := engine.NewEngine(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *httpAddr != "" {
		return server.New(eng, store).ListenAndServe(ctx, *httpAddr)
	}
	return protocol.New(eng, settings, store).Run(ctx, os.Stdin, os.Stdout)
}

func openStorage(dir string) (*storage.Storage, error) {
	if dir == memoryDB {
		return storage.OpenInMemory()
	}

	store, err := storage.Open(dir)
	if err != nil {
		return nil, err
	}

	first, err := store.IsFirstLaunch()
	if err != nil {
		store.Close()
		return nil, err
	}
	if first {
		if err := store.SaveSettings(storage.DefaultSettings()); err != nil {
			store.Close()
			return nil, err
		}
		if err := store.MarkFirstLaunchComplete(); err != nil {
			store.Close()
			return nil, err
		}
		log.Printf("first launch: default settings stored")
	}
	return store, nil
}

// loadSettings reads stored settings, imports -settings and applies flag overrides.
func loadSettings(store *storage.Storage) (*storage.Settings, error) {
	settings, err := store.LoadSettings()
	if err != nil {
		return nil, err
	}

	if *settingsFile != "" {
		if settings, err = storage.LoadSettingsFile(*settingsFile); err != nil {
			return nil, err
		}
		if err := store.SaveSettings(settings); err != nil {
			return nil, err
		}
		log.Printf("settings imported from %s", *settingsFile)
	}

	if *depthWhite > 0 {
		settings.WhiteBotLevel = *depthWhite
	}
	if *depthBlack > 0 {
		settings.BlackBotLevel = *depthBlack
	}
	if *scoring != "" {
		settings.ScoringMode = *scoring
	}
	if *noRandom {
		settings.NoRandom = true
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

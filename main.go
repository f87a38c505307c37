package main

import (
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mahjong-handle/go-server/internal/gen"
	"github.com/mahjong-handle/go-server/internal/httpserver"
	"github.com/mahjong-handle/go-server/internal/rules"
	"github.com/mahjong-handle/go-server/internal/score"
	"github.com/mahjong-handle/go-server/internal/store"
	"os"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ttl := time.Duration(envInt("ENTITY_TTL_HOURS", 24)) * time.Hour
	var st store.Store
	if url := os.Getenv("REDIS_URL"); url != "" {
		var err error
		st, err = store.NewRedis(url, ttl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
	} else {
		st = store.NewMemory(ttl)
	}

	// SQLite is optional: without it the daily mode and the result archive
	// are simply disabled.
	db, err := openDB(getEnv("SQLITE_PATH", "./data/app.db"))
	if err != nil {
		log.Warn().Err(err).Msg("sqlite unavailable; daily mode disabled")
		db = nil
	} else if err := migrate(db); err != nil {
		log.Warn().Err(err).Msg("migrations failed; daily mode disabled")
		_ = db.Close()
		db = nil
	}

	ev := rules.NewStandard()
	g := gen.New(ev, envInt("GEN_MAX_RESAMPLE", gen.DefaultMaxResample))

	srv := httpserver.New(st, db, g, ev, score.Default)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Str("store", st.Kind()).Msg("starting go-server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" { return v }
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

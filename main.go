package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/alchemy/internal/config"
	"github.com/robalobadob/alchemy/internal/httpserver"
	"github.com/robalobadob/alchemy/internal/recipes"
	"github.com/robalobadob/alchemy/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	book, err := recipes.LoadBook(cfg.RecipesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load recipe book")
	}
	cal, err := recipes.LoadCalendar(cfg.PuzzlesFile, cfg.DailySalt, book)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load puzzle calendar")
	}
	pinned, pool := cal.Size()
	log.Info().Int("recipes", book.Len()).Int("pinned", pinned).Int("pool", pool).Msg("recipes loaded")

	st, err := store.Open(cfg.DatabasePath, zerolog.GlobalLevel() > zerolog.DebugLevel)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("failed to open database")
	}
	defer st.Close()

	srv := httpserver.New(httpserver.Options{
		Store:        st,
		Book:         book,
		Calendar:     cal,
		JWTSecret:    cfg.JWTSecret,
		JWTExpiry:    cfg.JWTExpiry(),
		ClientOrigin: cfg.ClientOrigin,
	})
	hs := &http.Server{Addr: ":" + cfg.Port, Handler: srv.Router(), ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownWait)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("port", cfg.Port).Msg("starting alchemy server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
}

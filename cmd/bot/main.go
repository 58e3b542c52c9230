package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eliseohh/epicfreebot/internal/bot"
	"github.com/eliseohh/epicfreebot/internal/catalog"
	"github.com/eliseohh/epicfreebot/internal/config"
	"github.com/eliseohh/epicfreebot/internal/digest"
	"github.com/eliseohh/epicfreebot/internal/health"
	"github.com/eliseohh/epicfreebot/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrMissingToken) {
		fmt.Fprintln(os.Stderr, "Error: TELEGRAM_BOT_TOKEN not found in environment variables")
		fmt.Fprintln(os.Stderr, "Please create a .env file with your bot token:")
		fmt.Fprintln(os.Stderr, "TELEGRAM_BOT_TOKEN=your_bot_token_here")
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Subscription store
	db, err := store.Open(ctx, cfg.DbPath)
	if err != nil {
		log.Printf("Fatal: %v", err)
		return 1
	}
	defer db.Close()

	// 2. Catalog, shared through Redis when configured
	var cache catalog.Cache = catalog.NewMemoryCache(catalog.DefaultTTL)
	if cfg.RedisAddr != "" {
		rc, err := catalog.NewRedisCache(ctx, cfg.RedisAddr, catalog.DefaultTTL)
		if err != nil {
			log.Printf("⚠ Redis unavailable, using in-memory cache: %v", err)
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	cat := catalog.NewClient(cache)

	// 3. Health endpoint
	hs := health.NewServer(cfg.Port)
	hs.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Printf("health shutdown: %v", err)
		}
	}()

	// 4. Bot
	b, err := bot.New(bot.Config{
		Token:       cfg.BotToken,
		PollTimeout: cfg.PollTimeout,
		Locale:      cfg.StoreLocale,
		Country:     cfg.StoreCountry,
	}, db, cat)
	if err != nil {
		log.Printf("Bot init failed: %v", err)
		return 1
	}

	// 5. Daily digest
	job := digest.NewJob(db, cat, b, cfg.StoreLocale, cfg.StoreCountry)
	schedDone := digest.NewScheduler(job, cfg.DigestAt).Start(ctx)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		b.Stop()
	}()

	fmt.Println("🤖 Bot Online. Listening...")
	b.Start()
	<-schedDone
	return 0
}

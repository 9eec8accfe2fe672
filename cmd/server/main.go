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

	"vpnshop/config"
	"vpnshop/internal/database"
	"vpnshop/internal/notifier"
	"vpnshop/internal/panel"
	"vpnshop/internal/router"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}
	cfg := config.Load()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var provisioner panel.Provisioner = panel.Unavailable{}
	if cfg.Panel.BaseURL != "" {
		client, err := panel.NewClient(cfg.Panel)
		if err != nil {
			log.Fatalf("panel client: %v", err)
		}
		provisioner = client
	} else {
		log.Println("[panel] PANEL_BASE_URL not set: paid purchases will raise reconciliation alerts")
	}

	var notif notifier.Notifier = notifier.Nop{}
	if cfg.Telegram.BotToken != "" {
		tg, err := notifier.NewTelegram(cfg.Telegram)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
		notif = tg
	} else {
		log.Println("[notifier] BOT_TOKEN not set: notifications disabled")
	}

	engine := router.Setup(cfg, db, provisioner, notif)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	fmt.Println("server stopped")
}

package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Wanyuxiang-code/Financial-NewsFeed/db"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/config"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/handler"
	"github.com/Wanyuxiang-code/Financial-NewsFeed/internal/repository"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	watchlist, err := config.LoadWatchlist(cfg.WatchlistPath)
	if err != nil {
		log.Fatalf("error loading watchlist: %v", err)
	}

	err = db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	runRepo := repository.NewRunRepository(db.DB)
	runHandler := handler.NewRunHandler(runRepo, watchlist)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/runs", runHandler.GetRuns)
	r.GET("/runs/:id", runHandler.GetRun)
	r.GET("/runs/:id/digest", runHandler.GetRunDigest)
	r.GET("/watchlist", runHandler.GetWatchlist)
	r.GET("/health", runHandler.GetHealth)

	err = r.Run(":8080")
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

// Package main provides the Joule SaaS API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kamilpajak/joule/internal/api"
	"github.com/kamilpajak/joule/internal/auth"
	"github.com/kamilpajak/joule/internal/database"
	"github.com/kamilpajak/joule/internal/reasoning"
)

func main() {
	var (
		port        = flag.String("port", getEnv("PORT", "8080"), "Server port")
		migrateOnly = flag.Bool("migrate", false, "Run migrations and exit")
	)
	flag.Parse()

	// Required environment variables
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.Migrate(dbURL); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations complete")

	if *migrateOnly {
		return
	}

	// Connect to database
	ctx := context.Background()
	db, err := database.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize auth verifier
	issuer := os.Getenv("AUTH_ISSUER")
	audience := os.Getenv("AUTH_AUDIENCE")
	if issuer == "" {
		log.Fatal("AUTH_ISSUER is required (e.g., https://auth.example.com)")
	}

	authVerifier, err := auth.NewVerifier(auth.Config{
		Issuer:   issuer,
		Audience: audience,
	})
	if err != nil {
		log.Fatalf("Failed to create auth verifier: %v", err)
	}

	// Create API server
	server, err := api.NewServer(api.Config{
		DB:           db,
		AuthVerifier: authVerifier,
		Collaborator: newCollaborator(),
	})
	if err != nil {
		log.Fatalf("Failed to create API server: %v", err)
	}

	// Create HTTP server
	addr := fmt.Sprintf(":%s", *port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting server on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped")
}

// newCollaborator picks the reasoning backend from the environment. Without
// an API key the deterministic offline collaborator is used; assessments
// still run, with the research and critique stages answered locally.
func newCollaborator() reasoning.Collaborator {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		collab, err := reasoning.NewAnthropic()
		if err == nil {
			log.Println("Using Anthropic reasoning collaborator")
			return collab
		}
		log.Printf("Anthropic collaborator unavailable: %v", err)
	}
	if os.Getenv("GOOGLE_API_KEY") != "" {
		collab, err := reasoning.NewGemini()
		if err == nil {
			log.Println("Using Gemini reasoning collaborator")
			return collab
		}
		log.Printf("Gemini collaborator unavailable: %v", err)
	}
	log.Println("No reasoning API key set; using offline collaborator")
	return &reasoning.Canned{}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ewilliams-labs/segue/internal/adapters/analysis"
	"github.com/ewilliams-labs/segue/internal/adapters/beepout"
	"github.com/ewilliams-labs/segue/internal/adapters/ollama"
	"github.com/ewilliams-labs/segue/internal/adapters/rest"
	"github.com/ewilliams-labs/segue/internal/adapters/simulated"
	"github.com/ewilliams-labs/segue/internal/adapters/sqlite"
	"github.com/ewilliams-labs/segue/internal/adapters/ws"
	"github.com/ewilliams-labs/segue/internal/core/ports"
	"github.com/ewilliams-labs/segue/internal/core/services"
	"github.com/ewilliams-labs/segue/internal/worker"
)

func main() {
	// 1. Configuration (Environment Variables)
	// It's best practice to crash early if required config is missing.
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// 2. Initialize "Driven" Adapters (The Tools)
	// -- Database Adapter
	storageDriver := os.Getenv("STORAGE_DRIVER")
	if storageDriver == "" {
		storageDriver = "sqlite"
	}

	var repo ports.TrackRepository
	var repoCloser func() error

	switch storageDriver {
	case "sqlite":
		dbPath := os.Getenv("SEGUE_DB")
		if dbPath == "" {
			dbPath = "segue.db"
		}
		dbAdapter, err := sqlite.NewAdapter(dbPath)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize database: %v", err)
		}
		repo = dbAdapter
		repoCloser = dbAdapter.Close
	case "postgres":
		log.Fatal("Postgres driver not yet implemented")
	default:
		log.Fatalf("Unknown storage driver: %s", storageDriver)
	}
	defer repoCloser()

	// -- Deck Outputs
	// The beep driver needs a real audio device; the simulated driver is a
	// clock-backed stand-in for headless hosts and CI.
	deckDriver := os.Getenv("DECK_DRIVER")
	if deckDriver == "" {
		deckDriver = "beep"
	}

	var outA, outB ports.DeckOutput
	switch deckDriver {
	case "beep":
		if !beepout.AudioAvailable {
			log.Fatal("FATAL: audio playback is not supported in this build; set DECK_DRIVER=simulated")
		}
		outA = beepout.NewDeck()
		outB = beepout.NewDeck()
	case "simulated":
		outA = simulated.NewPlayer()
		outB = simulated.NewPlayer()
	default:
		log.Fatalf("Unknown deck driver: %s", deckDriver)
	}

	// -- Feature Analysis Service (optional)
	var analyzer ports.FeatureAnalyzer
	if analysisURL := os.Getenv("ANALYSIS_URL"); analysisURL != "" {
		clientID := os.Getenv("ANALYSIS_CLIENT_ID")
		clientSecret := os.Getenv("ANALYSIS_CLIENT_SECRET")
		tokenURL := os.Getenv("ANALYSIS_TOKEN_URL")
		if clientID != "" && clientSecret != "" && tokenURL != "" {
			analyzer = analysis.NewClientCredentials(analysisURL, clientID, clientSecret, tokenURL)
		} else {
			analyzer = analysis.NewClient(http.DefaultClient, analysisURL)
		}
	} else {
		log.Println("ANALYSIS_URL not set; tracks will be analyzed with the local scanner only")
	}

	// -- Setlist Arranger
	arranger := ollama.NewClient(os.Getenv("OLLAMA_HOST"))

	// 3. Initialize Core Logic (The Driver)
	// We inject the specific adapters into the agnostic services. The
	// compiler guarantees each adapter satisfies its port.
	library := services.NewLibrary(repo, arranger)
	transport := services.NewTransport(outA, outB)
	dj := services.NewConductor(transport, services.NewNavigator())
	defer dj.Stop()

	// 4. Initialize "Driving" Adapters (The Interface)
	pool := worker.NewPool(repo, analyzer, 100)
	pool.Start(2)
	defer pool.Stop()

	hub := ws.NewHub()
	go hub.Run(dj.Events())

	handler := rest.NewHandler(library, dj, pool, hub)

	// 5. Start the Server
	log.Println("------------------------------------------------")
	log.Printf("🎧 Segue API is running on http://localhost%s", addr)
	log.Printf("   decks=%s storage=%s", deckDriver, storageDriver)
	log.Println("------------------------------------------------")

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Fatal(err)
		}
	case <-ctx.Done():
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}
}

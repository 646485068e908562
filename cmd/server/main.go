/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the GuineeGest payroll aggregation server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with domain services
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port            HTTP server port (default: 8080)
  -db              SQLite database path (default: guineegest.db)
                   Use ":memory:" for in-memory database
  -deduction-rate  Flat deduction rate applied to gross at close
                   (default: 0, e.g. "0.05" for 5%)
  -close-workers   Concurrent breakdown computations during close
  -close-timeout   Overall deadline for the close transition

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/guineegest.db"

  # Run with in-memory database
  ./server -db=":memory:"

  # Apply a 5% flat deduction at close
  ./server -deduction-rate="0.05"

ENVIRONMENT:
  No environment variables currently. All config via flags.
  Future: DATABASE_URL, PORT, LOG_LEVEL

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
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

	"github.com/shopspring/decimal"

	"github.com/Faraleno2022/guineegest-sub000/api"
	"github.com/Faraleno2022/guineegest-sub000/payroll"
	"github.com/Faraleno2022/guineegest-sub000/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "guineegest.db", "SQLite database path")
	deductionRate := flag.String("deduction-rate", "0", "flat deduction rate applied to gross at close")
	closeWorkers := flag.Int("close-workers", 8, "concurrent breakdown computations during close")
	closeTimeout := flag.Duration("close-timeout", 2*time.Minute, "overall deadline for the close transition")
	flag.Parse()

	rate, err := decimal.NewFromString(*deductionRate)
	if err != nil {
		log.Fatalf("Invalid -deduction-rate %q: %v", *deductionRate, err)
	}

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Initialize handler with domain services
	handler := api.NewHandler(store,
		payroll.WithDeductionRate(rate),
		payroll.WithWorkers(*closeWorkers),
		payroll.WithCloseTimeout(*closeTimeout),
	)

	// Create router
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on http://localhost:%d", *port)
		log.Printf("📊 API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

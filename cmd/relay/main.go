package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/awesomecuber/tron/internal/signal"
)

func main() {
	logger := log.Default()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("skipping .env: %v", err)
	}

	addr := "127.0.0.1:3536"
	if raw := os.Getenv("RELAY_LISTEN_ADDR"); raw != "" {
		addr = raw
	}

	relay := signal.NewRelay(signal.RelayConfig{Logger: logger})
	srv := &http.Server{Addr: addr, Handler: http.HandlerFunc(relay.Handle)}
	logger.Printf("relay listening on %s", addr)

	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("relay failed: %v", err)
	}
}

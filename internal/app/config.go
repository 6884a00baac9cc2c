package app

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/awesomecuber/tron/internal/game"
	"github.com/awesomecuber/tron/internal/telemetry"
)

// Config carries everything the client binary needs to reach a match.
// TickRate and InputDelayFrames live inside Tuning because both peers
// must agree on them.
type Config struct {
	SignalServerAddr string
	RoomName         string
	UDPListenAddr    string
	LogJSONPath      string
	Tuning           game.Tuning
}

// DefaultConfig matches a relay and a peer on the same machine.
func DefaultConfig() Config {
	return Config{
		SignalServerAddr: "ws://127.0.0.1:3536",
		RoomName:         "arena",
		UDPListenAddr:    "127.0.0.1:0",
		Tuning:           game.DefaultTuning(),
	}
}

// LoadConfig layers an optional .env file and process environment
// variables over the defaults. Invalid values are logged and fall back.
func LoadConfig(logger telemetry.Logger) Config {
	if logger == nil {
		logger = telemetry.LoggerFunc(func(string, ...any) {})
	}
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Printf("skipping .env: %v", err)
	}

	cfg := DefaultConfig()
	if raw := os.Getenv("SIGNAL_SERVER_ADDR"); raw != "" {
		cfg.SignalServerAddr = raw
	}
	if raw := os.Getenv("ROOM_NAME"); raw != "" {
		cfg.RoomName = raw
	}
	if raw := os.Getenv("UDP_LISTEN_ADDR"); raw != "" {
		cfg.UDPListenAddr = raw
	}
	if raw := os.Getenv("LOG_JSON_PATH"); raw != "" {
		cfg.LogJSONPath = raw
	}
	if raw := os.Getenv("TICK_RATE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil {
			cfg.Tuning.TickRate = value
		} else {
			logger.Printf("invalid TICK_RATE=%q: %v", raw, err)
		}
	}
	if raw := os.Getenv("INPUT_DELAY_FRAMES"); raw != "" {
		if value, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cfg.Tuning.InputDelayFrames = value
		} else {
			logger.Printf("invalid INPUT_DELAY_FRAMES=%q: %v", raw, err)
		}
	}
	cfg.Tuning = cfg.Tuning.Normalized()
	return cfg
}

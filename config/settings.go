// Package config assembles runtime settings from the environment,
// optionally loaded from a .env file via github.com/joho/godotenv.
// Settings is constructed explicitly and passed to callers rather than
// held behind a package-level global, so components stay unit-testable
// in isolation.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/iron-fish/chaincore/consensus"
)

// Settings holds every ambient knob the chain core needs at process
// startup.
type Settings struct {
	DataDir string

	RPCTimeout time.Duration

	MaxBlocksPerMessage   int
	RecentBlockCacheSize  int
	InsertionQueueCapacity int

	LogLevel string

	Consensus *consensus.Consensus
}

// Load reads settings from the environment, loading envFile first if it
// exists (godotenv.Load is a no-op-friendly miss if the file is absent).
func Load(envFile string) *Settings {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	return &Settings{
		DataDir:                getEnv("IRONFISH_DATA_DIR", "./ironfish-data"),
		RPCTimeout:             time.Duration(getEnvInt("IRONFISH_RPC_TIMEOUT_MILLIS", 10_000)) * time.Millisecond,
		MaxBlocksPerMessage:    getEnvInt("IRONFISH_MAX_BLOCKS_PER_MESSAGE", 32),
		RecentBlockCacheSize:   getEnvInt("IRONFISH_RECENT_BLOCK_CACHE_SIZE", 500),
		InsertionQueueCapacity: getEnvInt("IRONFISH_INSERTION_QUEUE_CAPACITY", 0),
		LogLevel:               getEnv("IRONFISH_LOG_LEVEL", "info"),
		Consensus:              consensus.Mainnet(),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

package main

import (
	"os"
	"testing"

	"github.com/joho/godotenv"
)

// TestMain picks up a local .env so the command tests see the same API keys and DATABASE_URL
// as the developer's shell. CI has no .env.
func TestMain(m *testing.M) {
	_ = godotenv.Load()

	os.Exit(m.Run())
}

package main

import (
	_ "embed"
	"fmt"
	"os"

	cli "github.com/ardiustech/eng-ai-assistant/cmd/assistant"
	"github.com/ardiustech/eng-ai-assistant/internal/config"

	"github.com/joho/godotenv"
)

//go:embed etc/assistant.yaml
var embeddedConfig []byte

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Load embedded config (defaults)
	c, err := config.LoadFromBytes(embeddedConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load embedded config: %v\n", err)
		os.Exit(1)
	}

	os.Exit(cli.Execute(&c))
}

package env

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/stablemail/go-relay/internal/config"
)

func New() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Prints the effective server configuration",
		Long: `Resolves the full server configuration from the current ENV
and prints it as JSON. Secrets are redacted.`,
		Run: func(_ *cobra.Command, _ []string) {
			printConfig()
		},
	}
}

func printConfig() {
	cfg := config.DefaultServiceConfigFromEnv()

	// never print key material
	if cfg.Relayer.PrivateKey != "" {
		cfg.Relayer.PrivateKey = "[redacted]"
	}
	if cfg.Relayer.KeystorePassword != "" {
		cfg.Relayer.KeystorePassword = "[redacted]"
	}
	if cfg.SMTP.Password != "" {
		cfg.SMTP.Password = "[redacted]"
	}

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to marshal server config")
	}

	fmt.Println(string(out))
}

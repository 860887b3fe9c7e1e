package keystore

import (
	"fmt"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stablemail/go-relay/internal/relayer"
	"github.com/stablemail/go-relay/internal/util/command"
)

func New() *cobra.Command {
	return command.NewSubcommandGroup("keystore",
		newCreate(),
	)
}

func newCreate() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Encrypts the relayer private key into a keystore file",
		Long: `Reads the relayer private key and an encryption password from the
terminal and writes an encrypted keystore v3 file. The plaintext key never
touches disk or the process environment.`,
		Run: func(_ *cobra.Command, _ []string) {
			runCreate(path)
		},
	}

	cmd.Flags().StringVarP(&path, "out", "o", "relayer.keystore.json", "output path for the keystore file")

	return cmd
}

func runCreate(path string) {
	privateKeyHex, err := promptSecret("Relayer private key (hex): ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read private key")
	}

	password, err := promptSecret("Encryption password: ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read password")
	}

	confirm, err := promptSecret("Confirm password: ")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read password confirmation")
	}

	if password != confirm {
		log.Fatal().Msg("Passwords do not match")
	}

	if err := relayer.WriteKeystoreFile(path, privateKeyHex, password); err != nil {
		log.Fatal().Err(err).Msg("Failed to write keystore file")
	}

	log.Info().Str("path", path).Msg("Keystore file written")
}

func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()

	if err != nil {
		return "", err
	}

	return string(raw), nil
}

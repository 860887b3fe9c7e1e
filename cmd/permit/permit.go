package permit

import (
	"context"
	"encoding/json"
	"fmt"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/stablemail/go-relay/internal/api"
	"github.com/stablemail/go-relay/internal/config"
	"github.com/stablemail/go-relay/internal/permit"
	"github.com/stablemail/go-relay/internal/util/command"
)

type createFlags struct {
	owner   string
	spender string
	amount  string
}

// New returns the permit command group. The create subcommand signs a
// complete EIP-2612 permit against the configured token and prints it as
// JSON, ready to be attached to a gasless transaction.
func New() *cobra.Command {
	return command.NewSubcommandGroup("permit",
		newCreate(),
	)
}

func newCreate() *cobra.Command {
	var flags createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Signs a gasless permit for the configured token",
		Run: func(_ *cobra.Command, _ []string) {
			runCreate(flags)
		},
	}

	cmd.Flags().StringVar(&flags.owner, "owner", "", "owner wallet address (must match the signing key)")
	cmd.Flags().StringVar(&flags.spender, "spender", "", "spender address (defaults to the configured relayer wallet)")
	cmd.Flags().StringVar(&flags.amount, "amount", "", "human-readable token amount, e.g. 12.50")

	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runCreate(flags createFlags) {
	cfg := config.DefaultServiceConfigFromEnv()

	if !common.IsHexAddress(flags.owner) {
		log.Fatal().Str("owner", flags.owner).Msg("Owner must be a hex wallet address")
	}

	fmt.Print("Owner private key (hex): ")
	rawKey, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read private key")
	}

	err = command.WithServer(context.Background(), cfg, func(ctx context.Context, s *api.Server) error {
		chainID, err := s.Chain.ChainID(ctx)
		if err != nil {
			return errors.Wrap(err, "failed to get chain ID")
		}

		spender := s.Relayer.Address()
		if flags.spender != "" {
			if !common.IsHexAddress(flags.spender) {
				return errors.New("spender must be a hex wallet address")
			}

			spender = common.HexToAddress(flags.spender)
		}

		deadline, err := permit.ResolveDeadline(cfg.Relayer.PermitDeadline, time.Now())
		if err != nil {
			return err
		}

		constructor := permit.NewConstructor(s.Token, chainID, s.Token.Address(), permit.DomainConfig{
			FallbackName:    cfg.Token.Name,
			FallbackVersion: cfg.Token.Version,
			PinnedSeparator: common.HexToHash(cfg.Token.PinnedDomainSeparator),
		})

		payload, err := constructor.CreateGaslessPermit(
			ctx,
			string(rawKey),
			common.HexToAddress(flags.owner),
			spender,
			flags.amount,
			deadline,
		)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal permit payload")
		}

		fmt.Println(string(out))

		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create permit")
	}
}

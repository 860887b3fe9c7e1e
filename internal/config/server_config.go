package config

import (
	"time"

	"github.com/stablemail/go-relay/internal/util"
)

// ModuleName is used for CLI help and logging scope.
const ModuleName = "go-relay"

// EchoServer configures the HTTP listener.
type EchoServer struct {
	ListenAddress                  string
	HideInternalServerErrorDetails bool
}

// Logger configures zerolog.
type Logger struct {
	Level              string
	PrettyPrintConsole bool
}

// Mongo configures the document store connection.
type Mongo struct {
	URI      string
	Database string
}

// Chain configures the RPC connection to the network.
type Chain struct {
	RPCURLs             []string
	ConfirmationTimeout time.Duration
}

// Token pins the supported EIP-2612 token and network pairing.
// Name and Version are fallbacks for tokens that do not expose name()/version();
// PinnedDomainSeparator, when set, skips the on-the-fly separator computation.
type Token struct {
	Address               string
	Symbol                string
	Name                  string
	Version               string
	Network               string
	PinnedDomainSeparator string
}

// Relayer configures the fee-paying spender wallet.
// The key is sourced either from PrivateKey directly or from an encrypted
// keystore v3 file at KeystorePath unlocked with KeystorePassword.
type Relayer struct {
	PrivateKey       string
	KeystorePath     string
	KeystorePassword string
	// PermitDeadline is either "infinite" (max uint256 sentinel) or a
	// duration string such as "1h" applied relative to signing time.
	PermitDeadline   string
	PermitGasLimit   uint64
	TransferGasLimit uint64
}

// SMTP configures the completion notification dispatcher.
type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Server is the root configuration for all components.
type Server struct {
	Echo    EchoServer
	Logger  Logger
	Mongo   Mongo
	Chain   Chain
	Token   Token
	Relayer Relayer
	SMTP    SMTP
}

// DefaultServiceConfigFromEnv returns the server config resolved from the environment.
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Echo: EchoServer{
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
		},
		Logger: Logger{
			Level:              util.GetEnv("SERVER_LOGGER_LEVEL", "info"),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Mongo: Mongo{
			URI:      util.GetEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: util.GetEnv("MONGO_DATABASE", "gorelay"),
		},
		Chain: Chain{
			RPCURLs:             util.GetEnvAsStringArr("ETH_RPC_URLS", []string{"https://rpc.sepolia.org"}),
			ConfirmationTimeout: util.GetEnvAsDuration("CHAIN_CONFIRMATION_TIMEOUT", 3*time.Minute),
		},
		Token: Token{
			Address:               util.GetEnv("TOKEN_ADDRESS", "0xCaC524BcA292aaade2DF8A05cC58F0a65B1B3bB9"),
			Symbol:                util.GetEnv("TOKEN_SYMBOL", "PYUSD"),
			Name:                  util.GetEnv("TOKEN_NAME", "PYUSD"),
			Version:               util.GetEnv("TOKEN_VERSION", "1"),
			Network:               util.GetEnv("NETWORK_NAME", "Ethereum Sepolia"),
			PinnedDomainSeparator: util.GetEnv("TOKEN_PINNED_DOMAIN_SEPARATOR", ""),
		},
		Relayer: Relayer{
			PrivateKey:       util.GetEnv("RELAYER_PRIVATE_KEY", ""),
			KeystorePath:     util.GetEnv("RELAYER_KEYSTORE_PATH", ""),
			KeystorePassword: util.GetEnv("RELAYER_KEYSTORE_PASSWORD", ""),
			PermitDeadline:   util.GetEnv("RELAYER_PERMIT_DEADLINE", "infinite"),
			PermitGasLimit:   util.GetEnvAsUint64("RELAYER_PERMIT_GAS_LIMIT", 120000),
			TransferGasLimit: util.GetEnvAsUint64("RELAYER_TRANSFER_GAS_LIMIT", 100000),
		},
		SMTP: SMTP{
			Host:     util.GetEnv("SMTP_HOST", "localhost"),
			Port:     util.GetEnvAsInt("SMTP_PORT", 587),
			Username: util.GetEnv("SMTP_USERNAME", ""),
			Password: util.GetEnv("SMTP_PASSWORD", ""),
			From:     util.GetEnv("SMTP_FROM", "no-reply@stablemail.io"),
		},
	}
}

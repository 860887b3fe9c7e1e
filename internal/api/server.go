package api

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stablemail/go-relay/internal/chain"
	"github.com/stablemail/go-relay/internal/config"
	"github.com/stablemail/go-relay/internal/contact"
	"github.com/stablemail/go-relay/internal/mailer"
	"github.com/stablemail/go-relay/internal/metrics"
	"github.com/stablemail/go-relay/internal/relayer"
	"github.com/stablemail/go-relay/internal/token"
	"github.com/stablemail/go-relay/internal/transaction"
)

// TransactionService is the lifecycle surface the handlers depend on.
type TransactionService interface {
	Create(ctx context.Context, tx *transaction.Transaction) (*transaction.Transaction, error)
	Get(ctx context.Context, id, userAddress string) (*transaction.Transaction, error)
	List(ctx context.Context, userAddress string, status *transaction.Status) ([]*transaction.Transaction, error)
	ListReceived(ctx context.Context, recipientAddress string) ([]*transaction.Transaction, error)
	Search(ctx context.Context, userAddress, query string) ([]*transaction.Transaction, error)
	Update(ctx context.Context, id, userAddress string, fields *transaction.UpdateFields) (*transaction.Transaction, error)
	Delete(ctx context.Context, id, userAddress string) error
}

// ContactService is the address-book surface the handlers depend on.
type ContactService = contact.Store

type Router struct {
	Routes            []*echo.Route
	Root              *echo.Group
	Management        *echo.Group
	APIV1Transactions *echo.Group
	APIV1Contacts     *echo.Group
}

// Server is a central struct keeping all the dependencies. Echo and Router
// are attached by router.Init after the components are initialized.
type Server struct {
	Config config.Server
	Echo   *echo.Echo
	Router *Router

	Mongo        *mongo.Client
	DB           *mongo.Database
	Chain        *chain.Client
	Token        *token.Reader
	Relayer      relayer.Service
	Mailer       *mailer.Mailer
	Metrics      *metrics.Set
	Transactions TransactionService
	Contacts     ContactService
}

func NewServer(config config.Server) *Server {
	return &Server{
		Config: config,
	}
}

// Initialize connects the document store and the chain, unlocks the relayer
// wallet and wires the domain services.
func (s *Server) Initialize(ctx context.Context) error {
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(s.Config.Mongo.URI))
	if err != nil {
		return errors.Wrap(err, "failed to connect to document store")
	}

	s.Mongo = mongoClient
	s.DB = mongoClient.Database(s.Config.Mongo.Database)

	chainClient, err := chain.NewClient(s.Config.Chain.RPCURLs, s.Config.Chain.ConfirmationTimeout)
	if err != nil {
		return errors.Wrap(err, "failed to connect to chain")
	}

	s.Chain = chainClient
	s.Token = token.NewReader(chainClient, common.HexToAddress(s.Config.Token.Address))

	executor, err := relayer.NewService(ctx, chainClient, s.Config.Relayer, s.Token.Address())
	if err != nil {
		return errors.Wrap(err, "failed to initialize relayer")
	}

	s.Relayer = executor
	s.Mailer = mailer.New(s.Config.SMTP)
	s.Metrics = metrics.New()
	s.Contacts = contact.NewStore(s.DB)

	s.Transactions = transaction.NewService(
		transaction.NewStore(s.DB),
		s.Contacts,
		s.Token,
		s.Relayer,
		s.Mailer,
		s.Metrics,
		transaction.Defaults{
			TokenType: s.Config.Token.Symbol,
			Network:   s.Config.Token.Network,
		},
	)

	return nil
}

// Ready reports whether all components are initialized.
func (s *Server) Ready() bool {
	return s.Echo != nil &&
		s.Router != nil &&
		s.Mongo != nil &&
		s.Chain != nil &&
		s.Relayer != nil &&
		s.Transactions != nil &&
		s.Contacts != nil
}

func (s *Server) Start() error {
	if !s.Ready() {
		return errors.New("server is not ready")
	}

	if err := s.Echo.Start(s.Config.Echo.ListenAddress); err != nil {
		return errors.Wrap(err, "failed to start echo server")
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Warn().Msg("Shutting down server")

	var errs []error

	if s.Mongo != nil {
		log.Debug().Msg("Closing document store connection")

		if err := s.Mongo.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to close document store connection")
			errs = append(errs, err)
		}
	}

	if s.Chain != nil {
		log.Debug().Msg("Closing chain connections")
		s.Chain.Close()
	}

	if s.Echo != nil {
		log.Debug().Msg("Shutting down echo server")

		if err := s.Echo.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown echo server")
			errs = append(errs, err)
		}
	}

	return errs
}

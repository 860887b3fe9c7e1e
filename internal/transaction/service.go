package transaction

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-openapi/swag"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/stablemail/go-relay/internal/metrics"
	"github.com/stablemail/go-relay/internal/relayer"
	"github.com/stablemail/go-relay/internal/token"
	"github.com/stablemail/go-relay/internal/util"
)

// Sentinel errors the API layer maps onto public error payloads.
var (
	ErrValidation    = errors.New("invalid transaction")
	ErrMissingPermit = errors.New("permit data required for gasless execution")
)

// TokenReader is the read-only token dependency of the pipeline.
type TokenReader interface {
	Decimals(ctx context.Context) (uint8, error)
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
}

// ContactResolver maps a recipient email to a wallet address from the
// sender's contact book. An empty address with nil error means unknown.
type ContactResolver interface {
	ResolveAddress(ctx context.Context, ownerAddress, email string) (string, error)
}

// Dispatcher delivers the completion notification to the recipients.
// Delivery is best-effort; failures never affect transaction state.
type Dispatcher interface {
	Notify(ctx context.Context, tx *Transaction) error
}

// Defaults are applied to records created without explicit token metadata.
type Defaults struct {
	TokenType string
	Network   string
}

// Service owns the transaction lifecycle: validation, persistence, the
// relayer pipeline for gasless sends and the completion notification.
type Service struct {
	store    Store
	contacts ContactResolver
	reader   TokenReader
	relayer  relayer.Service
	mailer   Dispatcher
	metrics  *metrics.Set
	defaults Defaults
}

// NewService wires the lifecycle service.
func NewService(
	store Store,
	contacts ContactResolver,
	reader TokenReader,
	executor relayer.Service,
	mailer Dispatcher,
	set *metrics.Set,
	defaults Defaults,
) *Service {
	return &Service{
		store:    store,
		contacts: contacts,
		reader:   reader,
		relayer:  executor,
		mailer:   mailer,
		metrics:  set,
		defaults: defaults,
	}
}

// Create validates and persists a new record. A gasless record created
// directly in the pending state is executed through the relayer pipeline
// before returning.
func (s *Service) Create(ctx context.Context, tx *Transaction) (*Transaction, error) {
	if !common.IsHexAddress(tx.UserAddress) {
		return nil, errors.Wrap(ErrValidation, "userAddress must be a hex address")
	}

	if tx.Status == "" {
		tx.Status = StatusDraft
	}

	if !tx.Status.Valid() {
		return nil, errors.Wrapf(ErrValidation, "unknown status: %s", tx.Status)
	}

	// Records are born at the head of the lifecycle; processing and the
	// terminal states are only reachable through transitions.
	switch tx.Status {
	case StatusDraft, StatusPending, StatusScheduled:
	default:
		return nil, errors.Wrapf(ErrValidation, "transactions cannot be created as %s", tx.Status)
	}

	if tx.TokenType == "" {
		tx.TokenType = s.defaults.TokenType
	}

	if tx.Network == "" {
		tx.Network = s.defaults.Network
	}

	if err := s.validateForStatus(tx, tx.Status); err != nil {
		return nil, err
	}

	tx, err := s.store.Create(ctx, tx)
	if err != nil {
		return nil, err
	}

	if tx.Status == StatusPending && tx.IsGasless {
		return s.runPipeline(ctx, tx)
	}

	return tx, nil
}

// Get returns a single record owned by userAddress.
func (s *Service) Get(ctx context.Context, id, userAddress string) (*Transaction, error) {
	return s.store.GetForUser(ctx, id, userAddress)
}

// List returns the user's sent records, optionally filtered by status.
func (s *Service) List(ctx context.Context, userAddress string, status *Status) ([]*Transaction, error) {
	if status != nil && !status.Valid() {
		return nil, errors.Wrapf(ErrValidation, "unknown status: %s", *status)
	}

	return s.store.List(ctx, userAddress, status)
}

// ListReceived returns records addressed to the given wallet.
func (s *Service) ListReceived(ctx context.Context, recipientAddress string) ([]*Transaction, error) {
	return s.store.ListReceived(ctx, recipientAddress)
}

// Search returns the user's records matching the query as a case-insensitive
// substring of subject, message or recipient name/email.
func (s *Service) Search(ctx context.Context, userAddress, query string) ([]*Transaction, error) {
	return s.store.Search(ctx, userAddress, query)
}

// Delete removes a record owned by userAddress.
func (s *Service) Delete(ctx context.Context, id, userAddress string) error {
	return s.store.Delete(ctx, id, userAddress)
}

// Update applies a partial update. Status changes are guarded by the
// forward-only transition table; a gasless move into pending (initial send
// or retry after failure) or a completion request on a gasless record runs
// the relayer pipeline.
func (s *Service) Update(ctx context.Context, id, userAddress string, fields *UpdateFields) (*Transaction, error) {
	current, err := s.store.GetForUser(ctx, id, userAddress)
	if err != nil {
		return nil, err
	}

	targetStatus := current.Status
	if fields.Status != nil {
		if !fields.Status.Valid() {
			return nil, errors.Wrapf(ErrValidation, "unknown status: %s", *fields.Status)
		}

		if err := GuardTransition(current.Status, *fields.Status); err != nil {
			return nil, err
		}

		targetStatus = *fields.Status
	}

	statusChanged := targetStatus != current.Status

	gasless := current.IsGasless
	if fields.IsGasless != nil {
		gasless = *fields.IsGasless
	}

	// Field edits must not leave a non-draft record without the fields it
	// needs to send; validate the record as it would be persisted.
	if targetStatus != StatusDraft {
		recipients := current.ToRecipients
		if fields.ToRecipients != nil {
			recipients = *fields.ToRecipients
		}

		subject := current.Subject
		if fields.Subject != nil {
			subject = *fields.Subject
		}

		amount := current.Amount
		if fields.Amount != nil {
			amount = *fields.Amount
		}

		if err := validateSendFields(recipients, subject, amount); err != nil {
			return nil, err
		}
	}

	// A gasless record entering pending (initial send or retry) or asked to
	// complete externally re-runs the relayer pipeline, which needs a permit
	// that has not been consumed yet. A retry must carry a freshly signed one
	// since the on-chain nonce moved when the previous permit executed.
	execute := statusChanged && gasless &&
		(targetStatus == StatusPending || targetStatus == StatusCompleted)

	if execute {
		permitData := fields.EIP2612
		if permitData == nil {
			permitData = current.EIP2612
		}

		if err := permitData.Validate(); err != nil {
			return nil, errors.Wrap(ErrMissingPermit, err.Error())
		}

		if current.Status == StatusFailed && current.EIP2612 != nil && current.EIP2612.Executed && fields.EIP2612 == nil {
			return nil, errors.Wrap(ErrMissingPermit, "retry requires a freshly signed permit")
		}
	}

	persistFields := fields
	if execute && targetStatus == StatusCompleted {
		// The pipeline owns the terminal status; keep the record in its
		// current state until execution settles it.
		clone := *fields
		clone.Status = nil
		persistFields = &clone
	}

	if err := s.store.Update(ctx, id, userAddress, persistFields); err != nil {
		return nil, err
	}

	updated, err := s.store.GetForUser(ctx, id, userAddress)
	if err != nil {
		return nil, err
	}

	if execute && updated.IsGasless {
		return s.runPipeline(ctx, updated)
	}

	// Non-gasless sends confirm client-side; the caller reports the final
	// state and we notify on the completed edge.
	if statusChanged && targetStatus == StatusCompleted {
		s.metrics.IncTransactionsCompleted()
		s.notify(ctx, updated)
	}

	if statusChanged && targetStatus == StatusFailed {
		s.metrics.IncTransactionsFailed()
	}

	return updated, nil
}

func (s *Service) validateForStatus(tx *Transaction, status Status) error {
	if status == StatusDraft {
		return nil
	}

	if err := validateSendFields(tx.ToRecipients, tx.Subject, tx.Amount); err != nil {
		return err
	}

	if status == StatusScheduled && tx.ScheduledDate == nil {
		return errors.Wrap(ErrValidation, "scheduledDate is required for scheduled transactions")
	}

	if tx.IsGasless {
		if err := tx.EIP2612.Validate(); err != nil {
			return errors.Wrap(ErrMissingPermit, err.Error())
		}
	}

	return nil
}

// validateSendFields checks the fields every non-draft record must carry:
// at least one recipient, a subject and a positive decimal amount.
func validateSendFields(recipients []Recipient, subject, amount string) error {
	if len(recipients) == 0 {
		return errors.Wrap(ErrValidation, "at least one recipient is required")
	}

	if subject == "" {
		return errors.Wrap(ErrValidation, "subject is required")
	}

	if amount == "" {
		return errors.Wrap(ErrValidation, "amount is required")
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return errors.Wrapf(ErrValidation, "invalid amount: %s", amount)
	}

	if !value.IsPositive() {
		return errors.Wrap(ErrValidation, "amount must be positive")
	}

	return nil
}

// runPipeline drives a pending gasless record to a terminal state:
// processing, recipient resolution, permit (unless an earlier retry already
// left sufficient allowance), then the transfer. The permit outcome is
// persisted the moment the permit confirms so a later transfer failure never
// loses the fact that the owner's nonce was consumed.
func (s *Service) runPipeline(ctx context.Context, tx *Transaction) (*Transaction, error) {
	log := util.LogFromContext(ctx).With().Str("transaction_id", tx.ID).Logger()

	if err := s.transition(ctx, tx, StatusProcessing); err != nil {
		return nil, err
	}

	recipientAddress, err := s.resolveRecipient(ctx, tx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to resolve recipient, marking transaction failed")
		return tx, s.fail(ctx, tx)
	}

	decimals, err := s.reader.Decimals(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read token decimals")
		return tx, s.fail(ctx, tx)
	}

	value, err := token.ToBaseUnits(tx.Amount, decimals)
	if err != nil {
		log.Warn().Err(err).Str("amount", tx.Amount).Msg("Invalid transfer amount")
		return tx, s.fail(ctx, tx)
	}

	owner := common.HexToAddress(tx.EIP2612.Owner)
	spender := s.relayer.Address()

	needPermit, err := s.needsPermit(ctx, owner, spender, value)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read allowance")
		return tx, s.fail(ctx, tx)
	}

	if needPermit {
		if expired, expErr := permitExpired(tx.EIP2612); expErr != nil || expired {
			log.Warn().Err(expErr).Msg("Permit deadline invalid or expired")
			return tx, s.fail(ctx, tx)
		}

		result := s.relayer.ExecutePermit(ctx, tx.EIP2612.Payload())
		if !result.Success {
			log.Warn().Err(result.Err).Msg("Permit execution failed")
			return tx, s.fail(ctx, tx)
		}

		s.metrics.IncPermitsExecuted()

		if err := s.store.SetPermitResult(ctx, tx.ID, result.TransactionHash); err != nil {
			log.Error().Err(err).Msg("Failed to persist permit result")
			return tx, s.fail(ctx, tx)
		}

		tx.EIP2612.TransactionHash = result.TransactionHash
		tx.EIP2612.Executed = true
	}

	result := s.relayer.ExecuteTransfer(ctx, owner, common.HexToAddress(recipientAddress), value)
	if !result.Success {
		log.Warn().Err(result.Err).Msg("Transfer execution failed")
		return tx, s.fail(ctx, tx)
	}

	s.metrics.IncTransfersExecuted()

	fields := &UpdateFields{
		Status: statusPtr(StatusCompleted),
		TxHash: swag.String(result.TransactionHash),
	}
	if err := s.store.Update(ctx, tx.ID, tx.UserAddress, fields); err != nil {
		return nil, err
	}

	tx.Status = StatusCompleted
	tx.TxHash = result.TransactionHash

	s.metrics.IncTransactionsCompleted()
	s.notify(ctx, tx)

	log.Info().Str("tx_hash", tx.TxHash).Msg("Gasless transaction completed")

	return tx, nil
}

// resolveRecipient returns the destination wallet for the first "to"
// recipient: an explicit address wins, otherwise the sender's contact book.
func (s *Service) resolveRecipient(ctx context.Context, tx *Transaction) (string, error) {
	if len(tx.ToRecipients) == 0 {
		return "", errors.New("transaction has no recipients")
	}

	recipient := tx.ToRecipients[0]
	if common.IsHexAddress(recipient.Address) {
		return recipient.Address, nil
	}

	if recipient.Email == "" {
		return "", errors.New("recipient has neither address nor email")
	}

	address, err := s.contacts.ResolveAddress(ctx, tx.UserAddress, recipient.Email)
	if err != nil {
		return "", errors.Wrap(err, "contact lookup failed")
	}

	if !common.IsHexAddress(address) {
		return "", errors.Errorf("no wallet address known for %s", recipient.Email)
	}

	return address, nil
}

// needsPermit reports whether the relayer still has to submit the permit.
// A retry after a transfer failure finds the allowance already granted and
// skips straight to the transfer.
func (s *Service) needsPermit(ctx context.Context, owner, spender common.Address, value *big.Int) (bool, error) {
	allowance, err := s.reader.Allowance(ctx, owner, spender)
	if err != nil {
		return false, err
	}

	return allowance.Cmp(value) < 0, nil
}

func permitExpired(p *PermitData) (bool, error) {
	deadline, ok := new(big.Int).SetString(p.Deadline, 10)
	if !ok {
		return false, errors.Errorf("invalid permit deadline: %s", p.Deadline)
	}

	return deadline.Cmp(big.NewInt(time.Now().Unix())) < 0, nil
}

func (s *Service) transition(ctx context.Context, tx *Transaction, to Status) error {
	if err := GuardTransition(tx.Status, to); err != nil {
		return err
	}

	if err := s.store.Update(ctx, tx.ID, tx.UserAddress, &UpdateFields{Status: statusPtr(to)}); err != nil {
		return err
	}

	tx.Status = to

	return nil
}

func (s *Service) fail(ctx context.Context, tx *Transaction) error {
	s.metrics.IncTransactionsFailed()
	return s.transition(ctx, tx, StatusFailed)
}

// notify delivers the completion notification exactly once per completed
// edge, after the state was persisted. Delivery errors are logged only.
func (s *Service) notify(ctx context.Context, tx *Transaction) {
	if s.mailer == nil {
		return
	}

	if err := s.mailer.Notify(ctx, tx); err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Str("transaction_id", tx.ID).Msg("Failed to send completion notification")
	}
}

func statusPtr(s Status) *Status {
	return &s
}

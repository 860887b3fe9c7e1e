package transaction_test

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stablemail/go-relay/internal/permit"
	"github.com/stablemail/go-relay/internal/relayer"
	"github.com/stablemail/go-relay/internal/transaction"
)

var (
	testOwner     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testRecipient = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testSpender   = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

// memStore is an in-memory Store used by the lifecycle tests.
type memStore struct {
	mu  sync.Mutex
	txs map[string]*transaction.Transaction
	seq int
}

func newMemStore() *memStore {
	return &memStore{txs: map[string]*transaction.Transaction{}}
}

func clone(tx *transaction.Transaction) *transaction.Transaction {
	cp := *tx

	if tx.EIP2612 != nil {
		permitCopy := *tx.EIP2612
		cp.EIP2612 = &permitCopy
	}

	return &cp
}

func (s *memStore) Create(_ context.Context, tx *transaction.Transaction) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	tx.ID = fmt.Sprintf("tx-%d", s.seq)
	tx.CreatedAt = time.Now().UTC()
	tx.UpdatedAt = tx.CreatedAt
	s.txs[tx.ID] = clone(tx)

	return tx, nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return nil, transaction.ErrNotFound
	}

	return clone(tx), nil
}

func (s *memStore) GetForUser(ctx context.Context, id, userAddress string) (*transaction.Transaction, error) {
	tx, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if tx.UserAddress != userAddress {
		return nil, transaction.ErrNotFound
	}

	return tx, nil
}

func (s *memStore) List(_ context.Context, userAddress string, status *transaction.Status) ([]*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*transaction.Transaction
	for _, tx := range s.txs {
		if tx.UserAddress != userAddress {
			continue
		}
		if status != nil && tx.Status != *status {
			continue
		}
		out = append(out, clone(tx))
	}

	return out, nil
}

func (s *memStore) ListReceived(_ context.Context, recipientAddress string) ([]*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*transaction.Transaction
	for _, tx := range s.txs {
		for _, r := range tx.ToRecipients {
			if strings.EqualFold(r.Address, recipientAddress) {
				out = append(out, clone(tx))
				break
			}
		}
	}

	return out, nil
}

func (s *memStore) Search(_ context.Context, userAddress, query string) ([]*transaction.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := strings.ToLower(query)

	var out []*transaction.Transaction
	for _, tx := range s.txs {
		if tx.UserAddress != userAddress {
			continue
		}
		if strings.Contains(strings.ToLower(tx.Subject), q) || strings.Contains(strings.ToLower(tx.Message), q) {
			out = append(out, clone(tx))
		}
	}

	return out, nil
}

func (s *memStore) Update(_ context.Context, id, userAddress string, fields *transaction.UpdateFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok || tx.UserAddress != userAddress {
		return transaction.ErrNotFound
	}

	if fields.ToRecipients != nil {
		tx.ToRecipients = *fields.ToRecipients
	}
	if fields.Subject != nil {
		tx.Subject = *fields.Subject
	}
	if fields.Message != nil {
		tx.Message = *fields.Message
	}
	if fields.Amount != nil {
		tx.Amount = *fields.Amount
	}
	if fields.Status != nil {
		tx.Status = *fields.Status
	}
	if fields.TxHash != nil {
		tx.TxHash = *fields.TxHash
	}
	if fields.IsGasless != nil {
		tx.IsGasless = *fields.IsGasless
	}
	if fields.EIP2612 != nil {
		permitCopy := *fields.EIP2612
		tx.EIP2612 = &permitCopy
	}
	if fields.ScheduledDate != nil {
		tx.ScheduledDate = fields.ScheduledDate
	}

	tx.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *memStore) SetPermitResult(_ context.Context, id, permitTxHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok {
		return transaction.ErrNotFound
	}

	if tx.EIP2612 == nil {
		tx.EIP2612 = &transaction.PermitData{}
	}

	tx.EIP2612.TransactionHash = permitTxHash
	tx.EIP2612.Executed = true
	tx.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *memStore) Delete(_ context.Context, id, userAddress string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[id]
	if !ok || tx.UserAddress != userAddress {
		return transaction.ErrNotFound
	}

	delete(s.txs, id)

	return nil
}

type fakeRelayer struct {
	permitResult   relayer.Result
	transferResult relayer.Result

	permitCalls   int
	transferCalls int
}

func (f *fakeRelayer) Address() common.Address {
	return testSpender
}

func (f *fakeRelayer) ExecutePermit(_ context.Context, _ *permit.Payload) relayer.Result {
	f.permitCalls++
	return f.permitResult
}

func (f *fakeRelayer) ExecuteTransfer(_ context.Context, _, _ common.Address, _ *big.Int) relayer.Result {
	f.transferCalls++
	return f.transferResult
}

type fakeReader struct {
	decimals  uint8
	allowance *big.Int
}

func (f *fakeReader) Decimals(_ context.Context) (uint8, error) {
	return f.decimals, nil
}

func (f *fakeReader) Allowance(_ context.Context, _, _ common.Address) (*big.Int, error) {
	return f.allowance, nil
}

type fakeContacts struct {
	addresses map[string]string
}

func (f *fakeContacts) ResolveAddress(_ context.Context, _, email string) (string, error) {
	return f.addresses[strings.ToLower(email)], nil
}

type fakeDispatcher struct {
	notified []string
	err      error
}

func (f *fakeDispatcher) Notify(_ context.Context, tx *transaction.Transaction) error {
	f.notified = append(f.notified, tx.ID)
	return f.err
}

type fixture struct {
	store      *memStore
	relayer    *fakeRelayer
	reader     *fakeReader
	contacts   *fakeContacts
	dispatcher *fakeDispatcher
	service    *transaction.Service
}

func newFixture() *fixture {
	f := &fixture{
		store: newMemStore(),
		relayer: &fakeRelayer{
			permitResult:   relayer.Result{Success: true, TransactionHash: "0xpermit"},
			transferResult: relayer.Result{Success: true, TransactionHash: "0xtransfer"},
		},
		reader:     &fakeReader{decimals: 6, allowance: big.NewInt(0)},
		contacts:   &fakeContacts{addresses: map[string]string{}},
		dispatcher: &fakeDispatcher{},
	}

	f.service = transaction.NewService(
		f.store,
		f.contacts,
		f.reader,
		f.relayer,
		f.dispatcher,
		nil,
		transaction.Defaults{TokenType: "PYUSD", Network: "Ethereum Sepolia"},
	)

	return f
}

func validPermit() *transaction.PermitData {
	return &transaction.PermitData{
		V:        27,
		R:        "0x" + strings.Repeat("11", 32),
		S:        "0x" + strings.Repeat("22", 32),
		Owner:    testOwner.Hex(),
		Spender:  testSpender.Hex(),
		Value:    "12500000",
		Deadline: permit.MaxUint256.String(),
		Nonce:    0,
	}
}

func gaslessDraft(status transaction.Status) *transaction.Transaction {
	return &transaction.Transaction{
		UserAddress: testOwner.Hex(),
		ToRecipients: []transaction.Recipient{
			{Name: "Bob", Email: "bob@example.com", Address: testRecipient.Hex()},
		},
		Subject:   "Lunch",
		Message:   "Thanks for lunch!",
		Amount:    "12.50",
		Status:    status,
		IsGasless: true,
		EIP2612:   validPermit(),
	}
}

func TestCreateDraftAppliesDefaults(t *testing.T) {
	f := newFixture()

	created, err := f.service.Create(t.Context(), &transaction.Transaction{
		UserAddress: testOwner.Hex(),
	})
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusDraft, created.Status)
	assert.Equal(t, "PYUSD", created.TokenType)
	assert.Equal(t, "Ethereum Sepolia", created.Network)
	assert.Zero(t, f.relayer.permitCalls)
	assert.Zero(t, f.relayer.transferCalls)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	_, err := f.service.Create(ctx, &transaction.Transaction{UserAddress: "not-an-address"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, transaction.ErrValidation))

	_, err = f.service.Create(ctx, &transaction.Transaction{
		UserAddress: testOwner.Hex(),
		Status:      transaction.StatusPending,
	})
	require.Error(t, err, "non-draft requires recipients and amount")
	assert.True(t, errors.Is(err, transaction.ErrValidation))

	tx := gaslessDraft(transaction.StatusPending)
	tx.EIP2612 = nil
	_, err = f.service.Create(ctx, tx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, transaction.ErrMissingPermit))
}

func TestCreateNonDraftRequiresSubjectAndPositiveAmount(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	base := func() *transaction.Transaction {
		tx := gaslessDraft(transaction.StatusPending)
		tx.IsGasless = false
		tx.EIP2612 = nil
		return tx
	}

	tx := base()
	tx.Subject = ""
	_, err := f.service.Create(ctx, tx)
	require.Error(t, err, "pending transaction without subject must be rejected")
	assert.True(t, errors.Is(err, transaction.ErrValidation))

	for _, amount := range []string{"-5", "0", "abc", ""} {
		tx := base()
		tx.Amount = amount

		_, err := f.service.Create(ctx, tx)
		require.Error(t, err, "amount %q must be rejected", amount)
		assert.True(t, errors.Is(err, transaction.ErrValidation))
	}

	// drafts may stay incomplete until they are sent
	_, err = f.service.Create(ctx, &transaction.Transaction{UserAddress: testOwner.Hex()})
	require.NoError(t, err)
}

func TestCreateRestrictsInitialStatus(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	for _, status := range []transaction.Status{
		transaction.StatusProcessing,
		transaction.StatusCompleted,
		transaction.StatusFailed,
	} {
		tx := gaslessDraft(status)
		tx.IsGasless = false
		tx.EIP2612 = nil

		_, err := f.service.Create(ctx, tx)
		require.Error(t, err, "create as %s must be rejected", status)
		assert.True(t, errors.Is(err, transaction.ErrValidation))
	}

	assert.Empty(t, f.dispatcher.notified, "rejected creates must not notify")
}

func TestUpdateNonDraftValidatesEditedFields(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	tx := gaslessDraft(transaction.StatusPending)
	tx.IsGasless = false
	tx.EIP2612 = nil

	created, err := f.service.Create(ctx, tx)
	require.NoError(t, err)

	empty := ""
	_, err = f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{Subject: &empty})
	require.Error(t, err, "clearing the subject of a pending transaction must be rejected")
	assert.True(t, errors.Is(err, transaction.ErrValidation))

	negative := "-5"
	_, err = f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{Amount: &negative})
	require.Error(t, err)
	assert.True(t, errors.Is(err, transaction.ErrValidation))

	stored, err := f.store.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", stored.Subject, "rejected edits must not persist")
	assert.Equal(t, "12.50", stored.Amount)
}

func TestCreateGaslessPendingRunsPipeline(t *testing.T) {
	f := newFixture()

	created, err := f.service.Create(t.Context(), gaslessDraft(transaction.StatusPending))
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusCompleted, created.Status)
	assert.Equal(t, "0xtransfer", created.TxHash)
	assert.Equal(t, 1, f.relayer.permitCalls)
	assert.Equal(t, 1, f.relayer.transferCalls)

	stored, err := f.store.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, stored.Status)
	assert.True(t, stored.EIP2612.Executed)
	assert.Equal(t, "0xpermit", stored.EIP2612.TransactionHash)

	assert.Equal(t, []string{created.ID}, f.dispatcher.notified, "exactly one notification")
}

func TestCreateNonGaslessNeverExecutes(t *testing.T) {
	f := newFixture()

	tx := gaslessDraft(transaction.StatusPending)
	tx.IsGasless = false
	tx.EIP2612 = nil

	created, err := f.service.Create(t.Context(), tx)
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusPending, created.Status)
	assert.Zero(t, f.relayer.permitCalls)
	assert.Zero(t, f.relayer.transferCalls)
	assert.Empty(t, f.dispatcher.notified)
}

func TestPipelinePermitOkTransferFails(t *testing.T) {
	f := newFixture()
	f.relayer.transferResult = relayer.Result{Success: false, Err: errors.New("transfer reverted")}

	created, err := f.service.Create(t.Context(), gaslessDraft(transaction.StatusPending))
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusFailed, created.Status)
	assert.Empty(t, created.TxHash, "transfer hash only set on success")

	// the permit consumed the owner's nonce: that fact must survive
	stored, err := f.store.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.True(t, stored.EIP2612.Executed)
	assert.Equal(t, "0xpermit", stored.EIP2612.TransactionHash)
	assert.Empty(t, f.dispatcher.notified)
}

func TestPipelinePermitFails(t *testing.T) {
	f := newFixture()
	f.relayer.permitResult = relayer.Result{Success: false, Err: errors.New("permit reverted")}

	created, err := f.service.Create(t.Context(), gaslessDraft(transaction.StatusPending))
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusFailed, created.Status)
	assert.Zero(t, f.relayer.transferCalls, "no transfer after failed permit")

	stored, err := f.store.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.False(t, stored.EIP2612.Executed)
}

func TestPipelineSkipsPermitWhenAllowanceSuffices(t *testing.T) {
	f := newFixture()
	f.reader.allowance = big.NewInt(12500000)

	created, err := f.service.Create(t.Context(), gaslessDraft(transaction.StatusPending))
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusCompleted, created.Status)
	assert.Zero(t, f.relayer.permitCalls, "existing allowance covers the transfer")
	assert.Equal(t, 1, f.relayer.transferCalls)
}

func TestPipelineExpiredDeadline(t *testing.T) {
	f := newFixture()

	tx := gaslessDraft(transaction.StatusPending)
	tx.EIP2612.Deadline = "1000000000" // 2001, long expired

	created, err := f.service.Create(t.Context(), tx)
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusFailed, created.Status)
	assert.Zero(t, f.relayer.permitCalls)
	assert.Zero(t, f.relayer.transferCalls, "no transfer on an expired permit")
}

func TestPipelineResolvesRecipientViaContacts(t *testing.T) {
	f := newFixture()
	f.contacts.addresses["bob@example.com"] = testRecipient.Hex()

	tx := gaslessDraft(transaction.StatusPending)
	tx.ToRecipients = []transaction.Recipient{{Name: "Bob", Email: "bob@example.com"}}

	created, err := f.service.Create(t.Context(), tx)
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusCompleted, created.Status)
	assert.Equal(t, 1, f.relayer.transferCalls)
}

func TestPipelineUnresolvedRecipientFails(t *testing.T) {
	f := newFixture()

	tx := gaslessDraft(transaction.StatusPending)
	tx.ToRecipients = []transaction.Recipient{{Name: "Nobody", Email: "nobody@example.com"}}

	created, err := f.service.Create(t.Context(), tx)
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusFailed, created.Status)
	assert.Zero(t, f.relayer.permitCalls)
	assert.Zero(t, f.relayer.transferCalls)
	assert.Empty(t, f.dispatcher.notified)
}

func TestUpdateGuardsTransitions(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	created, err := f.service.Create(ctx, &transaction.Transaction{UserAddress: testOwner.Hex()})
	require.NoError(t, err)

	completed := transaction.StatusCompleted
	_, err = f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{Status: &completed})
	require.Error(t, err)
	assert.True(t, errors.Is(err, transaction.ErrInvalidTransition))
}

func TestUpdateDraftToPendingRunsPipeline(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	created, err := f.service.Create(ctx, gaslessDraft(transaction.StatusDraft))
	require.NoError(t, err)
	assert.Zero(t, f.relayer.permitCalls)

	pending := transaction.StatusPending
	updated, err := f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{Status: &pending})
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusCompleted, updated.Status)
	assert.Equal(t, 1, f.relayer.permitCalls)
	assert.Equal(t, []string{created.ID}, f.dispatcher.notified)
}

func TestUpdateGaslessCompletionRequestRunsPipeline(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	tx := gaslessDraft(transaction.StatusPending)
	tx.IsGasless = false
	tx.EIP2612 = nil

	created, err := f.service.Create(ctx, tx)
	require.NoError(t, err)
	require.Zero(t, f.relayer.permitCalls)

	// client asks for completion and supplies the signed permit with it
	completed := transaction.StatusCompleted
	gasless := true
	updated, err := f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{
		Status:    &completed,
		IsGasless: &gasless,
		EIP2612:   validPermit(),
	})
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusCompleted, updated.Status)
	assert.Equal(t, "0xtransfer", updated.TxHash)
	assert.Equal(t, 1, f.relayer.permitCalls)
	assert.Equal(t, 1, f.relayer.transferCalls)
	assert.Equal(t, []string{created.ID}, f.dispatcher.notified)
}

func TestUpdateGaslessCompletionRequestWithoutPermit(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	tx := gaslessDraft(transaction.StatusPending)
	tx.IsGasless = false
	tx.EIP2612 = nil

	created, err := f.service.Create(ctx, tx)
	require.NoError(t, err)

	completed := transaction.StatusCompleted
	gasless := true
	_, err = f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{
		Status:    &completed,
		IsGasless: &gasless,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, transaction.ErrMissingPermit))
	assert.Zero(t, f.relayer.permitCalls)
	assert.Zero(t, f.relayer.transferCalls)
}

func TestRetryRequiresFreshPermit(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	f.relayer.transferResult = relayer.Result{Success: false, Err: errors.New("transfer reverted")}

	created, err := f.service.Create(ctx, gaslessDraft(transaction.StatusPending))
	require.NoError(t, err)
	require.Equal(t, transaction.StatusFailed, created.Status)

	// retry without a new permit: the stored one already consumed its nonce
	pending := transaction.StatusPending
	_, err = f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{Status: &pending})
	require.Error(t, err)
	assert.True(t, errors.Is(err, transaction.ErrMissingPermit))

	// retry with a fresh permit and a recovered relayer succeeds
	f.relayer.transferResult = relayer.Result{Success: true, TransactionHash: "0xretry"}

	fresh := validPermit()
	fresh.Nonce = 1

	updated, err := f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{
		Status:  &pending,
		EIP2612: fresh,
	})
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, updated.Status)
	assert.Equal(t, "0xretry", updated.TxHash)
}

func TestUpdateNonGaslessToCompletedNotifiesOnce(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	tx := gaslessDraft(transaction.StatusPending)
	tx.IsGasless = false
	tx.EIP2612 = nil

	created, err := f.service.Create(ctx, tx)
	require.NoError(t, err)
	assert.Empty(t, f.dispatcher.notified)

	completed := transaction.StatusCompleted
	hash := "0xclientside"
	updated, err := f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{
		Status: &completed,
		TxHash: &hash,
	})
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusCompleted, updated.Status)
	assert.Equal(t, []string{created.ID}, f.dispatcher.notified)

	// a field-only update on a completed record must not notify again
	subject := "edited"
	_, err = f.service.Update(ctx, created.ID, testOwner.Hex(), &transaction.UpdateFields{Subject: &subject})
	require.NoError(t, err)
	assert.Len(t, f.dispatcher.notified, 1)
}

func TestNotificationFailureDoesNotAffectState(t *testing.T) {
	f := newFixture()
	f.dispatcher.err = errors.New("smtp down")

	created, err := f.service.Create(t.Context(), gaslessDraft(transaction.StatusPending))
	require.NoError(t, err)

	assert.Equal(t, transaction.StatusCompleted, created.Status)
	assert.Equal(t, "0xtransfer", created.TxHash)
}

func TestGetScopedToOwner(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	created, err := f.service.Create(ctx, gaslessDraft(transaction.StatusDraft))
	require.NoError(t, err)

	_, err = f.service.Get(ctx, created.ID, testRecipient.Hex())
	require.Error(t, err)
	assert.True(t, errors.Is(err, transaction.ErrNotFound))

	got, err := f.service.Get(ctx, created.ID, testOwner.Hex())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestDeleteScopedToOwner(t *testing.T) {
	f := newFixture()
	ctx := t.Context()

	created, err := f.service.Create(ctx, gaslessDraft(transaction.StatusDraft))
	require.NoError(t, err)

	err = f.service.Delete(ctx, created.ID, testRecipient.Hex())
	require.Error(t, err)

	require.NoError(t, f.service.Delete(ctx, created.ID, testOwner.Hex()))

	_, err = f.service.Get(ctx, created.ID, testOwner.Hex())
	require.Error(t, err)
}

package transaction

import (
	"time"

	"github.com/pkg/errors"

	"github.com/stablemail/go-relay/internal/permit"
)

// Recipient is one addressee of a transaction. Only the first "to" recipient
// ever receives funds; cc/bcc are informational.
type Recipient struct {
	Name    string `bson:"name" json:"name"`
	Email   string `bson:"email" json:"email"`
	Address string `bson:"address,omitempty" json:"address,omitempty"`
}

// PermitData is the persisted EIP-2612 permit payload plus the submission
// outcome fields set by the relayer pipeline.
type PermitData struct {
	V        uint8  `bson:"v" json:"v"`
	R        string `bson:"r" json:"r"`
	S        string `bson:"s" json:"s"`
	Owner    string `bson:"owner,omitempty" json:"owner,omitempty"`
	Spender  string `bson:"spender,omitempty" json:"spender,omitempty"`
	Value    string `bson:"value,omitempty" json:"value,omitempty"`
	Deadline string `bson:"deadline" json:"deadline"`
	Nonce    uint64 `bson:"nonce" json:"nonce"`

	// Set after the permit call was submitted on-chain.
	TransactionHash string `bson:"transactionHash,omitempty" json:"transactionHash,omitempty"`
	Executed        bool   `bson:"executed,omitempty" json:"executed,omitempty"`
}

// Validate checks that the permit data is complete enough to run the
// relayer pipeline.
func (p *PermitData) Validate() error {
	if p == nil {
		return errors.New("permit data is missing")
	}

	payload := p.Payload()
	if payload.Owner == "" || payload.Spender == "" || payload.Value == "" {
		return errors.New("permit data is incomplete: owner, spender and value are required")
	}

	return payload.Validate()
}

// Payload converts the persisted form into the executor's permit payload.
func (p *PermitData) Payload() *permit.Payload {
	return &permit.Payload{
		V:        p.V,
		R:        p.R,
		S:        p.S,
		Owner:    p.Owner,
		Spender:  p.Spender,
		Value:    p.Value,
		Deadline: p.Deadline,
		Nonce:    p.Nonce,
	}
}

// Transaction is the persisted mail-transfer record.
type Transaction struct {
	ID            string      `bson:"_id,omitempty" json:"_id,omitempty"`
	UserAddress   string      `bson:"userAddress" json:"userAddress"`
	ToRecipients  []Recipient `bson:"toRecipients" json:"toRecipients"`
	CcRecipients  []Recipient `bson:"ccRecipients,omitempty" json:"ccRecipients,omitempty"`
	BccRecipients []Recipient `bson:"bccRecipients,omitempty" json:"bccRecipients,omitempty"`
	Subject       string      `bson:"subject" json:"subject"`
	Message       string      `bson:"message" json:"message"`
	Amount        string      `bson:"amount" json:"amount"`
	TokenType     string      `bson:"tokenType" json:"tokenType"`
	Network       string      `bson:"network" json:"network"`
	Status        Status      `bson:"status" json:"status"`
	IsGasless     bool        `bson:"isGasless,omitempty" json:"isGasless,omitempty"`
	EIP2612       *PermitData `bson:"eip2612,omitempty" json:"eip2612,omitempty"`

	// TxHash is the hash of the value transfer, set iff the transfer
	// confirmed on-chain. Distinct from EIP2612.TransactionHash.
	TxHash string `bson:"txHash,omitempty" json:"txHash,omitempty"`

	ScheduledDate *time.Time `bson:"scheduledDate,omitempty" json:"scheduledDate,omitempty"`
	CreatedAt     time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// UpdateFields is a concrete partial update. Nil fields are left untouched.
type UpdateFields struct {
	ToRecipients  *[]Recipient
	CcRecipients  *[]Recipient
	BccRecipients *[]Recipient
	Subject       *string
	Message       *string
	Amount        *string
	TokenType     *string
	Network       *string
	Status        *Status
	TxHash        *string
	IsGasless     *bool
	EIP2612       *PermitData
	ScheduledDate *time.Time
}

package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-openapi/swag"
)

func detail(key, message string) *HTTPValidationErrorDetail {
	return &HTTPValidationErrorDetail{
		Key:   swag.String(key),
		In:    swag.String("body"),
		Error: swag.String(message),
	}
}

// RecipientPayload is one addressee in a transaction request.
type RecipientPayload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
}

// PermitPayload is the EIP-2612 permit as submitted by the client.
type PermitPayload struct {
	V        uint8  `json:"v"`
	R        string `json:"r"`
	S        string `json:"s"`
	Owner    string `json:"owner"`
	Spender  string `json:"spender"`
	Value    string `json:"value"`
	Deadline string `json:"deadline"`
	Nonce    uint64 `json:"nonce"`
}

// PostTransactionPayload creates a new transaction record.
type PostTransactionPayload struct {
	UserAddress   string             `json:"userAddress"`
	ToRecipients  []RecipientPayload `json:"toRecipients"`
	CcRecipients  []RecipientPayload `json:"ccRecipients,omitempty"`
	BccRecipients []RecipientPayload `json:"bccRecipients,omitempty"`
	Subject       string             `json:"subject"`
	Message       string             `json:"message"`
	Amount        string             `json:"amount"`
	TokenType     string             `json:"tokenType,omitempty"`
	Network       string             `json:"network,omitempty"`
	Status        string             `json:"status,omitempty"`
	IsGasless     bool               `json:"isGasless,omitempty"`
	EIP2612       *PermitPayload     `json:"eip2612,omitempty"`
	TxHash        string             `json:"txHash,omitempty"`
	ScheduledDate *time.Time         `json:"scheduledDate,omitempty"`
}

// Validate checks request shape. Lifecycle rules (permit completeness per
// status, transition guards) are enforced by the transaction service.
func (p *PostTransactionPayload) Validate() []*HTTPValidationErrorDetail {
	var details []*HTTPValidationErrorDetail

	if !common.IsHexAddress(p.UserAddress) {
		details = append(details, detail("userAddress", "must be a hex wallet address"))
	}

	for _, r := range p.ToRecipients {
		if r.Email == "" && r.Address == "" {
			details = append(details, detail("toRecipients", "each recipient needs an email or an address"))
			break
		}

		if r.Address != "" && !common.IsHexAddress(r.Address) {
			details = append(details, detail("toRecipients", "recipient address must be a hex wallet address"))
			break
		}
	}

	return details
}

// PutTransactionPayload partially updates a transaction record. Absent
// fields are left untouched.
type PutTransactionPayload struct {
	ToRecipients  *[]RecipientPayload `json:"toRecipients,omitempty"`
	CcRecipients  *[]RecipientPayload `json:"ccRecipients,omitempty"`
	BccRecipients *[]RecipientPayload `json:"bccRecipients,omitempty"`
	Subject       *string             `json:"subject,omitempty"`
	Message       *string             `json:"message,omitempty"`
	Amount        *string             `json:"amount,omitempty"`
	TokenType     *string             `json:"tokenType,omitempty"`
	Network       *string             `json:"network,omitempty"`
	Status        *string             `json:"status,omitempty"`
	IsGasless     *bool               `json:"isGasless,omitempty"`
	EIP2612       *PermitPayload      `json:"eip2612,omitempty"`
	TxHash        *string             `json:"txHash,omitempty"`
	ScheduledDate *time.Time          `json:"scheduledDate,omitempty"`
}

// Validate checks request shape.
func (p *PutTransactionPayload) Validate() []*HTTPValidationErrorDetail {
	var details []*HTTPValidationErrorDetail

	if p.ToRecipients != nil {
		for _, r := range *p.ToRecipients {
			if r.Address != "" && !common.IsHexAddress(r.Address) {
				details = append(details, detail("toRecipients", "recipient address must be a hex wallet address"))
				break
			}
		}
	}

	if p.Amount != nil && *p.Amount == "" {
		details = append(details, detail("amount", "must not be empty"))
	}

	return details
}

package types

import "github.com/ethereum/go-ethereum/common"

// PostContactPayload creates a new address-book entry.
type PostContactPayload struct {
	UserAddress   string `json:"userAddress"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// Validate checks request shape.
func (p *PostContactPayload) Validate() []*HTTPValidationErrorDetail {
	var details []*HTTPValidationErrorDetail

	if !common.IsHexAddress(p.UserAddress) {
		details = append(details, detail("userAddress", "must be a hex wallet address"))
	}

	if p.Email == "" {
		details = append(details, detail("email", "must not be empty"))
	}

	if p.WalletAddress != "" && !common.IsHexAddress(p.WalletAddress) {
		details = append(details, detail("walletAddress", "must be a hex wallet address"))
	}

	return details
}

// PutContactPayload partially updates an address-book entry.
type PutContactPayload struct {
	Name          *string `json:"name,omitempty"`
	Email         *string `json:"email,omitempty"`
	WalletAddress *string `json:"walletAddress,omitempty"`
}

// Validate checks request shape.
func (p *PutContactPayload) Validate() []*HTTPValidationErrorDetail {
	var details []*HTTPValidationErrorDetail

	if p.Email != nil && *p.Email == "" {
		details = append(details, detail("email", "must not be empty"))
	}

	if p.WalletAddress != nil && *p.WalletAddress != "" && !common.IsHexAddress(*p.WalletAddress) {
		details = append(details, detail("walletAddress", "must be a hex wallet address"))
	}

	return details
}

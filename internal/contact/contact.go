package contact

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Contact is one address-book entry, scoped to the owning wallet.
type Contact struct {
	ID            string    `bson:"_id,omitempty" json:"_id,omitempty"`
	UserAddress   string    `bson:"userAddress" json:"userAddress"`
	Name          string    `bson:"name" json:"name"`
	Email         string    `bson:"email" json:"email"`
	WalletAddress string    `bson:"walletAddress,omitempty" json:"walletAddress,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Validate checks the entry is persistable.
func (c *Contact) Validate() error {
	switch {
	case !common.IsHexAddress(c.UserAddress):
		return errors.New("userAddress must be a hex address")
	case c.Email == "":
		return errors.New("email is required")
	case c.WalletAddress != "" && !common.IsHexAddress(c.WalletAddress):
		return errors.New("walletAddress must be a hex address")
	}

	return nil
}

// UpdateFields is a concrete partial update. Nil fields are left untouched.
type UpdateFields struct {
	Name          *string
	Email         *string
	WalletAddress *string
}

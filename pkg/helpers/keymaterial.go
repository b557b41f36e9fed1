package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/oksasatya/go-wallet-accounts/internal/domain/entity"
)

// WalletKeyBytes is the size of every generated wallet value (Sui-style 32 bytes).
const WalletKeyBytes = 32

// GenerateHex returns n secure random bytes as 0x-prefixed lowercase hex.
func GenerateHex(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid byte length %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return "0x" + hex.EncodeToString(b), nil
}

// NewWalletKeys draws address, private key and public key independently.
// The three values are unrelated; they do not form a signing key pair.
func NewWalletKeys() (entity.WalletKeys, error) {
	addr, err := GenerateHex(WalletKeyBytes)
	if err != nil {
		return entity.WalletKeys{}, err
	}
	priv, err := GenerateHex(WalletKeyBytes)
	if err != nil {
		return entity.WalletKeys{}, err
	}
	pub, err := GenerateHex(WalletKeyBytes)
	if err != nil {
		return entity.WalletKeys{}, err
	}
	return entity.WalletKeys{Address: addr, PrivateKey: priv, PublicKey: pub}, nil
}

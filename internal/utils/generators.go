package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"time"
)

var hexAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// GenerateWalletAddress produces a fresh 20-byte hex wallet address for
// custodial accounts. Key custody is handled elsewhere; only the public
// address is recorded here.
func GenerateWalletAddress() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate wallet address: %w", err)
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// IsHexAddress reports whether s looks like a 0x-prefixed 20-byte address.
func IsHexAddress(s string) bool {
	return hexAddressPattern.MatchString(s)
}

func GenerateTransactionID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999999))
	return fmt.Sprintf("txn_%d_%09d", timestamp, randomNum.Int64())
}

func GeneratePaymentID() string {
	timestamp := time.Now().Unix()
	randomNum, _ := rand.Int(rand.Reader, big.NewInt(999999))
	return fmt.Sprintf("pay_%d_%06d", timestamp, randomNum.Int64())
}

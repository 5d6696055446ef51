package discovery

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// FingerprintLength is the fingerprint length in hex characters (64 bits).
const FingerprintLength = 16

// Fingerprint derives a stable short device identifier from an mDNS
// instance name. The fingerprint is the first 64 bits (16 hex chars) of
// SHA3-256(instance).
func Fingerprint(instance string) string {
	hash := sha3.Sum256([]byte(instance))
	return hex.EncodeToString(hash[:8])
}

// ValidateFingerprint checks whether an ID is a valid 64-bit fingerprint.
func ValidateFingerprint(id string) bool {
	if len(id) != FingerprintLength {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}

package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTokenID computes a deterministic token_id using SHA256.
// Formula: SHA256(chain|pair_address)
// Returns hex-encoded hash (64 characters).
//
// One monitored entry tracks one pair, so (chain, pair) is the natural
// key and re-enrolling the same pair is a no-op at the storage layer.
func ComputeTokenID(chain, pairAddress string) string {
	data := fmt.Sprintf("%s|%s", chain, pairAddress)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

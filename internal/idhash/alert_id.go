package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
)

// ComputeAlertID computes a deterministic alert_id using SHA256.
// Formula: SHA256(token_id|tier)
// Returns hex-encoded hash (64 characters).
//
// Keying on the tier makes alert writes idempotent: re-crossing the
// same ladder tier maps to the same row and is rejected as a duplicate.
func ComputeAlertID(tokenID string, tier float64) string {
	data := fmt.Sprintf("%s|%s", tokenID, strconv.FormatFloat(tier, 'f', -1, 64))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

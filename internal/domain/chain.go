package domain

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// Chains with case-insensitive hex addresses. Solana addresses are
// base58 and case-sensitive, so they are never lowercased.
var evmChains = map[string]bool{
	"eth":       true,
	"bsc":       true,
	"polygon":   true,
	"arbitrum":  true,
	"optimism":  true,
	"base":      true,
	"avalanche": true,
}

// IsEVMChain reports whether the chain uses EVM-style hex addresses.
func IsEVMChain(chain string) bool {
	return evmChains[strings.ToLower(chain)]
}

// NormalizeAddress canonicalizes a pair or token address for its chain.
// EVM addresses are lowercased; Solana addresses keep their case and
// must decode as base58 of public-key length.
func NormalizeAddress(chain, address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("empty address")
	}

	if IsEVMChain(chain) {
		return strings.ToLower(address), nil
	}

	if strings.EqualFold(chain, "solana") {
		raw, err := base58.Decode(address)
		if err != nil {
			return "", fmt.Errorf("decode solana address %q: %w", address, err)
		}
		if len(raw) != 32 {
			return "", fmt.Errorf("solana address %q: got %d bytes, want 32", address, len(raw))
		}
		return address, nil
	}

	// Unknown chains pass through untouched.
	return address, nil
}

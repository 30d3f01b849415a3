package domain

import "github.com/shopspring/decimal"

// PotentialToken is a discovery-feed record awaiting promotion into
// monitoring. Values are scrape-time observations, not live quotes.
// Corresponds to potential_tokens table in PostgreSQL.
type PotentialToken struct {
	CandidateID  string // PRIMARY KEY, deterministic hash of (chain, pair)
	TokenAddress string
	PairAddress  string
	Chain        string
	Symbol       string
	Name         string

	Price        decimal.Decimal  // price at scrape time
	MarketCap    *decimal.Decimal // scrape-time market cap (nullable)
	Liquidity    *decimal.Decimal // scrape-time liquidity (nullable)
	Change24h    *float64         // 24h price change percent (nullable)
	DiscoveredAt int64            // Unix ms
	PromotedAt   *int64           // set when converted into a MonitoredToken
	DeletedAt    *int64           // soft-delete marker, Unix ms
	Purged       bool             // permanent-delete marker
}

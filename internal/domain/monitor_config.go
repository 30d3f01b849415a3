package domain

// ConfigEntry is one persisted configuration override. Entries shadow
// environment defaults so operators can retune thresholds without a
// restart. Corresponds to monitor_config table in PostgreSQL.
type ConfigEntry struct {
	Key         string // PRIMARY KEY
	Value       string
	Description string
	UpdatedAt   int64 // Unix ms
}

// Well-known configuration keys.
const (
	ConfigKeyAlertThresholds   = "alert_thresholds"
	ConfigKeyMinMarketCap      = "min_monitor_market_cap"
	ConfigKeyMinLiquidity      = "min_monitor_liquidity"
	ConfigKeyTickInterval      = "tick_interval_minutes"
	ConfigKeyInterRequestDelay = "inter_request_delay_seconds"
)

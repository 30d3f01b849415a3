package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"dexwatch/internal/domain"
	"dexwatch/internal/httpclient"
)

// stubDoer returns a canned body and records the request.
type stubDoer struct {
	body     []byte
	err      error
	gotPath  string
	gotQuery url.Values
}

func (s *stubDoer) Get(_ context.Context, path string, query url.Values) ([]byte, error) {
	s.gotPath = path
	s.gotQuery = query
	if s.err != nil {
		return nil, s.err
	}
	return s.body, nil
}

func TestAveGateway_GetPairSnapshot(t *testing.T) {
	// Values arrive as a mix of numbers, quoted numbers and nulls.
	doer := &stubDoer{body: []byte(`{
		"status": 1,
		"data": {
			"pair": "0xPAIR",
			"token0_symbol": "TST",
			"token0_name": "Test Token",
			"current_price_usd": "0.0000012",
			"price_ath_u": 0.00001,
			"tvl": "250000.5",
			"fdv": "1000000",
			"price_change_24h": "-42.5",
			"volume_u_24h": 98765.4,
			"tx_24h_count": "1200",
			"buys_24h": 700,
			"sells_24h": 500,
			"lp_holders": "3",
			"locked_percent": "95.5",
			"lock_platform": "pinksale",
			"first_trade_at": 1700000000
		}
	}`)}
	gateway := NewAveGateway(doer)

	snap, err := gateway.GetPairSnapshot(context.Background(), "0xpair", "bsc")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("snapshot is nil")
	}

	if doer.gotPath != "/v2/pairs/0xpair-bsc" {
		t.Errorf("path = %s", doer.gotPath)
	}
	if snap.Symbol != "TST" {
		t.Errorf("symbol = %s", snap.Symbol)
	}
	if snap.Price.String() != "0.0000012" {
		t.Errorf("price = %s", snap.Price)
	}
	if snap.ATHPrice == nil || snap.ATHPrice.String() != "0.00001" {
		t.Errorf("ath = %v", snap.ATHPrice)
	}
	if snap.TVL == nil || snap.TVL.String() != "250000.5" {
		t.Errorf("tvl = %v", snap.TVL)
	}
	// market_cap is absent; FDV stands in.
	if snap.MarketCap == nil || snap.MarketCap.String() != "1000000" {
		t.Errorf("market cap = %v, want FDV fallback", snap.MarketCap)
	}

	day, ok := snap.Windows["24h"]
	if !ok {
		t.Fatal("missing 24h window")
	}
	if day.PriceChangePercent == nil || *day.PriceChangePercent != -42.5 {
		t.Errorf("24h change = %v", day.PriceChangePercent)
	}
	if day.Volume == nil || day.Volume.String() != "98765.4" {
		t.Errorf("24h volume = %v", day.Volume)
	}
	if day.TxCount == nil || *day.TxCount != 1200 {
		t.Errorf("24h txs = %v", day.TxCount)
	}
	if day.Buys == nil || *day.Buys != 700 || day.Sells == nil || *day.Sells != 500 {
		t.Errorf("24h buys/sells = %v/%v", day.Buys, day.Sells)
	}

	// Windows the provider omitted read as absent, not zero.
	if m1 := snap.Windows["1m"]; m1.Volume != nil || m1.PriceChangePercent != nil {
		t.Errorf("1m window = %+v, want absent fields", m1)
	}

	if snap.LPHolders == nil || *snap.LPHolders != 3 {
		t.Errorf("lp holders = %v", snap.LPHolders)
	}
	if snap.LPLockedPercent == nil || *snap.LPLockedPercent != 95.5 {
		t.Errorf("lp locked = %v", snap.LPLockedPercent)
	}
	if snap.LockPlatform != "pinksale" {
		t.Errorf("lock platform = %s", snap.LockPlatform)
	}
	// first_trade_at arrives in seconds and is stored in ms.
	if snap.FirstTradeAt == nil || *snap.FirstTradeAt != 1700000000000 {
		t.Errorf("first trade at = %v", snap.FirstTradeAt)
	}
}

func TestAveGateway_GetPairSnapshotAbsence(t *testing.T) {
	tests := []struct {
		name string
		doer *stubDoer
	}{
		{"provider 404", &stubDoer{err: fmt.Errorf("wrapped: %w", httpclient.ErrNoData)}},
		{"status zero", &stubDoer{body: []byte(`{"status":0,"data":null}`)}},
		{"empty data", &stubDoer{body: []byte(`{"status":1}`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := NewAveGateway(tt.doer)
			snap, err := gateway.GetPairSnapshot(context.Background(), "0xgone", "bsc")
			if err != nil {
				t.Fatalf("err = %v, want nil", err)
			}
			if snap != nil {
				t.Fatalf("snap = %+v, want nil", snap)
			}
		})
	}
}

func TestAveGateway_GetPairSnapshotError(t *testing.T) {
	doer := &stubDoer{err: httpclient.ErrTransient}
	gateway := NewAveGateway(doer)

	_, err := gateway.GetPairSnapshot(context.Background(), "0xpair", "bsc")
	if !errors.Is(err, httpclient.ErrTransient) {
		t.Fatalf("err = %v, want transient to propagate", err)
	}
}

func TestAveGateway_GetCandles(t *testing.T) {
	doer := &stubDoer{body: []byte(`{
		"status": 1,
		"data": {
			"points": [
				{"time": 1700000000, "open": "1", "high": "2", "low": "0.5", "close": "1.5", "volume": "1000"},
				{"time": 1700014400, "open": "1.5", "high": "3", "low": "1", "close": "2.5"},
				{"open": "9", "high": "9", "low": "9", "close": "9", "volume": "9"},
				{"time": 1700028800, "open": "2.5", "high": "2.5", "low": "2", "close": null, "volume": "500"}
			]
		}
	}`)}
	gateway := NewAveGateway(doer)

	tf := domain.Timeframe{Resolution: domain.ResolutionHour, Aggregate: 4}
	candles, err := gateway.GetCandles(context.Background(), "0xpair", "bsc", tf, 100, 1700000000000, 1700030000000)
	if err != nil {
		t.Fatalf("get candles: %v", err)
	}

	if doer.gotPath != "/v2/klines/pair/0xpair-bsc" {
		t.Errorf("path = %s", doer.gotPath)
	}
	if got := doer.gotQuery.Get("interval"); got != "240" {
		t.Errorf("interval = %s, want 240 for hour/4", got)
	}
	if got := doer.gotQuery.Get("limit"); got != "100" {
		t.Errorf("limit = %s", got)
	}
	// from/to convert ms to seconds on the wire.
	if got := doer.gotQuery.Get("from"); got != "1700000000" {
		t.Errorf("from = %s", got)
	}
	if got := doer.gotQuery.Get("to"); got != "1700030000" {
		t.Errorf("to = %s", got)
	}

	// Rows missing a timestamp or any OHLC component are dropped.
	if len(candles) != 2 {
		t.Fatalf("got %d candles, want 2", len(candles))
	}

	first := candles[0]
	if first.OpenTime != 1700000000000 {
		t.Errorf("open time = %d, want seconds converted to ms", first.OpenTime)
	}
	if first.Resolution != domain.ResolutionHour || first.Aggregate != 4 {
		t.Errorf("timeframe = %s/%d", first.Resolution, first.Aggregate)
	}
	if first.Open.String() != "1" || first.Close.String() != "1.5" {
		t.Errorf("ohlc = %s/%s", first.Open, first.Close)
	}

	// Missing volume reads as zero, not a dropped row.
	second := candles[1]
	if !second.Volume.IsZero() {
		t.Errorf("volume = %s, want 0", second.Volume)
	}
}

func TestAveGateway_GetCandlesAbsence(t *testing.T) {
	doer := &stubDoer{body: []byte(`{"status":0}`)}
	gateway := NewAveGateway(doer)

	tf := domain.Timeframe{Resolution: domain.ResolutionMinute, Aggregate: 1}
	candles, err := gateway.GetCandles(context.Background(), "0xpair", "bsc", tf, 10, 0, 0)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if candles != nil {
		t.Fatalf("candles = %v, want nil", candles)
	}
}

func TestIntervalMinutes(t *testing.T) {
	tests := []struct {
		tf   domain.Timeframe
		want int
	}{
		{domain.Timeframe{Resolution: domain.ResolutionMinute, Aggregate: 1}, 1},
		{domain.Timeframe{Resolution: domain.ResolutionMinute, Aggregate: 15}, 15},
		{domain.Timeframe{Resolution: domain.ResolutionHour, Aggregate: 1}, 60},
		{domain.Timeframe{Resolution: domain.ResolutionHour, Aggregate: 12}, 720},
		{domain.Timeframe{Resolution: domain.ResolutionDay, Aggregate: 1}, 1440},
	}

	for _, tt := range tests {
		if got := intervalMinutes(tt.tf); got != tt.want {
			t.Errorf("intervalMinutes(%s) = %d, want %d", tt.tf, got, tt.want)
		}
	}
}

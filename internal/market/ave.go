package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"dexwatch/internal/domain"
	"dexwatch/internal/httpclient"
)

// AveGateway implements Gateway against the AVE pair API.
// Pairs are addressed as "{pair_address}-{chain}".
type AveGateway struct {
	client HTTPDoer
}

// NewAveGateway creates a gateway on top of a rate-limited client.
func NewAveGateway(client HTTPDoer) *AveGateway {
	return &AveGateway{client: client}
}

// pairResponse is the raw envelope for GET /v2/pairs/{pair}-{chain}.
type pairResponse struct {
	Status int         `json:"status"`
	Data   *pairDetail `json:"data"`
}

type pairDetail struct {
	PairAddress  string `json:"pair"`
	TokenAddress string `json:"token0_address"`
	Symbol       string `json:"token0_symbol"`
	Name         string `json:"token0_name"`

	CurrentPriceUSD flexNumber `json:"current_price_usd"`
	PriceATH        flexNumber `json:"price_ath_u"`
	TVL             flexNumber `json:"tvl"`
	MarketCap       flexNumber `json:"market_cap"`
	FDV             flexNumber `json:"fdv"`

	PriceChange1m  flexNumber `json:"price_change_1m"`
	PriceChange5m  flexNumber `json:"price_change_5m"`
	PriceChange15m flexNumber `json:"price_change_15m"`
	PriceChange30m flexNumber `json:"price_change_30m"`
	PriceChange1h  flexNumber `json:"price_change_1h"`
	PriceChange4h  flexNumber `json:"price_change_4h"`
	PriceChange24h flexNumber `json:"price_change_24h"`

	Volume1m  flexNumber `json:"volume_u_1m"`
	Volume5m  flexNumber `json:"volume_u_5m"`
	Volume15m flexNumber `json:"volume_u_15m"`
	Volume30m flexNumber `json:"volume_u_30m"`
	Volume1h  flexNumber `json:"volume_u_1h"`
	Volume4h  flexNumber `json:"volume_u_4h"`
	Volume24h flexNumber `json:"volume_u_24h"`

	TxCount1m  flexNumber `json:"tx_1m_count"`
	TxCount5m  flexNumber `json:"tx_5m_count"`
	TxCount15m flexNumber `json:"tx_15m_count"`
	TxCount30m flexNumber `json:"tx_30m_count"`
	TxCount1h  flexNumber `json:"tx_1h_count"`
	TxCount4h  flexNumber `json:"tx_4h_count"`
	TxCount24h flexNumber `json:"tx_24h_count"`

	Buys24h  flexNumber `json:"buys_24h"`
	Sells24h flexNumber `json:"sells_24h"`
	Makers   flexNumber `json:"makers"`
	Buyers   flexNumber `json:"buyers"`
	Sellers  flexNumber `json:"sellers"`

	High24h flexNumber `json:"high_u"`
	Low24h  flexNumber `json:"low_u"`
	Open24h flexNumber `json:"open_price"`

	LPHolders       flexNumber `json:"lp_holders"`
	LPLockedPercent flexNumber `json:"locked_percent"`
	LockPlatform    string     `json:"lock_platform"`

	FirstTradeAt flexNumber `json:"first_trade_at"` // Unix seconds
}

// GetPairSnapshot fetches and parses the pair detail endpoint.
// Returns (nil, nil) when the provider has no record for the pair.
func (g *AveGateway) GetPairSnapshot(ctx context.Context, pairAddress, chain string) (*domain.PairSnapshot, error) {
	path := fmt.Sprintf("/v2/pairs/%s-%s", pairAddress, chain)

	body, err := g.client.Get(ctx, path, nil)
	if err != nil {
		if errors.Is(err, httpclient.ErrNoData) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pair %s-%s: %w", pairAddress, chain, err)
	}

	var resp pairResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal pair %s-%s: %w", pairAddress, chain, err)
	}
	if resp.Status != 1 || resp.Data == nil {
		// Status 0 with empty data means the pair is unknown.
		return nil, nil
	}

	return parsePairDetail(resp.Data, pairAddress, chain), nil
}

// parsePairDetail maps raw provider fields onto a PairSnapshot.
// Missing numerics become nil, never an error.
func parsePairDetail(d *pairDetail, pairAddress, chain string) *domain.PairSnapshot {
	price := d.CurrentPriceUSD.Decimal()
	if price == nil {
		zero := decimal.Zero
		price = &zero
	}

	snap := &domain.PairSnapshot{
		PairAddress: pairAddress,
		Chain:       chain,
		Symbol:      d.Symbol,
		Name:        d.Name,
		Price:       *price,
		ATHPrice:    d.PriceATH.Decimal(),
		TVL:         d.TVL.Decimal(),
		MarketCap:   d.MarketCap.Decimal(),
		High24h:     d.High24h.Decimal(),
		Low24h:      d.Low24h.Decimal(),
		Open24h:     d.Open24h.Decimal(),
		Makers:      d.Makers.Int(),
		Buyers:      d.Buyers.Int(),
		Sellers:     d.Sellers.Int(),

		LPHolders:       d.LPHolders.Int(),
		LPLockedPercent: d.LPLockedPercent.Float(),
		LockPlatform:    d.LockPlatform,

		ObservedAt: time.Now().UnixMilli(),
	}

	// FDV stands in for market cap when the provider omits it.
	if snap.MarketCap == nil {
		snap.MarketCap = d.FDV.Decimal()
	}

	if ts := d.FirstTradeAt.Int(); ts != nil {
		ms := *ts * 1000
		snap.FirstTradeAt = &ms
	}

	snap.Windows = map[string]domain.WindowStats{
		"1m":  {PriceChangePercent: d.PriceChange1m.Float(), Volume: d.Volume1m.Decimal(), TxCount: d.TxCount1m.Int()},
		"5m":  {PriceChangePercent: d.PriceChange5m.Float(), Volume: d.Volume5m.Decimal(), TxCount: d.TxCount5m.Int()},
		"15m": {PriceChangePercent: d.PriceChange15m.Float(), Volume: d.Volume15m.Decimal(), TxCount: d.TxCount15m.Int()},
		"30m": {PriceChangePercent: d.PriceChange30m.Float(), Volume: d.Volume30m.Decimal(), TxCount: d.TxCount30m.Int()},
		"1h":  {PriceChangePercent: d.PriceChange1h.Float(), Volume: d.Volume1h.Decimal(), TxCount: d.TxCount1h.Int()},
		"4h":  {PriceChangePercent: d.PriceChange4h.Float(), Volume: d.Volume4h.Decimal(), TxCount: d.TxCount4h.Int()},
		"24h": {
			PriceChangePercent: d.PriceChange24h.Float(),
			Volume:             d.Volume24h.Decimal(),
			TxCount:            d.TxCount24h.Int(),
			Buys:               d.Buys24h.Int(),
			Sells:              d.Sells24h.Int(),
		},
	}

	return snap
}

// klineResponse is the raw envelope for GET /v2/klines/pair/{pair}-{chain}.
type klineResponse struct {
	Status int `json:"status"`
	Data   *struct {
		Points []klinePoint `json:"points"`
	} `json:"data"`
}

type klinePoint struct {
	Time   flexNumber `json:"time"` // bar start, Unix seconds
	Open   flexNumber `json:"open"`
	High   flexNumber `json:"high"`
	Low    flexNumber `json:"low"`
	Close  flexNumber `json:"close"`
	Volume flexNumber `json:"volume"`
}

// GetCandles fetches OHLCV bars. Rows missing any OHLC component are
// dropped rather than failing the batch.
func (g *AveGateway) GetCandles(ctx context.Context, pairAddress, chain string, tf domain.Timeframe, limit int, from, to int64) ([]*domain.Candle, error) {
	path := fmt.Sprintf("/v2/klines/pair/%s-%s", pairAddress, chain)

	query := url.Values{}
	query.Set("category", "u")
	query.Set("interval", strconv.Itoa(intervalMinutes(tf)))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if from > 0 {
		query.Set("from", strconv.FormatInt(from/1000, 10))
	}
	if to > 0 {
		query.Set("to", strconv.FormatInt(to/1000, 10))
	}

	body, err := g.client.Get(ctx, path, query)
	if err != nil {
		if errors.Is(err, httpclient.ErrNoData) {
			return nil, nil
		}
		return nil, fmt.Errorf("get klines %s-%s: %w", pairAddress, chain, err)
	}

	var resp klineResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal klines %s-%s: %w", pairAddress, chain, err)
	}
	if resp.Status != 1 || resp.Data == nil {
		return nil, nil
	}

	candles := make([]*domain.Candle, 0, len(resp.Data.Points))
	for _, p := range resp.Data.Points {
		ts := p.Time.Int()
		open := p.Open.Decimal()
		high := p.High.Decimal()
		low := p.Low.Decimal()
		closePrice := p.Close.Decimal()
		if ts == nil || open == nil || high == nil || low == nil || closePrice == nil {
			continue
		}

		volume := p.Volume.Decimal()
		if volume == nil {
			zero := decimal.Zero
			volume = &zero
		}

		candles = append(candles, &domain.Candle{
			PairAddress: pairAddress,
			Chain:       chain,
			Resolution:  tf.Resolution,
			Aggregate:   tf.Aggregate,
			OpenTime:    *ts * 1000,
			Open:        *open,
			High:        *high,
			Low:         *low,
			Close:       *closePrice,
			Volume:      *volume,
		})
	}

	return candles, nil
}

// intervalMinutes maps a timeframe to the provider's interval parameter.
func intervalMinutes(tf domain.Timeframe) int {
	switch tf.Resolution {
	case domain.ResolutionMinute:
		return tf.Aggregate
	case domain.ResolutionHour:
		return tf.Aggregate * 60
	case domain.ResolutionDay:
		return tf.Aggregate * 1440
	default:
		return 1
	}
}

// Verify interface compliance at compile time.
var _ Gateway = (*AveGateway)(nil)

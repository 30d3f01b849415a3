// Package monitor implements the per-token price surveillance state
// machine: snapshot refresh, monotonic ATH tracking, the graduated
// alert ladder and the removal floors.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"dexwatch/internal/domain"
	"dexwatch/internal/idhash"
	"dexwatch/internal/market"
	"dexwatch/internal/observability"
	"dexwatch/internal/storage"
)

// Default engine parameters.
const (
	DefaultInterRequestDelay = 1 * time.Second
)

// DefaultAlertThresholds is the ladder applied to tokens enrolled
// without an explicit one.
var DefaultAlertThresholds = []float64{70, 80, 90}

// Engine drives one surveillance tick over all monitored tokens.
type Engine struct {
	gateway market.Gateway
	tokens  storage.MonitoredTokenStore
	alerts  storage.PriceAlertStore

	thresholds        []float64
	minMarketCap      decimal.Decimal
	minLiquidity      decimal.Decimal
	interRequestDelay time.Duration

	logger *log.Logger
	now    func() time.Time

	// mu makes ticks single-flight per engine instance.
	mu sync.Mutex
}

// Options for creating Engine.
type Options struct {
	Gateway market.Gateway
	Tokens  storage.MonitoredTokenStore
	Alerts  storage.PriceAlertStore

	// AlertThresholds is the default ladder for tokens without one.
	AlertThresholds []float64

	// MinMarketCap and MinLiquidity are removal floors; zero disables
	// the corresponding check.
	MinMarketCap decimal.Decimal
	MinLiquidity decimal.Decimal

	// InterRequestDelay spaces per-token provider calls on top of the
	// limiter's own throttling.
	InterRequestDelay time.Duration

	Logger *log.Logger
	Now    func() time.Time // test hook
}

// New creates an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		gateway:           opts.Gateway,
		tokens:            opts.Tokens,
		alerts:            opts.Alerts,
		thresholds:        opts.AlertThresholds,
		minMarketCap:      opts.MinMarketCap,
		minLiquidity:      opts.MinLiquidity,
		interRequestDelay: opts.InterRequestDelay,
		logger:            opts.Logger,
		now:               opts.Now,
	}
	if len(e.thresholds) == 0 {
		e.thresholds = DefaultAlertThresholds
	}
	if e.interRequestDelay <= 0 {
		e.interRequestDelay = DefaultInterRequestDelay
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// TickSummary reports one tick's outcome. Partial failure is normal;
// callers inspect counts instead of receiving an error.
type TickSummary struct {
	Checked            int
	Updated            int
	Skipped            int // provider had no data this tick
	Failed             int
	AlertsTriggered    int
	Removed            int
	RemovedByMarketCap int
	RemovedByLiquidity int
	Duration           time.Duration
}

// Tick processes every active token once, sequentially and in stable
// enrollment order. A failure for one token never aborts the rest.
// Only a storage failure loading the token set is returned as an error.
func (e *Engine) Tick(ctx context.Context) (*TickSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := e.now()
	summary := &TickSummary{}

	tokens, err := e.tokens.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active tokens: %w", err)
	}
	summary.Checked = len(tokens)
	observability.SetTokensMonitored(len(tokens))

	for i, token := range tokens {
		if i > 0 {
			if err := sleep(ctx, e.interRequestDelay); err != nil {
				summary.Duration = e.now().Sub(started)
				return summary, err
			}
		}

		outcome, err := e.processToken(ctx, token)
		if err != nil {
			if ctx.Err() != nil {
				summary.Duration = e.now().Sub(started)
				return summary, ctx.Err()
			}
			summary.Failed++
			observability.RecordTokenFailed()
			e.logf("token %s (%s): %v", token.Symbol, token.PairAddress, err)
			continue
		}
		summary.add(outcome)
	}

	summary.Duration = e.now().Sub(started)
	observability.RecordTick(summary.Duration.Seconds(), e.now().Unix())
	e.logf("tick done: checked=%d updated=%d skipped=%d failed=%d alerts=%d removed=%d (mcap=%d liq=%d) in %s",
		summary.Checked, summary.Updated, summary.Skipped, summary.Failed,
		summary.AlertsTriggered, summary.Removed,
		summary.RemovedByMarketCap, summary.RemovedByLiquidity, summary.Duration)
	return summary, nil
}

// tokenOutcome is the per-token result folded into the tick summary.
type tokenOutcome struct {
	updated   bool
	skipped   bool
	alerted   bool
	removedBy domain.RemovalReason
}

func (s *TickSummary) add(o tokenOutcome) {
	if o.updated {
		s.Updated++
		observability.RecordTokenUpdated()
	}
	if o.skipped {
		s.Skipped++
	}
	if o.alerted {
		s.AlertsTriggered++
	}
	switch o.removedBy {
	case domain.RemovalLowMarketCap:
		s.Removed++
		s.RemovedByMarketCap++
	case domain.RemovalLowLiquidity:
		s.Removed++
		s.RemovedByLiquidity++
	}
}

// processToken runs the tick state machine for one token.
func (e *Engine) processToken(ctx context.Context, token *domain.MonitoredToken) (tokenOutcome, error) {
	var outcome tokenOutcome

	snap, err := e.gateway.GetPairSnapshot(ctx, token.PairAddress, token.Chain)
	if err != nil {
		return outcome, fmt.Errorf("snapshot: %w", err)
	}
	if snap == nil {
		// Provider has no record this tick. Not an error, not a removal.
		outcome.skipped = true
		e.logf("token %s (%s): no data, skipping", token.Symbol, token.PairAddress)
		return outcome, nil
	}

	now := e.now().UnixMilli()
	e.applySnapshot(token, snap, now)

	alerted, err := e.evaluateLadder(ctx, token, now)
	if err != nil {
		return outcome, err
	}
	outcome.alerted = alerted

	// All derived fields for one token persist in one store call.
	if err := e.tokens.Update(ctx, token); err != nil {
		return outcome, fmt.Errorf("update: %w", err)
	}
	outcome.updated = true

	// Removal floors apply regardless of alert state: a token can be
	// alerted and removed in the same tick.
	reason, err := e.evaluateRemoval(ctx, token, snap, now)
	if err != nil {
		return outcome, err
	}
	outcome.removedBy = reason

	return outcome, nil
}

// applySnapshot refreshes current price, the monotonic ATH and the
// enrichment fields.
func (e *Engine) applySnapshot(token *domain.MonitoredToken, snap *domain.PairSnapshot, now int64) {
	token.CurrentPrice = snap.Price
	token.UpdatedAt = now

	// The ATH never decreases. It rises to the provider's historical
	// high when one is exposed, and to the observed price otherwise.
	if snap.ATHPrice != nil && snap.ATHPrice.GreaterThan(token.ATHPrice) {
		token.ATHPrice = *snap.ATHPrice
		token.ATHAt = now
	}
	if snap.Price.GreaterThan(token.ATHPrice) {
		token.ATHPrice = snap.Price
		token.ATHAt = now
	}

	token.MarketCap = snap.MarketCap
	token.TVL = snap.TVL
	if w, ok := snap.Windows["24h"]; ok {
		token.Volume24h = w.Volume
	}
}

// evaluateLadder fires at most one alert: the highest un-alerted tier
// the current drop reaches. Returns whether an alert fired.
func (e *Engine) evaluateLadder(ctx context.Context, token *domain.MonitoredToken, now int64) (bool, error) {
	if token.Status == domain.StatusStopped {
		// Terminal for alerting; price updates continue for display.
		return false, nil
	}
	if token.ATHPrice.IsZero() {
		return false, nil
	}

	dropFromATH := dropPercent(token.ATHPrice, token.CurrentPrice)

	ladder := token.Ladder()
	if len(ladder) == 0 {
		ladder = e.thresholds
	}

	tier, ok := HighestTier(ladder, dropFromATH)
	if !ok {
		return false, nil
	}

	history, err := e.alerts.GetByTokenID(ctx, token.TokenID)
	if err != nil {
		return false, fmt.Errorf("alert history: %w", err)
	}

	// One alert per tier. Alerts record their tier at creation; legacy
	// rows without one are re-classified against the current ladder.
	for _, prior := range history {
		priorTier := prior.Tier
		if priorTier == 0 {
			if t, ok := HighestTier(ladder, prior.DropFromATH); ok {
				priorTier = t
			}
		}
		if priorTier == tier {
			return false, nil
		}
	}

	alert := &domain.PriceAlert{
		AlertID:      idhash.ComputeAlertID(token.TokenID, tier),
		TokenID:      token.TokenID,
		TriggeredAt:  now,
		TriggerPrice: token.CurrentPrice,
		ATHPrice:     token.ATHPrice,
		EntryPrice:   token.EntryPrice,
		DropFromATH:  dropFromATH,
		Tier:         tier,
		Severity:     domain.SeverityForDrop(dropFromATH),
	}
	if !token.EntryPrice.IsZero() {
		alert.DropFromEntry = dropPercent(token.EntryPrice, token.CurrentPrice)
	}

	if err := e.alerts.Insert(ctx, alert); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			// Another writer got there first; the tier is covered.
			return false, nil
		}
		return false, fmt.Errorf("save alert: %w", err)
	}

	token.Status = domain.StatusAlerted
	observability.RecordAlert(alert.Severity.String())
	e.logf("ALERT %s (%s): drop %.1f%% from ATH, tier %.0f, severity %s, price %s, ath %s",
		token.Symbol, token.PairAddress, dropFromATH, tier, alert.Severity,
		token.CurrentPrice.String(), token.ATHPrice.String())
	return true, nil
}

// evaluateRemoval soft-deletes tokens below the configured floors.
// Market cap is checked before liquidity; a missing figure skips that
// check rather than removing on absent data.
func (e *Engine) evaluateRemoval(ctx context.Context, token *domain.MonitoredToken, snap *domain.PairSnapshot, now int64) (domain.RemovalReason, error) {
	var reason domain.RemovalReason

	switch {
	case e.minMarketCap.IsPositive() && snap.MarketCap != nil && snap.MarketCap.LessThan(e.minMarketCap):
		reason = domain.RemovalLowMarketCap
	case e.minLiquidity.IsPositive() && snap.TVL != nil && snap.TVL.LessThan(e.minLiquidity):
		reason = domain.RemovalLowLiquidity
	default:
		return "", nil
	}

	if err := e.tokens.SoftDelete(ctx, token.TokenID, reason, now); err != nil {
		return "", fmt.Errorf("remove (%s): %w", reason, err)
	}
	observability.RecordTokenRemoved(string(reason))
	e.logf("removed %s (%s): %s", token.Symbol, token.PairAddress, reason)
	return reason, nil
}

// dropPercent computes (from - to) / from * 100 as float64 for
// threshold comparison.
func dropPercent(from, to decimal.Decimal) float64 {
	if from.IsZero() {
		return 0
	}
	ratio, _ := from.Sub(to).Div(from).Float64()
	return ratio * 100
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func (e *Engine) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

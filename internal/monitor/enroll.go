package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"dexwatch/internal/domain"
	"dexwatch/internal/idhash"
	"dexwatch/internal/storage"
)

// Enroller promotes discovery-feed candidates into monitoring.
type Enroller struct {
	tokens     storage.MonitoredTokenStore
	candidates storage.PotentialTokenStore
	thresholds []float64
	logger     *log.Logger
	now        func() time.Time
}

// EnrollerOptions for creating Enroller.
type EnrollerOptions struct {
	Tokens     storage.MonitoredTokenStore
	Candidates storage.PotentialTokenStore

	// AlertThresholds is the ladder stamped onto new tokens.
	AlertThresholds []float64

	Logger *log.Logger
	Now    func() time.Time // test hook
}

// NewEnroller creates an Enroller.
func NewEnroller(opts EnrollerOptions) *Enroller {
	e := &Enroller{
		tokens:     opts.Tokens,
		candidates: opts.Candidates,
		thresholds: opts.AlertThresholds,
		logger:     opts.Logger,
		now:        opts.Now,
	}
	if len(e.thresholds) == 0 {
		e.thresholds = DefaultAlertThresholds
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Enroll converts one candidate into a MonitoredToken. At creation the
// entry price, current price and ATH are all the candidate's scrape
// price. Re-enrolling an already monitored pair is a no-op returning
// the existing token.
func (e *Enroller) Enroll(ctx context.Context, p *domain.PotentialToken) (*domain.MonitoredToken, error) {
	pairAddress, err := domain.NormalizeAddress(p.Chain, p.PairAddress)
	if err != nil {
		return nil, fmt.Errorf("enroll %s: %w", p.Symbol, err)
	}
	tokenAddress := p.TokenAddress
	if normalized, err := domain.NormalizeAddress(p.Chain, tokenAddress); err == nil {
		tokenAddress = normalized
	}

	now := e.now().UnixMilli()
	ladder := make([]float64, len(e.thresholds))
	copy(ladder, e.thresholds)

	token := &domain.MonitoredToken{
		TokenID:         idhash.ComputeTokenID(p.Chain, pairAddress),
		TokenAddress:    tokenAddress,
		PairAddress:     pairAddress,
		Chain:           p.Chain,
		Symbol:          p.Symbol,
		Name:            p.Name,
		EntryPrice:      p.Price,
		CurrentPrice:    p.Price,
		ATHPrice:        p.Price,
		ATHAt:           now,
		Status:          domain.StatusActive,
		AlertThresholds: ladder,
		MarketCap:       p.MarketCap,
		TVL:             p.Liquidity,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := e.tokens.Insert(ctx, token); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			existing, gerr := e.tokens.GetByID(ctx, token.TokenID)
			if gerr != nil {
				return nil, fmt.Errorf("enroll %s: load existing: %w", p.Symbol, gerr)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("enroll %s: %w", p.Symbol, err)
	}

	if p.CandidateID != "" {
		if err := e.candidates.MarkPromoted(ctx, p.CandidateID, now); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("mark promoted %s: %w", p.CandidateID, err)
		}
	}

	e.logf("enrolled %s (%s) on %s at %s", token.Symbol, token.PairAddress, token.Chain, token.EntryPrice.String())
	return token, nil
}

// EnrollPending promotes every unpromoted, undeleted candidate.
// Failures are isolated per candidate.
func (e *Enroller) EnrollPending(ctx context.Context) (int, error) {
	pending, err := e.candidates.GetPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("load pending candidates: %w", err)
	}

	var enrolled int
	for _, p := range pending {
		if _, err := e.Enroll(ctx, p); err != nil {
			e.logf("enroll %s failed: %v", p.Symbol, err)
			continue
		}
		enrolled++
	}
	return enrolled, nil
}

func (e *Enroller) logf(format string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

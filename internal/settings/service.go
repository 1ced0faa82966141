package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vinylworks/vinylops/internal/fx"
)

// CacheBumper invalidates cached aggregates that depend on the rates.
type CacheBumper interface {
	Bump(ctx context.Context) error
}

// Service reads and updates exchange rate settings.
type Service struct {
	repo       Repository
	normalizer fx.Normalizer
	cache      CacheBumper
	validate   *validator.Validate
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires the settings service. cache may be nil.
func NewService(repo Repository, normalizer fx.Normalizer, cache CacheBumper, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		normalizer: normalizer,
		cache:      cache,
		validate:   newValidator(),
		logger:     logger,
		now:        time.Now,
	}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Current returns the stored rates normalized against the defaults. A missing
// row yields the defaults.
func (s *Service) Current(ctx context.Context) (fx.ExchangeRates, error) {
	stored, ok, err := s.repo.Get(ctx)
	if err != nil {
		return fx.ExchangeRates{}, err
	}
	if !ok {
		return s.normalizer.Normalize(nil), nil
	}
	return s.normalizer.Normalize(&stored), nil
}

// Rates satisfies the analytics rate source contract.
func (s *Service) Rates(ctx context.Context) (fx.ExchangeRates, error) {
	return s.Current(ctx)
}

// Update validates and stores new rates, then invalidates cached aggregates.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (fx.ExchangeRates, error) {
	if err := s.validate.Struct(req); err != nil {
		return fx.ExchangeRates{}, fmt.Errorf("%w: %s", ErrValidation, describe(err))
	}
	rates := fx.ExchangeRates{
		JPYPerUSD: req.JPYPerUSD,
		VNDPerUSD: req.VNDPerUSD,
		UpdatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.repo.Save(ctx, rates); err != nil {
		return fx.ExchangeRates{}, err
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("settings: bump analytics cache", slog.Any("error", err))
		}
	}
	return rates, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

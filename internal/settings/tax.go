// Package settings stores service-wide key/value settings, most importantly
// the order tax rate.
package settings

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-sales-orders/internal/money"
)

const (
	KeyTaxRate = "order_tax_rate"
	// KeyLegacyTaxAmount held a flat tax amount before rates existed.
	// It is folded into KeyTaxRate the first time either is touched.
	KeyLegacyTaxAmount = "order_tax_amount"
)

// Store is a string key/value table. Set upserts key and removes every key
// in drop within the same write.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, drop ...string) error
}

type TaxStore struct {
	Store Store
}

func NewTaxStore(s Store) *TaxStore { return &TaxStore{Store: s} }

// GetRate returns the tax percentage, migrating the legacy amount key on the
// way if that is all there is. Unparseable stored values read as zero.
func (t *TaxStore) GetRate(ctx context.Context) (float64, error) {
	var snap snapshot

	live, ok, err := t.Store.Get(ctx, KeyTaxRate)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", KeyTaxRate, err)
	}
	snap.live, snap.hasLive = live, ok

	if !snap.hasLive {
		legacy, ok, err := t.Store.Get(ctx, KeyLegacyTaxAmount)
		if err != nil {
			return 0, fmt.Errorf("get %s: %w", KeyLegacyTaxAmount, err)
		}
		snap.legacy, snap.hasLegacy = legacy, ok
	}

	tr := plan(snap)
	if tr.write {
		if err := t.Store.Set(ctx, KeyTaxRate, tr.value, KeyLegacyTaxAmount); err != nil {
			return 0, fmt.Errorf("migrate %s: %w", KeyLegacyTaxAmount, err)
		}
	}
	return tr.rate, nil
}

// SetRate stores rate clamped at zero and rounded to cents, drops any legacy
// amount, and returns what was stored.
func (t *TaxStore) SetRate(ctx context.Context, rate float64) (float64, error) {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, fmt.Errorf("invalid tax rate %v", rate)
	}
	sanitized := money.NonNegative(rate)
	if err := t.Store.Set(ctx, KeyTaxRate, money.Format2(sanitized), KeyLegacyTaxAmount); err != nil {
		return 0, fmt.Errorf("set %s: %w", KeyTaxRate, err)
	}
	return sanitized, nil
}

// snapshot is what GetRate saw in the store before deciding anything.
type snapshot struct {
	live, legacy       string
	hasLive, hasLegacy bool
}

// transition is the outcome for a snapshot: the rate to report and, when
// write is set, the value to store under KeyTaxRate while KeyLegacyTaxAmount
// is removed.
type transition struct {
	rate  float64
	write bool
	value string
}

func plan(s snapshot) transition {
	switch {
	case s.hasLive:
		v, ok := parseRate(s.live)
		if !ok {
			return transition{}
		}
		return transition{rate: math.Max(0, v)}
	case s.hasLegacy:
		v, ok := parseRate(s.legacy)
		if !ok {
			return transition{}
		}
		sanitized := money.NonNegative(v)
		return transition{rate: sanitized, write: true, value: money.Format2(sanitized)}
	default:
		return transition{}
	}
}

func parseRate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

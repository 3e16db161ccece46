package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	kv     map[string]string
	sets   int
	getErr error
	setErr error
}

func newMemStore(kv map[string]string) *memStore {
	if kv == nil {
		kv = map[string]string{}
	}
	return &memStore{kv: kv}
}

func (m *memStore) Get(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.kv[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key, value string, drop ...string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.kv[key] = value
	for _, k := range drop {
		delete(m.kv, k)
	}
	return nil
}

func TestGetRateNothingStored(t *testing.T) {
	st := newMemStore(nil)
	rate, err := NewTaxStore(st).GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
	assert.Zero(t, st.sets)
}

func TestGetRateLiveKey(t *testing.T) {
	st := newMemStore(map[string]string{KeyTaxRate: "7.50"})
	rate, err := NewTaxStore(st).GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7.5, rate)
}

func TestGetRateCorruptedIsZero(t *testing.T) {
	for _, v := range []string{"abc", "", "NaN", "+Inf"} {
		st := newMemStore(map[string]string{KeyTaxRate: v})
		rate, err := NewTaxStore(st).GetRate(context.Background())
		require.NoError(t, err, v)
		assert.Equal(t, 0.0, rate, v)
		assert.Equal(t, v, st.kv[KeyTaxRate], "corrupted value is left alone")
	}
}

func TestGetRateNegativeLiveClamped(t *testing.T) {
	st := newMemStore(map[string]string{KeyTaxRate: "-4"})
	rate, err := NewTaxStore(st).GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
}

func TestGetRateMigratesLegacyOnce(t *testing.T) {
	st := newMemStore(map[string]string{KeyLegacyTaxAmount: "5.456"})
	ts := NewTaxStore(st)

	rate, err := ts.GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.46, rate)
	assert.Equal(t, map[string]string{KeyTaxRate: "5.46"}, st.kv)

	rate, err = ts.GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.46, rate)
	assert.Equal(t, 1, st.sets, "second read takes the live path")
	assert.NotContains(t, st.kv, KeyLegacyTaxAmount)
}

func TestGetRateLegacyNegativeMigratesAsZero(t *testing.T) {
	st := newMemStore(map[string]string{KeyLegacyTaxAmount: "-2"})
	rate, err := NewTaxStore(st).GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
	assert.Equal(t, map[string]string{KeyTaxRate: "0.00"}, st.kv)
}

func TestGetRateCorruptedLegacyIsZeroAndKept(t *testing.T) {
	st := newMemStore(map[string]string{KeyLegacyTaxAmount: "ten"})
	rate, err := NewTaxStore(st).GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, rate)
	assert.Zero(t, st.sets)
	assert.Contains(t, st.kv, KeyLegacyTaxAmount)
}

func TestGetRateLiveWinsOverLegacy(t *testing.T) {
	st := newMemStore(map[string]string{KeyTaxRate: "3.00", KeyLegacyTaxAmount: "9"})
	rate, err := NewTaxStore(st).GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3.0, rate)
	assert.Zero(t, st.sets)
}

func TestGetRateStoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	st := newMemStore(nil)
	st.getErr = boom
	_, err := NewTaxStore(st).GetRate(context.Background())
	assert.ErrorIs(t, err, boom)

	st = newMemStore(map[string]string{KeyLegacyTaxAmount: "1"})
	st.setErr = boom
	_, err = NewTaxStore(st).GetRate(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestSetRateRoundTrip(t *testing.T) {
	cases := []struct {
		in, want float64
		stored   string
	}{
		{7.5, 7.5, "7.50"},
		{8.125, 8.13, "8.13"},
		{0, 0, "0.00"},
		{-3, 0, "0.00"},
		{120, 120, "120.00"},
	}
	for _, c := range cases {
		st := newMemStore(nil)
		ts := NewTaxStore(st)

		got, err := ts.SetRate(context.Background(), c.in)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
		assert.Equal(t, c.stored, st.kv[KeyTaxRate])

		read, err := ts.GetRate(context.Background())
		require.NoError(t, err)
		assert.Equal(t, got, read)
	}
}

func TestSetRateDropsLegacy(t *testing.T) {
	st := newMemStore(map[string]string{KeyLegacyTaxAmount: "4"})
	ts := NewTaxStore(st)

	_, err := ts.SetRate(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyTaxRate: "6.00"}, st.kv)

	rate, err := ts.GetRate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6.0, rate)
}

func TestPlan(t *testing.T) {
	cases := []struct {
		name string
		in   snapshot
		want transition
	}{
		{"empty", snapshot{}, transition{}},
		{"live", snapshot{live: "2.25", hasLive: true}, transition{rate: 2.25}},
		{"live corrupted", snapshot{live: "x", hasLive: true}, transition{}},
		{"legacy", snapshot{legacy: "1.999", hasLegacy: true}, transition{rate: 2, write: true, value: "2.00"}},
		{"legacy corrupted", snapshot{legacy: "?", hasLegacy: true}, transition{}},
		{"both", snapshot{live: "1", hasLive: true, legacy: "9", hasLegacy: true}, transition{rate: 1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, plan(c.in))
		})
	}
}

func TestPlanIsIdempotent(t *testing.T) {
	first := plan(snapshot{legacy: "4.5", hasLegacy: true})
	require.True(t, first.write)

	after := snapshot{live: first.value, hasLive: true}
	second := plan(after)
	assert.False(t, second.write)
	assert.Equal(t, first.rate, second.rate)
}

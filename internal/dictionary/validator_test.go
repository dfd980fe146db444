package dictionary

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLookup struct {
	mock.Mock
}

func (m *MockLookup) Lookup(ctx context.Context, word string) (bool, error) {
	args := m.Called(ctx, word)
	return args.Bool(0), args.Error(1)
}

type fakeNow struct {
	t time.Time
}

func (f *fakeNow) now() time.Time {
	return f.t
}

func newTestValidator(lookup Lookup, max int) (*Validator, *fakeNow) {
	clock := &fakeNow{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	v := New(lookup, Options{TTL: time.Hour, MaxEntries: max, Now: clock.now})

	return v, clock
}

func TestValidatorCachesResult(t *testing.T) {
	lookup := &MockLookup{}
	lookup.On("Lookup", mock.Anything, "가방").Return(true, nil).Once()
	lookup.On("Lookup", mock.Anything, "가뱅").Return(false, nil).Once()

	v, _ := newTestValidator(lookup, 10)

	assert.True(t, v.IsValid(context.Background(), "가방"))
	assert.True(t, v.IsValid(context.Background(), "가방"))
	assert.False(t, v.IsValid(context.Background(), "가뱅"))
	assert.False(t, v.IsValid(context.Background(), "가뱅"))

	lookup.AssertExpectations(t)

	stats := v.Stats()
	assert.Equal(t, uint64(2), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, 2, stats.Entries)
}

func TestValidatorEntriesExpire(t *testing.T) {
	lookup := &MockLookup{}
	lookup.On("Lookup", mock.Anything, "가방").Return(true, nil).Twice()

	v, clock := newTestValidator(lookup, 10)

	require.True(t, v.IsValid(context.Background(), "가방"))

	clock.t = clock.t.Add(59 * time.Minute)
	require.True(t, v.IsValid(context.Background(), "가방"))
	lookup.AssertNumberOfCalls(t, "Lookup", 1)

	clock.t = clock.t.Add(time.Minute)
	require.True(t, v.IsValid(context.Background(), "가방"))
	lookup.AssertNumberOfCalls(t, "Lookup", 2)
}

func TestValidatorFailuresAreCachedBriefly(t *testing.T) {
	lookup := &MockLookup{}
	lookup.On("Lookup", mock.Anything, "나무").Return(false, errors.New("connection refused")).Once()
	lookup.On("Lookup", mock.Anything, "나무").Return(true, nil).Once()

	clock := &fakeNow{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	v := New(lookup, Options{TTL: time.Hour, FailureTTL: time.Minute, MaxEntries: 10, Now: clock.now})

	assert.False(t, v.IsValid(context.Background(), "나무"))
	assert.False(t, v.IsValid(context.Background(), "나무"))
	lookup.AssertNumberOfCalls(t, "Lookup", 1)

	clock.t = clock.t.Add(time.Minute)
	assert.True(t, v.IsValid(context.Background(), "나무"))
	assert.True(t, v.IsValid(context.Background(), "나무"))
	lookup.AssertNumberOfCalls(t, "Lookup", 2)

	stats := v.Stats()
	assert.Equal(t, uint64(1), stats.Failures)
	assert.Equal(t, uint64(2), stats.Hits)
	lookup.AssertExpectations(t)
}

func TestValidatorWithoutLookup(t *testing.T) {
	v, _ := newTestValidator(nil, 10)

	assert.False(t, v.IsValid(context.Background(), "나무"))
	assert.Equal(t, 0, v.Stats().Entries)
}

func TestCacheEvictsInInsertionOrder(t *testing.T) {
	clock := &fakeNow{t: time.Now()}
	c := newCache(time.Hour, 2, clock.now)

	c.put("가", true)
	c.put("나", true)

	// Reading does not protect an entry from eviction.
	_, ok := c.get("가")
	require.True(t, ok)

	c.put("다", false)

	_, ok = c.get("가")
	assert.False(t, ok)
	_, ok = c.get("나")
	assert.True(t, ok)
	valid, ok := c.get("다")
	assert.True(t, ok)
	assert.False(t, valid)
	assert.Equal(t, 2, c.len())
}

func TestCacheRefreshKeepsPosition(t *testing.T) {
	clock := &fakeNow{t: time.Now()}
	c := newCache(time.Hour, 2, clock.now)

	c.put("가", true)
	c.put("나", true)
	c.put("가", false)
	c.put("다", true)

	_, ok := c.get("가")
	assert.False(t, ok)
	assert.Equal(t, 2, c.len())
	assert.Len(t, c.order, 2)
}

func TestWordList(t *testing.T) {
	w := NewWordList("가방", " 방울 ", "", "# comment")

	assert.Equal(t, 2, w.Len())

	ok, err := w.Lookup(context.Background(), "방울")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = w.Lookup(context.Background(), "# comment")
	require.NoError(t, err)
	assert.False(t, ok)
}

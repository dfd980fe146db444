/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package dictionary decides whether a word is a real dictionary entry,
// caching the answers of a slow external lookup.
package dictionary

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultTTL        = 24 * time.Hour
	DefaultFailureTTL = 30 * time.Second
	DefaultMaxEntries = 10000
)

var ErrNotConfigured = errors.New("no dictionary lookup configured")

// Lookup asks an external source whether word is a headword.
type Lookup interface {
	Lookup(ctx context.Context, word string) (bool, error)
}

type Options struct {
	TTL        time.Duration
	FailureTTL time.Duration
	MaxEntries int
	Logger     zerolog.Logger
	Now        func() time.Time
}

type Stats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Failures uint64 `json:"failures"`
	Entries  int    `json:"entries"`
}

// Validator answers IsValid from its cache when it can, and from the
// configured Lookup otherwise. Lookup failures count as invalid words and are
// cached for FailureTTL only, so an outage does not hide a word for a day.
type Validator struct {
	lookup     Lookup
	cache      *cache
	failureTTL time.Duration
	log        zerolog.Logger

	hits     atomic.Uint64
	misses   atomic.Uint64
	failures atomic.Uint64
}

func New(lookup Lookup, opts Options) *Validator {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FailureTTL <= 0 || opts.FailureTTL > opts.TTL {
		opts.FailureTTL = min(DefaultFailureTTL, opts.TTL)
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Validator{
		lookup:     lookup,
		cache:      newCache(opts.TTL, opts.MaxEntries, opts.Now),
		failureTTL: opts.FailureTTL,
		log:        opts.Logger,
	}
}

func (v *Validator) IsValid(ctx context.Context, word string) bool {
	if valid, ok := v.cache.get(word); ok {
		v.hits.Add(1)

		return valid
	}

	v.misses.Add(1)

	valid, err := v.check(ctx, word)
	if err != nil {
		v.failures.Add(1)
		v.log.Warn().Err(err).Str("word", word).Msg("dictionary lookup failed")

		if !errors.Is(err, ErrNotConfigured) {
			v.cache.putFor(word, false, v.failureTTL)
		}

		return false
	}

	v.cache.put(word, valid)

	return valid
}

func (v *Validator) Stats() Stats {
	return Stats{
		Hits:     v.hits.Load(),
		Misses:   v.misses.Load(),
		Failures: v.failures.Load(),
		Entries:  v.cache.len(),
	}
}

func (v *Validator) check(ctx context.Context, word string) (bool, error) {
	if v.lookup == nil {
		return false, ErrNotConfigured
	}

	return v.lookup.Lookup(ctx, word)
}

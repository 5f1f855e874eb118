// Package dedup detects near-duplicate questions.
//
// Questions are normalized (case-folded, punctuation removed, whitespace
// collapsed) and compared with a sequence-similarity ratio 2*M/T, where M is
// the number of runes in matching segments and T the total rune count of
// both strings. A candidate is a duplicate when its normalized form equals an
// existing one or the ratio reaches the threshold.
package dedup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"

	"github.com/berth-dev/briefing/internal/model"
)

// DefaultThreshold is the similarity ratio at which two questions are
// considered the same.
const DefaultThreshold = 0.7

// DefaultCacheSize bounds the pair-similarity cache.
const DefaultCacheSize = 1024

var punctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

type pair struct{ a, b string }

// Deduplicator compares questions. It is safe for concurrent use.
type Deduplicator struct {
	threshold float64
	dmp       *diffmatchpatch.DiffMatchPatch
	cache     *lru.Cache[pair, float64]
	logger    *zap.Logger
}

// New returns a Deduplicator. threshold must be in (0, 1]; cacheSize <= 0
// selects DefaultCacheSize.
func New(threshold float64, cacheSize int, logger *zap.Logger) (*Deduplicator, error) {
	if threshold <= 0 || threshold > 1 {
		return nil, fmt.Errorf("similarity threshold %v outside (0, 1]", threshold)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[pair, float64](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create similarity cache: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	return &Deduplicator{threshold: threshold, dmp: dmp, cache: cache, logger: logger}, nil
}

// Threshold returns the configured similarity threshold.
func (d *Deduplicator) Threshold() float64 { return d.threshold }

// Normalize folds case, strips punctuation and collapses whitespace.
func Normalize(q string) string {
	q = punctRe.ReplaceAllString(strings.ToLower(q), "")
	return strings.Join(strings.Fields(q), " ")
}

// Similarity returns the ratio between the normalized forms of a and b.
func (d *Deduplicator) Similarity(a, b string) float64 {
	return d.ratio(Normalize(a), Normalize(b))
}

func (d *Deduplicator) ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	if b < a {
		a, b = b, a
	}
	key := pair{a, b}
	if r, ok := d.cache.Get(key); ok {
		return r
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	matched := 0
	for _, diff := range d.dmp.DiffMain(a, b, false) {
		if diff.Type == diffmatchpatch.DiffEqual {
			matched += utf8.RuneCountInString(diff.Text)
		}
	}
	r := 2 * float64(matched) / float64(total)
	d.cache.Add(key, r)
	return r
}

// IsDuplicate reports whether candidate matches any of existing.
func (d *Deduplicator) IsDuplicate(candidate string, existing []string) bool {
	_, dup := d.match(Normalize(candidate), normalizeAll(existing))
	return dup
}

func (d *Deduplicator) match(candidate string, existing []string) (int, bool) {
	for i, e := range existing {
		if candidate == e || d.ratio(candidate, e) >= d.threshold {
			return i, true
		}
	}
	return -1, false
}

// Filter returns the items whose text is not a duplicate of existing or of
// an item accepted earlier in the same call, in input order, and the items
// dropped.
func Filter[T any](d *Deduplicator, items []T, text func(T) string, existing []string) (kept, dropped []T) {
	seen := normalizeAll(existing)
	originals := append([]string(nil), existing...)
	for _, it := range items {
		t := text(it)
		n := Normalize(t)
		if i, dup := d.match(n, seen); dup {
			d.logger.Debug("dropping duplicate question",
				zap.String("question", t),
				zap.String("matches", originals[i]))
			dropped = append(dropped, it)
			continue
		}
		kept = append(kept, it)
		seen = append(seen, n)
		originals = append(originals, t)
	}
	return kept, dropped
}

// FilterDuplicates is Filter over plain strings.
func (d *Deduplicator) FilterDuplicates(candidates, existing []string) []string {
	kept, _ := Filter(d, candidates, func(s string) string { return s }, existing)
	return kept
}

// FilterQuestions is Filter over questions; it also returns how many were dropped.
func (d *Deduplicator) FilterQuestions(qs []model.Question, existing []string) ([]model.Question, int) {
	kept, dropped := Filter(d, qs, func(q model.Question) string { return q.Text }, existing)
	return kept, len(dropped)
}

func normalizeAll(qs []string) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = Normalize(q)
	}
	return out
}

// Package matching suggests counterpart items for a lost or found report.
// Results are a best-effort shortlist, not an exhaustive search.
package matching

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// MaxCandidates is the maximum number of suggestions returned.
const MaxCandidates = 10

// MinScore is the relevance threshold a candidate must reach.
const MinScore = 1

// Title keywords weigh more than description keywords.
const (
	titleWeight       = 2
	descriptionWeight = 1
)

const cacheSize = 1024

// Engine finds candidate matches. It only reads from the store.
type Engine struct {
	db    *sql.DB
	cache *expirable.LRU[int64, []model.Item]
}

// NewEngine creates an engine. A positive cacheTTL keeps results for that
// long unless Invalidate is called first; zero disables caching.
func NewEngine(db *sql.DB, cacheTTL time.Duration) *Engine {
	e := &Engine{db: db}
	if cacheTTL > 0 {
		e.cache = expirable.NewLRU[int64, []model.Item](cacheSize, nil, cacheTTL)
	}
	return e
}

// Invalidate drops all cached results. Call it after any item write.
func (e *Engine) Invalidate() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// Matches returns up to MaxCandidates OPEN items of the opposite type in the
// same category as itemID, best keyword overlap first. No candidates is an
// empty list, not an error.
func (e *Engine) Matches(ctx context.Context, itemID int64) ([]model.Item, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(itemID); ok {
			return cached, nil
		}
	}

	item, err := store.GetItem(ctx, e.db, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("item not found: %w", model.ErrNotFound)
	}

	candidates, err := store.ListMatchCandidates(ctx, e.db, item.Type.Opposite(), item.Category, item.ID)
	if err != nil {
		return nil, err
	}

	matches := Rank(item, candidates)
	if e.cache != nil {
		e.cache.Add(itemID, matches)
	}
	return matches, nil
}

type scored struct {
	item  model.Item
	score int
}

// Rank scores candidates against source by shared keywords, drops those
// below MinScore and returns at most MaxCandidates, highest score first.
// Equal scores keep their input order.
func Rank(source *model.Item, candidates []model.Item) []model.Item {
	want := keywordSet(source.Title + " " + source.Description)

	var hits []scored
	for _, c := range candidates {
		if s := score(want, &c); s >= MinScore {
			hits = append(hits, scored{item: c, score: s})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]model.Item, 0, min(len(hits), MaxCandidates))
	for i := 0; i < len(hits) && i < MaxCandidates; i++ {
		out = append(out, hits[i].item)
	}
	return out
}

func score(want map[string]bool, c *model.Item) int {
	s := 0
	title := keywordSet(c.Title)
	for k := range keywordSet(c.Title + " " + c.Description) {
		if !want[k] {
			continue
		}
		if title[k] {
			s += titleWeight
		} else {
			s += descriptionWeight
		}
	}
	return s
}

package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/fundscore/internal/contract"
	"github.com/huangsam/fundscore/schema"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

var cacheLog = contract.NewLogger("cache")

// generateCacheKey creates a unique key for a ticker scored as of a date.
func generateCacheKey(ticker, asOf string) string {
	key := fmt.Sprintf("score:%s:%s", schema.NormalizeTicker(ticker), asOf)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}

// metricFingerprint hashes the scorer inputs and rating bands.
// Keys are sorted so equal tables always hash the same.
func metricFingerprint(t schema.MetricTable, bands schema.RatingBands) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "bands=%d/%d\n", bands.Buy, bands.Hold)
	for _, k := range t.Keys() {
		v, ok := t.Get(k)
		if !ok {
			continue
		}
		sb.WriteString(string(k))
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		sb.WriteByte('\n')
	}
	return fmt.Sprintf("%x", sha256.Sum256([]byte(sb.String())))
}

// checkCacheHit attempts to retrieve and validate a cached score
func checkCacheHit(store contract.CacheStore, key string) *schema.CachedScore {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}
	if version != currentCacheVersion {
		return nil
	}
	var cached schema.CachedScore
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	if cached.CachedAt.IsZero() {
		cached.CachedAt = time.Unix(ts, 0).UTC()
	}
	return &cached
}

// storeScore writes the fresh score to the cache.
func storeScore(store contract.CacheStore, key, fingerprint string, res *schema.ScoreResult, now time.Time) {
	entry := schema.CachedScore{
		Version:     currentCacheVersion,
		Fingerprint: fingerprint,
		Score:       res.Score,
		Rating:      res.Rating,
		CachedAt:    now.UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	if err := store.Set(key, data, currentCacheVersion, now.Unix()); err != nil {
		contract.LogWarn("Failed to cache score for "+res.Ticker, err)
	}
}

// reconcileScoreCache compares a fresh score with the cached one.
// The fresh score always wins. When the inputs match but the score does not,
// the drift is recorded on res and the entry is replaced. A score that moved
// along with its inputs is only logged at debug level.
func reconcileScoreCache(mgr contract.CacheManager, res *schema.ScoreResult, bands schema.RatingBands, now time.Time) {
	if mgr == nil {
		return
	}
	store := mgr.GetScoreStore()
	if store == nil {
		return
	}

	key := generateCacheKey(res.Ticker, res.AsOf)
	fingerprint := metricFingerprint(res.Metrics, bands)

	cached := checkCacheHit(store, key)
	switch {
	case cached == nil:
	case cached.Fingerprint != fingerprint:
		if cached.Score != res.Score || cached.Rating != res.Rating {
			cacheLog.Debug("score changed with inputs",
				"ticker", res.Ticker, "as_of", res.AsOf,
				"cached_score", cached.Score, "fresh_score", res.Score,
				"cached_at", cached.CachedAt)
		}
	case cached.Score == res.Score && cached.Rating == res.Rating:
		return
	default:
		res.Drift = &schema.ScoreDrift{
			CachedScore: cached.Score,
			FreshScore:  res.Score,
			CachedAt:    cached.CachedAt,
		}
		contract.LogWarn(fmt.Sprintf("Score drift for %s as of %s", res.Ticker, res.AsOf),
			fmt.Errorf("cached %d, fresh %d", cached.Score, res.Score))
	}
	storeScore(store, key, fingerprint, res, now)
}

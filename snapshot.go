package cachego

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"
)

// snapshot is the persisted state layout, one blob per cache name. Pairs are
// serialized as two-element arrays so the blob stays compact and preserves
// insertion order across restarts.
type snapshot struct {
	Data        []valuePair `json:"data"`
	Timestamps  []stampPair `json:"timestamps"`
	AccessCount []countPair `json:"accessCount"`
	HitCount    uint64      `json:"hitCount"`
	MissCount   uint64      `json:"missCount"`
}

type valuePair struct {
	Key   string
	Value json.RawMessage
}

func (p valuePair) MarshalJSON() ([]byte, error) {
	return gojson.Marshal([2]any{p.Key, p.Value})
}

func (p *valuePair) UnmarshalJSON(b []byte) error {
	var arr [2]json.RawMessage
	if err := gojson.Unmarshal(b, &arr); err != nil {
		return err
	}
	if err := gojson.Unmarshal(arr[0], &p.Key); err != nil {
		return err
	}
	p.Value = arr[1]
	return nil
}

type stampPair struct {
	Key       string
	ExpiresAt int64 // epoch milliseconds
}

func (p stampPair) MarshalJSON() ([]byte, error) {
	return gojson.Marshal([2]any{p.Key, p.ExpiresAt})
}

func (p *stampPair) UnmarshalJSON(b []byte) error {
	var arr [2]json.RawMessage
	if err := gojson.Unmarshal(b, &arr); err != nil {
		return err
	}
	if err := gojson.Unmarshal(arr[0], &p.Key); err != nil {
		return err
	}
	return gojson.Unmarshal(arr[1], &p.ExpiresAt)
}

type countPair struct {
	Key   string
	Count uint64
}

func (p countPair) MarshalJSON() ([]byte, error) {
	return gojson.Marshal([2]any{p.Key, p.Count})
}

func (p *countPair) UnmarshalJSON(b []byte) error {
	var arr [2]json.RawMessage
	if err := gojson.Unmarshal(b, &arr); err != nil {
		return err
	}
	if err := gojson.Unmarshal(arr[0], &p.Key); err != nil {
		return err
	}
	return gojson.Unmarshal(arr[1], &p.Count)
}

// persistLocked writes the full snapshot to the backend. Called with c.mu
// held after every mutation of a persistent cache; the lock stays held
// through the write so snapshots can never be observed out of order.
//
// Failures are logged and counted, never returned: persistence is
// best-effort and the in-memory state remains authoritative.
func (c *Cache) persistLocked(ctx context.Context) {
	if !c.persistent {
		return
	}
	if c.limiter != nil && !c.limiter.Allow() {
		return
	}
	start := time.Now()

	data, err := c.snapshotLocked()
	if err != nil {
		c.logger.LogPersist(ctx, c.name, 0, err)
		c.metrics.RecordPersist(c.name, 0, time.Since(start), err)
		return
	}

	if err := c.backend.Save(ctx, c.name, data); err != nil {
		serr := &StorageError{Op: "save", Cache: c.name, cause: err}
		c.logger.LogPersist(ctx, c.name, len(data), serr)
		c.metrics.RecordPersist(c.name, len(data), time.Since(start), serr)
		return
	}

	c.logger.LogPersist(ctx, c.name, len(data), nil)
	c.metrics.RecordPersist(c.name, len(data), time.Since(start), nil)
}

func (c *Cache) snapshotLocked() ([]byte, error) {
	snap := snapshot{
		Data:        make([]valuePair, 0, len(c.order)),
		Timestamps:  make([]stampPair, 0, len(c.order)),
		AccessCount: make([]countPair, 0, len(c.order)),
		HitCount:    c.hits,
		MissCount:   c.misses,
	}

	for _, key := range c.order {
		e := c.entries[key]

		var raw json.RawMessage
		var err error
		if c.codec != nil {
			if !e.encoded {
				// An unencodable value was kept in memory; the whole
				// write is skipped until it is replaced or evicted.
				return nil, &CodecError{
					Codec: c.codec.Name(),
					Cache: c.name,
					cause: fmt.Errorf("entry %q holds an unencoded value", key),
				}
			}
			raw, err = gojson.Marshal(e.value.([]byte))
		} else {
			raw, err = gojson.Marshal(e.value)
		}
		if err != nil {
			return nil, &CodecError{Codec: codecName(c), Cache: c.name, cause: err}
		}

		snap.Data = append(snap.Data, valuePair{Key: key, Value: raw})
		snap.Timestamps = append(snap.Timestamps, stampPair{Key: key, ExpiresAt: e.expiresAt.UnixMilli()})
		snap.AccessCount = append(snap.AccessCount, countPair{Key: key, Count: e.accessCount})
	}

	return gojson.Marshal(snap)
}

// restore rebuilds the in-memory maps from a snapshot blob. Entries missing
// a timestamp are dropped so the maps stay in lock-step. Returns the number
// of restored entries.
func (c *Cache) restore(data []byte) (int, error) {
	var snap snapshot
	if err := gojson.Unmarshal(data, &snap); err != nil {
		return 0, &CodecError{Codec: codecName(c), Cache: c.name, cause: err}
	}

	expiries := make(map[string]time.Time, len(snap.Timestamps))
	for _, p := range snap.Timestamps {
		expiries[p.Key] = time.UnixMilli(p.ExpiresAt)
	}
	counts := make(map[string]uint64, len(snap.AccessCount))
	for _, p := range snap.AccessCount {
		counts[p.Key] = p.Count
	}

	for _, p := range snap.Data {
		expiresAt, ok := expiries[p.Key]
		if !ok {
			continue
		}

		e := &entry{
			expiresAt:   expiresAt,
			accessCount: counts[p.Key],
		}
		if c.codec != nil {
			var blob []byte
			if err := gojson.Unmarshal(p.Value, &blob); err != nil {
				continue
			}
			e.value = blob
			e.encoded = true
		} else {
			var v any
			if err := gojson.Unmarshal(p.Value, &v); err != nil {
				continue
			}
			e.value = v
		}

		c.entries[p.Key] = e
		c.order = append(c.order, p.Key)
	}

	c.hits = snap.HitCount
	c.misses = snap.MissCount

	return len(c.entries), nil
}

func codecName(c *Cache) string {
	if c.codec != nil {
		return c.codec.Name()
	}
	return "go-json"
}

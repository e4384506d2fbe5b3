package dedup

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// CooldownTable maps a GridKey to the time of its last accepted save.
type CooldownTable interface {
	Last(key GridKey) (time.Time, bool)
	Mark(key GridKey, at time.Time)
	Len() int
}

// MapTable never evicts; it grows by one entry per visited bucket.
type MapTable map[GridKey]time.Time

// NewMapTable creates an empty MapTable.
func NewMapTable() MapTable {
	return make(MapTable)
}

func (t MapTable) Last(key GridKey) (time.Time, bool) {
	at, ok := t[key]
	return at, ok
}

func (t MapTable) Mark(key GridKey, at time.Time) {
	t[key] = at
}

func (t MapTable) Len() int {
	return len(t)
}

// ExpiringTable drops buckets that have not been saved for the retention
// period. Retention must exceed the cooldown: an evicted bucket reads as
// "never saved", which only ever turns a WAIT into a SAVE once the cooldown
// has passed anyway.
type ExpiringTable struct {
	items *cache.Cache
}

// NewExpiringTable creates a table whose entries expire after retention.
func NewExpiringTable(retention time.Duration) *ExpiringTable {
	return &ExpiringTable{
		items: cache.New(retention, retention),
	}
}

func (t *ExpiringTable) Last(key GridKey) (time.Time, bool) {
	v, ok := t.items.Get(key.String())
	if !ok {
		return time.Time{}, false
	}
	at, ok := v.(time.Time)
	return at, ok
}

func (t *ExpiringTable) Mark(key GridKey, at time.Time) {
	t.items.SetDefault(key.String(), at)
}

func (t *ExpiringTable) Len() int {
	return t.items.ItemCount()
}

// Package whitelist tracks ICAO addresses seen in self-identifying frames
// (DF11/DF17/DF18, where the address travels in clear). The Aircraft
// Tracker and the CRC Engine both consult it: the former to create new
// records, the latter as the sole defense against a masked-ICAO recovery
// injecting a bogus address (§4.4, §9 "Masked ICAO ambiguity").
package whitelist

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Whitelist is a TTL-expiring set of 24 bit ICAO addresses.
type Whitelist struct {
	cache *cache.Cache
}

// New returns a Whitelist whose entries expire after ttl of not being seen
// again, checked by a background sweep every cleanupInterval.
func New(ttl, cleanupInterval time.Duration) *Whitelist {
	return &Whitelist{cache: cache.New(ttl, cleanupInterval)}
}

// Add records icao as self-identified, refreshing its TTL if already present.
func (w *Whitelist) Add(icao uint32) {
	w.cache.Set(key(icao), struct{}{}, cache.DefaultExpiration)
}

// Contains reports whether icao has been self-identified recently.
func (w *Whitelist) Contains(icao uint32) bool {
	_, found := w.cache.Get(key(icao))
	return found
}

// Len reports the number of currently-whitelisted addresses.
func (w *Whitelist) Len() int {
	return w.cache.ItemCount()
}

func key(icao uint32) string {
	// go-cache keys on string; a fixed-width hex key avoids collisions
	// and keeps cache internals readable when inspected.
	const hexDigits = "0123456789ABCDEF"
	b := [6]byte{}
	for i := 5; i >= 0; i-- {
		b[i] = hexDigits[icao&0xf]
		icao >>= 4
	}
	return string(b[:])
}

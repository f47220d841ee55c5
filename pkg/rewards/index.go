// Package rewards maintains the in-memory index from widget ID to its
// rewards claim URL. Entries are recorded as widget events decode and
// looked up when a claim is attempted; last write wins on re-publication
// of the same widget.
package rewards

import "sync"

// Index is a concurrency-safe widget-to-claim-URL map.
type Index struct {
	mu   sync.RWMutex
	urls map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{urls: make(map[string]string)}
}

// Record stores the claim URL for widgetID. Empty URLs are ignored so a
// re-published widget without rewards does not erase a prior entry.
func (x *Index) Record(widgetID, url string) {
	if widgetID == "" || url == "" {
		return
	}
	x.mu.Lock()
	x.urls[widgetID] = url
	x.mu.Unlock()
}

// Lookup returns the claim URL recorded for widgetID.
func (x *Index) Lookup(widgetID string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	url, ok := x.urls[widgetID]
	return url, ok
}

// Forget removes widgetID's entry, if any.
func (x *Index) Forget(widgetID string) {
	x.mu.Lock()
	delete(x.urls, widgetID)
	x.mu.Unlock()
}

// Len reports how many widgets have a recorded claim URL.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.urls)
}

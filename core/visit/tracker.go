package visit

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/noteshub/backend/core"
)

// StoreKey is the key the visited-pages set is persisted under.
const StoreKey = "visitedPages"

// Tracker records, per page name, whether a client has ever visited it.
// The set is append-only, deduplicated on insert and never pruned.
type Tracker struct {
	store  core.KVStore
	logger core.Logger
}

func NewTracker(store core.KVStore, logger core.Logger) *Tracker {
	return &Tracker{store: store, logger: logger}
}

// key scopes the persisted set per client. An empty clientID addresses the
// bare StoreKey, which is what a single-client deployment uses.
func key(clientID string) string {
	if clientID == "" {
		return StoreKey
	}
	return StoreKey + ":" + clientID
}

// Visited returns the set of pages the client has visited. A missing or
// corrupt persisted value is treated as an empty set; it is logged, never
// returned as an error.
func (t *Tracker) Visited(ctx context.Context, clientID string) ([]string, error) {
	raw, err := t.store.Get(ctx, key(clientID), "[]")
	if err != nil {
		return nil, errors.Wrap(err, "reading visited pages")
	}

	var pages []string
	if err = json.Unmarshal([]byte(raw), &pages); err != nil {
		if t.logger != nil {
			t.logger.Warn("corrupt visited pages value, resetting to empty", err)
		}
		return []string{}, nil
	}
	return pages, nil
}

// Record inserts page into the client's visited set. Inserting a page that
// is already present is a no-op.
func (t *Tracker) Record(ctx context.Context, clientID, page string) error {
	page = core.CleanString(page)
	if page == "" {
		return nil
	}

	pages, err := t.Visited(ctx, clientID)
	if err != nil {
		return err
	}
	for _, p := range pages {
		if p == page {
			return nil
		}
	}
	pages = append(pages, page)

	raw, err := json.Marshal(pages)
	if err != nil {
		return errors.Wrap(err, "encoding visited pages")
	}
	return errors.Wrap(t.store.Set(ctx, key(clientID), string(raw)), "persisting visited pages")
}

// HasVisited reports whether the client has ever visited page.
func (t *Tracker) HasVisited(ctx context.Context, clientID, page string) (bool, error) {
	pages, err := t.Visited(ctx, clientID)
	if err != nil {
		return false, err
	}
	for _, p := range pages {
		if p == page {
			return true, nil
		}
	}
	return false, nil
}

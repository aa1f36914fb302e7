package webclient

import "context"

// ListState distinguishes a list that was never fetched from one that was
// fetched and is legitimately empty.
type ListState int

const (
	NotFetched ListState = iota
	Empty
	Populated
)

func stateOf[T any](list []T) ListState {
	if len(list) == 0 {
		return Empty
	}
	return Populated
}

// ContentCache memoizes the user's authored stems and options across page
// navigations within one session. Lists are stored newest-first; the reversal
// from the API's creation order happens once at write time, so cache hits and
// fresh fetches expose the same ordering. A failed or canceled fetch leaves
// the cache untouched.
type ContentCache struct {
	fetcher Fetcher

	stemState ListState
	stems     []Stem

	optState ListState
	options  []MadeOption
}

func NewContentCache(f Fetcher) *ContentCache {
	return &ContentCache{fetcher: f}
}

// AuthoredStems returns the cached stem list, fetching it on first use.
func (c *ContentCache) AuthoredStems(ctx context.Context) ([]Stem, error) {
	if c.stemState != NotFetched {
		return c.stems, nil
	}
	stems, err := c.loadStems(ctx)
	if err != nil {
		return nil, err
	}
	c.stems = stems
	c.stemState = stateOf(stems)
	return c.stems, nil
}

// AuthoredOptions returns the cached option list, each entry joined with its
// parent stem's text, fetching on first use. The join is keyed by stem id;
// options whose parent could not be resolved are dropped rather than paired
// with the wrong stem.
func (c *ContentCache) AuthoredOptions(ctx context.Context) ([]MadeOption, error) {
	if c.optState != NotFetched {
		return c.options, nil
	}
	options, err := c.loadOptions(ctx)
	if err != nil {
		return nil, err
	}
	c.options = options
	c.optState = stateOf(options)
	return c.options, nil
}

// LoadMyPage is the page-mount entry point: it fills both lists together so
// the cache never ends up with one list fetched and the other not. On any
// error neither list is committed.
func (c *ContentCache) LoadMyPage(ctx context.Context) ([]Stem, []MadeOption, error) {
	if c.stemState != NotFetched && c.optState != NotFetched {
		return c.stems, c.options, nil
	}
	stems := c.stems
	if c.stemState == NotFetched {
		var err error
		if stems, err = c.loadStems(ctx); err != nil {
			return nil, nil, err
		}
	}
	options := c.options
	if c.optState == NotFetched {
		var err error
		if options, err = c.loadOptions(ctx); err != nil {
			return nil, nil, err
		}
	}
	c.stems, c.stemState = stems, stateOf(stems)
	c.options, c.optState = options, stateOf(options)
	return c.stems, c.options, nil
}

func (c *ContentCache) loadStems(ctx context.Context) ([]Stem, error) {
	stems, err := c.fetcher.MadeStems(ctx)
	if err != nil {
		return nil, err
	}
	// The view that issued this fetch may be gone by the time it resolves;
	// a canceled context discards the result instead of writing stale state.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reverse(stems)
	return stems, nil
}

func (c *ContentCache) loadOptions(ctx context.Context) ([]MadeOption, error) {
	options, err := c.fetcher.MadeOptions(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(options))
	seen := map[string]bool{}
	for _, o := range options {
		if !seen[o.QStemID] {
			seen[o.QStemID] = true
			ids = append(ids, o.QStemID)
		}
	}
	stems, err := c.fetcher.StemsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byID := make(map[string]Stem, len(stems))
	for _, s := range stems {
		byID[s.ID] = s
	}
	joined := make([]MadeOption, 0, len(options))
	for _, o := range options {
		s, ok := byID[o.QStemID]
		if !ok {
			continue
		}
		joined = append(joined, MadeOption{Option: o, StemText: s.Text})
	}
	reverse(joined)
	return joined, nil
}

// Invalidate drops both lists so the next page visit re-fetches. Create flows
// call this after authoring a new stem or option, so "my page" never shows a
// stale list.
func (c *ContentCache) Invalidate() {
	c.stems, c.stemState = nil, NotFetched
	c.options, c.optState = nil, NotFetched
}

// Clear is the session-teardown reset.
func (c *ContentCache) Clear() { c.Invalidate() }

// StemState and OptionState expose the fetch states for views that render
// "loading" and "no content yet" differently.
func (c *ContentCache) StemState() ListState   { return c.stemState }
func (c *ContentCache) OptionState() ListState { return c.optState }

func reverse[T any](list []T) {
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
}

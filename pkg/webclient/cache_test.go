package webclient_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kixlab/kuiz/pkg/webclient"
)

// fakeFetcher counts calls so tests can assert cache hits skip the network.
type fakeFetcher struct {
	stems   []webclient.Stem
	options []webclient.OptionRecord

	stemCalls    int
	optionCalls  int
	resolveCalls int
	lastResolved []string

	joinClass webclient.EnrolledClass
	joinErr   error
	joinCalls int

	err error
}

func (f *fakeFetcher) MadeStems(ctx context.Context) ([]webclient.Stem, error) {
	f.stemCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]webclient.Stem{}, f.stems...), nil
}

func (f *fakeFetcher) MadeOptions(ctx context.Context) ([]webclient.OptionRecord, error) {
	f.optionCalls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]webclient.OptionRecord{}, f.options...), nil
}

func (f *fakeFetcher) StemsByIDs(ctx context.Context, ids []string) ([]webclient.Stem, error) {
	f.resolveCalls++
	f.lastResolved = append([]string{}, ids...)
	var out []webclient.Stem
	for _, id := range ids {
		for _, s := range f.stems {
			if s.ID == id {
				out = append(out, s)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeFetcher) JoinClass(ctx context.Context, code string) (webclient.EnrolledClass, error) {
	f.joinCalls++
	return f.joinClass, f.joinErr
}

func (f *fakeFetcher) RegisterStudentID(ctx context.Context, studentID string) error { return nil }
func (f *fakeFetcher) SetConsent(ctx context.Context, consent bool) error            { return nil }

func stemN(i int) webclient.Stem {
	return webclient.Stem{ID: fmt.Sprintf("s%d", i), CID: "c1", Text: fmt.Sprintf("stem %d", i)}
}

func TestAuthoredStemsFetchesOnceAndServesFromCache(t *testing.T) {
	f := &fakeFetcher{stems: []webclient.Stem{stemN(1), stemN(2), stemN(3)}}
	cache := webclient.NewContentCache(f)
	ctx := context.Background()

	first, err := cache.AuthoredStems(ctx)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, err := cache.AuthoredStems(ctx)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if f.stemCalls != 1 {
		t.Fatalf("expected a single fetch, got %d", f.stemCalls)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 stems from both reads, got %d and %d", len(first), len(second))
	}
}

func TestAuthoredStemsNewestFirst(t *testing.T) {
	// Server returns creation order; readers see newest first.
	f := &fakeFetcher{stems: []webclient.Stem{stemN(1), stemN(2), stemN(3)}}
	cache := webclient.NewContentCache(f)

	stems, err := cache.AuthoredStems(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"s3", "s2", "s1"}
	for i, id := range want {
		if stems[i].ID != id {
			t.Fatalf("position %d: want %s, got %s", i, id, stems[i].ID)
		}
	}
}

func TestEmptyListIsCachedNotRefetched(t *testing.T) {
	f := &fakeFetcher{}
	cache := webclient.NewContentCache(f)
	ctx := context.Background()

	if _, err := cache.AuthoredStems(ctx); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if got := cache.StemState(); got != webclient.Empty {
		t.Fatalf("state after empty fetch: want Empty, got %v", got)
	}
	if _, err := cache.AuthoredStems(ctx); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if f.stemCalls != 1 {
		t.Fatalf("empty result must still count as fetched; got %d fetches", f.stemCalls)
	}
}

func TestFailedFetchLeavesCacheNotFetched(t *testing.T) {
	f := &fakeFetcher{err: errors.New("boom")}
	cache := webclient.NewContentCache(f)
	ctx := context.Background()

	if _, err := cache.AuthoredStems(ctx); err == nil {
		t.Fatal("expected error from failing fetch")
	}
	if got := cache.StemState(); got != webclient.NotFetched {
		t.Fatalf("state after failed fetch: want NotFetched, got %v", got)
	}

	f.err = nil
	f.stems = []webclient.Stem{stemN(1)}
	stems, err := cache.AuthoredStems(ctx)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(stems) != 1 {
		t.Fatalf("retry should fetch fresh data, got %d stems", len(stems))
	}
}

func TestAuthoredOptionsJoinedByStemID(t *testing.T) {
	f := &fakeFetcher{
		stems: []webclient.Stem{stemN(1), stemN(2)},
		options: []webclient.OptionRecord{
			{ID: "o1", QStemID: "s2", Text: "opt a"},
			{ID: "o2", QStemID: "s1", Text: "opt b"},
			{ID: "o3", QStemID: "s2", Text: "opt c"},
		},
	}
	cache := webclient.NewContentCache(f)

	made, err := cache.AuthoredOptions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(made) != 3 {
		t.Fatalf("want 3 joined options, got %d", len(made))
	}
	// Newest first: o3, o2, o1.
	if made[0].Option.ID != "o3" || made[0].StemText != "stem 2" {
		t.Fatalf("position 0: got option %s with stem %q", made[0].Option.ID, made[0].StemText)
	}
	if made[1].Option.ID != "o2" || made[1].StemText != "stem 1" {
		t.Fatalf("position 1: got option %s with stem %q", made[1].Option.ID, made[1].StemText)
	}
	if made[2].Option.ID != "o1" || made[2].StemText != "stem 2" {
		t.Fatalf("position 2: got option %s with stem %q", made[2].Option.ID, made[2].StemText)
	}
	if f.resolveCalls != 1 {
		t.Fatalf("parent stems should resolve in one batch, got %d calls", f.resolveCalls)
	}
	// s2 appears twice among options but must be requested once.
	if len(f.lastResolved) != 2 {
		t.Fatalf("want 2 distinct stem ids resolved, got %v", f.lastResolved)
	}
}

func TestAuthoredOptionsSkipsUnresolvableParents(t *testing.T) {
	f := &fakeFetcher{
		stems: []webclient.Stem{stemN(1)},
		options: []webclient.OptionRecord{
			{ID: "o1", QStemID: "s1", Text: "kept"},
			{ID: "o2", QStemID: "gone", Text: "orphan"},
		},
	}
	cache := webclient.NewContentCache(f)

	made, err := cache.AuthoredOptions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(made) != 1 || made[0].Option.ID != "o1" {
		t.Fatalf("orphan option should be dropped, got %+v", made)
	}
}

func TestCanceledContextDiscardsFetchResult(t *testing.T) {
	f := &fakeFetcher{stems: []webclient.Stem{stemN(1)}}
	cache := webclient.NewContentCache(f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := cache.AuthoredStems(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if got := cache.StemState(); got != webclient.NotFetched {
		t.Fatalf("canceled fetch must not populate the cache, state %v", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	f := &fakeFetcher{stems: []webclient.Stem{stemN(1)}}
	cache := webclient.NewContentCache(f)
	ctx := context.Background()

	if _, err := cache.AuthoredStems(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	f.stems = append(f.stems, stemN(2))
	cache.Invalidate()

	stems, err := cache.AuthoredStems(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(stems) != 2 {
		t.Fatalf("want fresh data after invalidate, got %d stems", len(stems))
	}
	if f.stemCalls != 2 {
		t.Fatalf("want 2 fetches, got %d", f.stemCalls)
	}
}

func TestLoadMyPageFillsBothLists(t *testing.T) {
	f := &fakeFetcher{
		stems:   []webclient.Stem{stemN(1)},
		options: []webclient.OptionRecord{{ID: "o1", QStemID: "s1", Text: "opt"}},
	}
	cache := webclient.NewContentCache(f)

	stems, options, err := cache.LoadMyPage(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(stems) != 1 || len(options) != 1 {
		t.Fatalf("want both lists filled, got %d stems %d options", len(stems), len(options))
	}
	if _, _, err := cache.LoadMyPage(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if f.stemCalls != 1 || f.optionCalls != 1 {
		t.Fatalf("second mount must hit the cache, got %d/%d fetches", f.stemCalls, f.optionCalls)
	}
}

package webclient_test

import (
	"math/rand"
	"testing"

	"github.com/kixlab/kuiz/pkg/webclient"
)

func TestBuildQuestionOneAnswerThreeDistractors(t *testing.T) {
	pool := []webclient.OptionRecord{
		{ID: "a1", Text: "right", IsAnswer: true},
		{ID: "d1", Text: "wrong 1"},
		{ID: "d2", Text: "wrong 2"},
		{ID: "d3", Text: "wrong 3"},
		{ID: "d4", Text: "wrong 4"},
	}
	clusters := [][]int{{1, 2}, {3}, {4}}
	rng := rand.New(rand.NewSource(1))

	choices, err := webclient.BuildQuestion(rng, pool, clusters)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(choices) != 4 {
		t.Fatalf("want 4 choices, got %d", len(choices))
	}
	answers := 0
	seen := map[string]bool{}
	for _, c := range choices {
		if c.IsAnswer {
			answers++
		}
		if seen[c.OptionID] {
			t.Fatalf("duplicate choice %s", c.OptionID)
		}
		seen[c.OptionID] = true
	}
	if answers != 1 {
		t.Fatalf("want exactly one answer, got %d", answers)
	}
}

func TestBuildQuestionOnePerCluster(t *testing.T) {
	pool := []webclient.OptionRecord{
		{ID: "a1", Text: "right", IsAnswer: true},
		{ID: "d1", Text: "near-dup a"},
		{ID: "d2", Text: "near-dup b"},
		{ID: "d3", Text: "other"},
		{ID: "d4", Text: "another"},
	}
	clusters := [][]int{{1, 2}, {3}, {4}}

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		choices, err := webclient.BuildQuestion(rng, pool, clusters)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if hasBoth(choices, "d1", "d2") {
			t.Fatalf("seed %d: two options from the same cluster", seed)
		}
	}
}

func hasBoth(choices []webclient.Choice, a, b string) bool {
	var foundA, foundB bool
	for _, c := range choices {
		foundA = foundA || c.OptionID == a
		foundB = foundB || c.OptionID == b
	}
	return foundA && foundB
}

func TestBuildQuestionFallsBackWithoutClusters(t *testing.T) {
	pool := []webclient.OptionRecord{
		{ID: "a1", Text: "right", IsAnswer: true},
		{ID: "d1", Text: "w1"},
		{ID: "d2", Text: "w2"},
		{ID: "d3", Text: "w3"},
	}
	rng := rand.New(rand.NewSource(1))
	choices, err := webclient.BuildQuestion(rng, pool, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(choices) != 4 {
		t.Fatalf("want 4 choices, got %d", len(choices))
	}
}

func TestBuildQuestionTooFewOptions(t *testing.T) {
	pool := []webclient.OptionRecord{
		{ID: "a1", Text: "right", IsAnswer: true},
		{ID: "d1", Text: "w1"},
	}
	rng := rand.New(rand.NewSource(1))
	if _, err := webclient.BuildQuestion(rng, pool, nil); err != webclient.ErrNotEnoughOptions {
		t.Fatalf("want ErrNotEnoughOptions, got %v", err)
	}
}

package webclient

import (
	"errors"
	"math/rand"
)

// ErrNotEnoughOptions is returned when a stem's option pool cannot seat a
// four-choice question.
var ErrNotEnoughOptions = errors.New("webclient: not enough options to build a question")

// Choice is one selectable answer in a practice question.
type Choice struct {
	OptionID string
	Text     string
	IsAnswer bool
}

// BuildQuestion assembles a four-choice practice question from a stem's
// option pool: one answer plus three distractors, each distractor drawn from
// a different similarity cluster so near-duplicate wordings don't appear
// side by side. Clusters are given as groups of option indices into pool;
// one representative is sampled per cluster. The returned choices are
// shuffled.
func BuildQuestion(rng *rand.Rand, pool []OptionRecord, clusters [][]int) ([]Choice, error) {
	var answers []OptionRecord
	for _, o := range pool {
		if o.IsAnswer {
			answers = append(answers, o)
		}
	}
	if len(answers) == 0 {
		return nil, ErrNotEnoughOptions
	}

	var reps []OptionRecord
	for _, cluster := range clusters {
		var members []OptionRecord
		for _, idx := range cluster {
			if idx < 0 || idx >= len(pool) || pool[idx].IsAnswer {
				continue
			}
			members = append(members, pool[idx])
		}
		if len(members) > 0 {
			reps = append(reps, members[rng.Intn(len(members))])
		}
	}
	// No clustering yet for this stem: fall back to the raw distractors.
	if len(reps) == 0 {
		for _, o := range pool {
			if !o.IsAnswer {
				reps = append(reps, o)
			}
		}
	}
	if len(reps) < 3 {
		return nil, ErrNotEnoughOptions
	}

	rng.Shuffle(len(reps), func(i, j int) { reps[i], reps[j] = reps[j], reps[i] })
	picked := append([]OptionRecord{answers[rng.Intn(len(answers))]}, reps[:3]...)

	choices := make([]Choice, len(picked))
	for i, o := range picked {
		choices[i] = Choice{OptionID: o.ID, Text: o.Text, IsAnswer: o.IsAnswer}
	}
	rng.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	return choices, nil
}

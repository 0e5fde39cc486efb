package quiz

import (
	"math/rand"
	"sort"

	"quran-quiz-service/internal/domain"
)

// Instance is one planned question slot, owned by a single session.
type Instance struct {
	Archetype Archetype
}

// Plan assembles the ordered question sequence for one session.
//
// Recipe entries are resolved first and bypass the level gate (event and quest
// content is pre-vetted by its source); unknown archetype ids in a recipe are
// skipped. The remainder is filled by uniform sampling with replacement from
// the archetypes eligible at playerLevel, then the whole list is shuffled so
// recipe questions don't cluster at either end of the session.
//
// The returned sequence may be shorter than total when the eligible pool is
// empty; callers detect that via its length. An empty sequence is an error.
func Plan(total int, recipe domain.Recipe, playerLevel int, catalog *Catalog, rng *rand.Rand) ([]Instance, error) {
	var seq []Instance

	if len(recipe) > 0 {
		ids := make([]string, 0, len(recipe))
		for id := range recipe {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			archetype, ok := catalog.Lookup(id)
			if !ok {
				continue
			}
			for i := 0; i < recipe[id] && len(seq) < total; i++ {
				seq = append(seq, Instance{Archetype: archetype})
			}
		}
	}

	if remaining := total - len(seq); remaining > 0 {
		eligible := catalog.Eligible(playerLevel)
		if len(eligible) > 0 {
			for i := 0; i < remaining; i++ {
				seq = append(seq, Instance{Archetype: eligible[rng.Intn(len(eligible))]})
			}
		}
	}

	if len(seq) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}

	rng.Shuffle(len(seq), func(i, j int) { seq[i], seq[j] = seq[j], seq[i] })
	return seq, nil
}

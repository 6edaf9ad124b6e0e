package lesson

import (
	"math/rand/v2"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/store"
)

// Rand is the randomness the variant selector needs. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand draws from the auto-seeded math/rand/v2 source, which is
// safe for concurrent use.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// SelectVariant picks the rendering of q to show.
//
// When existing references a variant the question still has, that exact
// variant is returned so a student always sees the wording they answered.
// Otherwise one is chosen uniformly from the original and every gradable
// variant. A nil rnd uses the package-level source.
func SelectVariant(q catalog.Question, existing *store.Answer, rnd Rand) catalog.Variant {
	if existing != nil {
		if v, ok := q.VariantByID(existing.VariantID); ok {
			return v
		}
	}

	candidates := gradable(q)
	if len(candidates) == 0 {
		return q.Original()
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	if rnd == nil {
		rnd = globalRand{}
	}
	return candidates[rnd.IntN(len(candidates))]
}

// gradable filters out variants whose correct option can't be matched.
func gradable(q catalog.Question) []catalog.Variant {
	all := q.AllVariants()
	out := all[:0]
	for _, v := range all {
		if v.Valid() {
			out = append(out, v)
		}
	}
	return out
}

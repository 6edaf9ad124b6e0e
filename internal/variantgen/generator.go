// Package variantgen authors alternate wordings of catalog questions
// with an LLM.
package variantgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/abhisek/lessonplay/internal/catalog"
	"github.com/abhisek/lessonplay/internal/llm"
)

// Config controls the Generator.
type Config struct {
	// Validators run in order; the first failure rejects the variant.
	Validators []Validator

	MaxTokens   int
	Temperature float64

	// PerQuestion is how many variants Author brings each question up to.
	PerQuestion int

	// MaxRejects bounds rejected generations per question.
	MaxRejects int
}

func DefaultConfig() Config {
	return Config{
		Validators:  []Validator{StructuralValidator{}, DuplicateValidator{}},
		MaxTokens:   512,
		Temperature: 0.8,
		PerQuestion: 2,
		MaxRejects:  3,
	}
}

// Generator produces variants using an LLM provider.
type Generator struct {
	provider llm.Provider
	config   Config
	log      *zap.Logger
}

func New(provider llm.Provider, cfg Config, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{provider: provider, config: cfg, log: log.Named("variantgen")}
}

type variantOutput struct {
	Body    string   `json:"body"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Generate produces one validated variant of q. The returned variant has
// no id; the caller assigns it.
func (g *Generator) Generate(ctx context.Context, l *catalog.Lesson, q catalog.Question) (catalog.Variant, error) {
	ctx = llm.WithPurpose(ctx, "variant-gen")
	used := q.AllVariants()

	resp, err := g.provider.Complete(ctx, llm.Prompt{
		System:      systemPrompt,
		User:        buildUserMessage(l, q, used),
		Schema:      VariantSchema,
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	})
	if err != nil {
		return catalog.Variant{}, fmt.Errorf("LLM generation failed: %w", err)
	}

	var raw variantOutput
	if err := json.Unmarshal(resp.JSON, &raw); err != nil {
		return catalog.Variant{}, fmt.Errorf("failed to parse LLM response: %w", err)
	}

	v := catalog.Variant{Body: raw.Body, Options: raw.Options, CorrectOption: raw.Correct}
	for _, val := range g.config.Validators {
		if verr := val.Validate(v, q, used); verr != nil {
			return catalog.Variant{}, verr
		}
	}
	return v, nil
}

// Report summarizes an Author run.
type Report struct {
	Added   int
	Skipped []string
}

// Author brings every question of the selected lessons up to PerQuestion
// variants, in place. lessonID limits the run to one lesson when set.
// Rejected or off-schema generations are retried up to MaxRejects
// times; other provider failures abort the run and keep what was added so far.
func (g *Generator) Author(ctx context.Context, cat *catalog.Catalog, lessonID string) (Report, error) {
	var rep Report
	for li := range cat.Lessons {
		l := &cat.Lessons[li]
		if lessonID != "" && l.ID != lessonID {
			continue
		}
		for qi := range l.Questions {
			q := &l.Questions[qi]
			rejects := 0
			for len(q.Variants) < g.config.PerQuestion {
				v, err := g.Generate(ctx, l, *q)
				var verr *ValidationError
				if errors.As(err, &verr) || llm.IsKind(err, llm.KindInvalid) {
					rejects++
					g.log.Info("variant rejected",
						zap.String("lesson", l.ID), zap.String("question", q.ID), zap.Error(err))
					if rejects >= g.config.MaxRejects {
						rep.Skipped = append(rep.Skipped, l.ID+"/"+q.ID)
						break
					}
					continue
				}
				if err != nil {
					return rep, fmt.Errorf("%s/%s: %w", l.ID, q.ID, err)
				}
				v.ID = nextID(*q)
				q.Variants = append(q.Variants, v)
				rep.Added++
			}
		}
	}
	return rep, nil
}

// nextID is one past the highest variant id, never the original's id.
func nextID(q catalog.Question) int {
	id := catalog.OriginalVariantID
	for _, v := range q.Variants {
		if v.ID > id {
			id = v.ID
		}
	}
	return id + 1
}

package variantgen

import (
	"fmt"
	"strings"

	"github.com/abhisek/lessonplay/internal/catalog"
)

// Validator checks a generated variant before it is added to the catalog.
type Validator interface {
	Name() string
	Validate(v catalog.Variant, q catalog.Question, used []catalog.Variant) *ValidationError
}

// ValidationError describes why a variant was rejected.
type ValidationError struct {
	Validator string
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks the variant can be rendered and graded.
type StructuralValidator struct{}

func (StructuralValidator) Name() string { return "structural" }

func (StructuralValidator) Validate(v catalog.Variant, _ catalog.Question, _ []catalog.Variant) *ValidationError {
	fail := func(format string, args ...any) *ValidationError {
		return &ValidationError{Validator: "structural", Message: fmt.Sprintf(format, args...)}
	}
	if strings.TrimSpace(v.Body) == "" {
		return fail("empty body")
	}
	if len(v.Options) != catalog.OptionCount {
		return fail("want %d options, got %d", catalog.OptionCount, len(v.Options))
	}
	if !v.Valid() {
		return fail("correct option %d out of range", v.CorrectOption)
	}
	seen := make(map[string]bool, len(v.Options))
	for _, o := range v.Options {
		k := normalize(o)
		if k == "" {
			return fail("empty option")
		}
		if seen[k] {
			return fail("duplicate option %q", o)
		}
		seen[k] = true
	}
	return nil
}

// DuplicateValidator rejects wording already used by the question.
type DuplicateValidator struct{}

func (DuplicateValidator) Name() string { return "duplicate" }

func (DuplicateValidator) Validate(v catalog.Variant, _ catalog.Question, used []catalog.Variant) *ValidationError {
	body := normalize(v.Body)
	for _, u := range used {
		if normalize(u.Body) == body {
			return &ValidationError{Validator: "duplicate", Message: "repeats existing wording"}
		}
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

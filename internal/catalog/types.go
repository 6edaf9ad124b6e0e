package catalog

import "errors"

// OptionCount is the number of answer options every question renders.
const OptionCount = 4

// OriginalVariantID identifies the authored question itself when it is
// treated as one of its own variants.
const OriginalVariantID = 0

var (
	ErrLessonNotFound = errors.New("lesson not found")
)

// Catalog is the ordered set of lessons available to students.
// Lesson order is significant: gating unlocks lesson N+1 from lesson N.
type Catalog struct {
	Lessons []Lesson `yaml:"lessons" json:"lessons"`
}

// Lesson is a single video with the questions injected into it.
type Lesson struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`

	// Video is the media source handed to the player collaborator.
	Video string `yaml:"video" json:"video"`

	// DurationSeconds is the video length. Zero means unknown until the
	// player reports it (or `lessonplay probe` fills it in).
	DurationSeconds int `yaml:"duration,omitempty" json:"duration,omitempty"`

	Questions []Question `yaml:"questions" json:"questions"`
}

// Question is offered once per attempt when playback reaches ShowAtSecond.
type Question struct {
	ID            string    `yaml:"id" json:"id"`
	ShowAtSecond  int       `yaml:"show_at" json:"show_at"`
	Body          string    `yaml:"body" json:"body"`
	Image         string    `yaml:"image,omitempty" json:"image,omitempty"`
	Options       []string  `yaml:"options" json:"options"`
	CorrectOption int       `yaml:"correct" json:"correct"`
	Variants      []Variant `yaml:"variants,omitempty" json:"variants,omitempty"`
}

// Variant is an alternate rendering of the same question.
type Variant struct {
	ID            int      `yaml:"id" json:"id"`
	Body          string   `yaml:"body" json:"body"`
	Options       []string `yaml:"options" json:"options"`
	CorrectOption int      `yaml:"correct" json:"correct"`
}

// Original returns the question's own wording as variant 0.
func (q Question) Original() Variant {
	return Variant{
		ID:            OriginalVariantID,
		Body:          q.Body,
		Options:       q.Options,
		CorrectOption: q.CorrectOption,
	}
}

// AllVariants returns the original followed by every authored variant,
// in authoring order.
func (q Question) AllVariants() []Variant {
	out := make([]Variant, 0, len(q.Variants)+1)
	out = append(out, q.Original())
	out = append(out, q.Variants...)
	return out
}

// VariantByID returns the variant with the given id, if present.
func (q Question) VariantByID(id int) (Variant, bool) {
	for _, v := range q.AllVariants() {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Valid reports whether the variant can be rendered and graded.
func (v Variant) Valid() bool {
	return len(v.Options) >= 2 && v.CorrectOption >= 0 && v.CorrectOption < len(v.Options)
}

// Lesson returns the lesson with the given id.
func (c *Catalog) Lesson(id string) (*Lesson, error) {
	for i := range c.Lessons {
		if c.Lessons[i].ID == id {
			return &c.Lessons[i], nil
		}
	}
	return nil, ErrLessonNotFound
}

// Index returns the position of the lesson in catalog order, or -1.
func (c *Catalog) Index(id string) int {
	for i := range c.Lessons {
		if c.Lessons[i].ID == id {
			return i
		}
	}
	return -1
}

// Question returns the question with the given id.
func (l *Lesson) Question(id string) (Question, bool) {
	for _, q := range l.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionIDs returns the ids of every question in the lesson.
func (l *Lesson) QuestionIDs() []string {
	ids := make([]string, len(l.Questions))
	for i, q := range l.Questions {
		ids[i] = q.ID
	}
	return ids
}

package artifact

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"

	defaultHoursPerWeek = 5
	defaultCardCount    = 10
	defaultMaxNodes     = 20
	defaultDepth        = 3
	defaultDifficulty   = DifficultyIntermediate
)

// Parameters are the normalized, kind-specific generation parameters.
// Fields that do not apply to the kind are zero.
type Parameters struct {
	DurationWeeks int    `json:"durationWeeks,omitempty"`
	HoursPerWeek  int    `json:"hoursPerWeek,omitempty"`
	Count         int    `json:"count,omitempty"`
	MaxNodes      int    `json:"maxNodes,omitempty"`
	Depth         int    `json:"depth,omitempty"`
	Difficulty    string `json:"difficulty"`
	Topic         string `json:"topic,omitempty"`
}

// ExpectedItems is the item count the kind's payload is reconciled against.
func (p Parameters) ExpectedItems(kind Kind) int {
	switch kind {
	case KindStudyPlan:
		return p.DurationWeeks
	case KindFlashcards:
		return p.Count
	case KindMindMap:
		return p.MaxNodes
	}
	return 0
}

// Request is a validated generation request.
type Request struct {
	Kind            Kind       `json:"kind"`
	ResourceID      string     `json:"resourceId"`
	OwnerID         string     `json:"ownerId"`
	Parameters      Parameters `json:"parameters"`
	ForceRegenerate bool       `json:"forceRegenerate"`
}

// Key returns the store key of the request.
func (r Request) Key() Key {
	return Key{Kind: r.Kind, ResourceID: r.ResourceID, OwnerID: r.OwnerID}
}

// RawParameters is the wire form of Parameters. Pointers distinguish an
// absent field from an explicit zero.
type RawParameters struct {
	DurationWeeks *int    `json:"durationWeeks"`
	HoursPerWeek  *int    `json:"hoursPerWeek"`
	Count         *int    `json:"count"`
	MaxNodes      *int    `json:"maxNodes"`
	Depth         *int    `json:"depth"`
	Difficulty    *string `json:"difficulty"`
	Topic         *string `json:"topic"`
}

// RawRequest is an unvalidated generation request.
type RawRequest struct {
	Kind            string        `json:"kind"`
	ResourceID      string        `json:"resourceId"`
	OwnerID         string        `json:"-"`
	Parameters      RawParameters `json:"parameters"`
	ForceRegenerate bool          `json:"forceRegenerate"`
}

type identityInput struct {
	ResourceID string `json:"resourceId" validate:"notblank"`
	OwnerID    string `json:"ownerId"    validate:"notblank"`
}

type studyPlanInput struct {
	identityInput
	DurationWeeks *int    `json:"durationWeeks" validate:"required,min=1,max=52"`
	HoursPerWeek  *int    `json:"hoursPerWeek"  validate:"omitempty,min=1,max=60"`
	Difficulty    *string `json:"difficulty"    validate:"omitempty,oneof=beginner intermediate advanced"`
	Topic         *string `json:"topic"         validate:"omitempty,max=200"`
}

type flashcardsInput struct {
	identityInput
	Count      *int    `json:"count"      validate:"omitempty,min=1,max=100"`
	Difficulty *string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Topic      *string `json:"topic"      validate:"omitempty,max=200"`
}

type mindMapInput struct {
	identityInput
	MaxNodes   *int    `json:"maxNodes"   validate:"omitempty,min=3,max=100"`
	Depth      *int    `json:"depth"      validate:"omitempty,min=1,max=5"`
	Difficulty *string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Topic      *string `json:"topic"      validate:"omitempty,max=200"`
}

const notBlankTag = "notblank"

var (
	validate   *validator.Validate
	translator ut.Translator
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(string)
		return ok && strings.TrimSpace(s) != ""
	})
	_ = validate.RegisterTranslation(notBlankTag, translator,
		func(ut.Translator) error { return nil },
		func(_ ut.Translator, fe validator.FieldError) string {
			return fe.Field() + " is required"
		},
	)
}

// Normalize validates raw and applies defaults. Every violation is reported,
// not only the first. It has no side effects.
func Normalize(raw RawRequest) (Request, error) {
	kind, ok := ParseKind(raw.Kind)
	if !ok {
		violations := []Violation{{Field: "kind", Message: "kind must be one of study_plan, flashcards, mind_map"}}
		violations = append(violations, collectViolations(identityInput{ResourceID: raw.ResourceID, OwnerID: raw.OwnerID})...)
		return Request{}, &ValidationError{Violations: violations}
	}

	req := Request{
		Kind:            kind,
		ResourceID:      strings.TrimSpace(raw.ResourceID),
		OwnerID:         strings.TrimSpace(raw.OwnerID),
		ForceRegenerate: raw.ForceRegenerate,
	}
	id := identityInput{ResourceID: req.ResourceID, OwnerID: req.OwnerID}
	p := raw.Parameters
	difficulty := normalizedString(p.Difficulty)
	if difficulty != nil {
		lowered := strings.ToLower(*difficulty)
		difficulty = &lowered
	}
	topic := normalizedString(p.Topic)

	var input interface{}
	switch kind {
	case KindStudyPlan:
		input = studyPlanInput{identityInput: id, DurationWeeks: p.DurationWeeks, HoursPerWeek: p.HoursPerWeek, Difficulty: difficulty, Topic: topic}
	case KindFlashcards:
		input = flashcardsInput{identityInput: id, Count: p.Count, Difficulty: difficulty, Topic: topic}
	case KindMindMap:
		input = mindMapInput{identityInput: id, MaxNodes: p.MaxNodes, Depth: p.Depth, Difficulty: difficulty, Topic: topic}
	}
	if violations := collectViolations(input); len(violations) > 0 {
		return Request{}, &ValidationError{Violations: violations}
	}

	params := Parameters{
		Difficulty: valueOr(difficulty, defaultDifficulty),
		Topic:      valueOr(topic, ""),
	}
	switch kind {
	case KindStudyPlan:
		params.DurationWeeks = *p.DurationWeeks
		params.HoursPerWeek = valueOr(p.HoursPerWeek, defaultHoursPerWeek)
	case KindFlashcards:
		params.Count = valueOr(p.Count, defaultCardCount)
	case KindMindMap:
		params.MaxNodes = valueOr(p.MaxNodes, defaultMaxNodes)
		params.Depth = valueOr(p.Depth, defaultDepth)
	}
	req.Parameters = params
	return req, nil
}

func collectViolations(input interface{}) []Violation {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Violation{{Field: "request", Message: err.Error()}}
	}
	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{Field: fe.Field(), Message: fe.Translate(translator)})
	}
	return violations
}

// normalizedString trims s; blank becomes nil.
func normalizedString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

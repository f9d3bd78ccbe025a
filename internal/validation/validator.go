package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"quizbook/internal/domain"
)

const (
	MaxTitleLength    = 200
	MaxCategoryLength = 100
	MaxMemoLength     = 2000
	MaxQuestionCount  = 1000
	maxIDLength       = 64
)

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateID checks a path identifier. Imported collections may carry non-ULID ids.
func (v *Validator) ValidateID(field, id string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError(field))
	} else if len(id) > maxIDLength || !validID.MatchString(id) {
		errors = append(errors, domain.NewInvalidFormatError(field, id))
	}
	return errors
}

// ValidateCreateBook validates a new book. The title may be left empty.
func (v *Validator) ValidateCreateBook(title, category string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		errors = append(errors, domain.NewOutOfRangeError("title", n, 0, MaxTitleLength))
	}
	if n := utf8.RuneCountInString(category); n > MaxCategoryLength {
		errors = append(errors, domain.NewOutOfRangeError("category", n, 0, MaxCategoryLength))
	}
	return errors
}

// ValidateUpdateBook validates the provided fields of a book update
func (v *Validator) ValidateUpdateBook(title, category *string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if title != nil {
		errors = append(errors, v.ValidateTitle(*title)...)
	}
	if category != nil {
		if n := utf8.RuneCountInString(*category); n > MaxCategoryLength {
			errors = append(errors, domain.NewOutOfRangeError("category", n, 0, MaxCategoryLength))
		}
	}
	return errors
}

// ValidateTitle requires a non-empty title
func (v *Validator) ValidateTitle(title string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if strings.TrimSpace(title) == "" {
		errors = append(errors, domain.NewMissingFieldError("title"))
	} else if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		errors = append(errors, domain.NewOutOfRangeError("title", n, 1, MaxTitleLength))
	}
	return errors
}

// ValidateOptionalTitle allows an empty title (a placeholder is used)
func (v *Validator) ValidateOptionalTitle(title string) domain.ValidationErrors {
	var errors domain.ValidationErrors
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		errors = append(errors, domain.NewOutOfRangeError("title", n, 0, MaxTitleLength))
	}
	return errors
}

// ValidateSectionMode accepts flat or sectioned
func (v *Validator) ValidateSectionMode(mode string) (domain.SectionMode, domain.ValidationErrors) {
	if strings.TrimSpace(mode) == "" {
		return domain.SectionModeUndecided, domain.ValidationErrors{domain.NewMissingFieldError("mode")}
	}
	m, ok := domain.ParseSectionMode(mode)
	if !ok || m == domain.SectionModeUndecided {
		return domain.SectionModeUndecided, domain.ValidationErrors{domain.NewInvalidFormatError("mode", mode)}
	}
	return m, nil
}

// ValidateQuestionCount requires 1..MaxQuestionCount
func (v *Validator) ValidateQuestionCount(field string, count int) domain.ValidationErrors {
	if count < 1 || count > MaxQuestionCount {
		return domain.ValidationErrors{domain.NewOutOfRangeError(field, count, 1, MaxQuestionCount)}
	}
	return nil
}

// ValidateAddSection validates a new section
func (v *Validator) ValidateAddSection(title string, questionCount int) domain.ValidationErrors {
	errors := v.ValidateOptionalTitle(title)
	return append(errors, v.ValidateQuestionCount("question_count", questionCount)...)
}

// ValidateQuestionNumber requires a positive question number
func (v *Validator) ValidateQuestionNumber(n int) domain.ValidationErrors {
	if n < 1 || n > MaxQuestionCount {
		return domain.ValidationErrors{domain.NewOutOfRangeError("number", n, 1, MaxQuestionCount)}
	}
	return nil
}

// ValidateResult parses pass/fail
func (v *Validator) ValidateResult(result string) (domain.Result, domain.ValidationErrors) {
	if strings.TrimSpace(result) == "" {
		return 0, domain.ValidationErrors{domain.NewMissingFieldError("result")}
	}
	r, ok := domain.ParseResult(result)
	if !ok {
		return 0, domain.ValidationErrors{domain.NewInvalidFormatError("result", result)}
	}
	return r, nil
}

// ValidateMemo limits memo length
func (v *Validator) ValidateMemo(memo string) domain.ValidationErrors {
	if n := utf8.RuneCountInString(memo); n > MaxMemoLength {
		return domain.ValidationErrors{domain.NewOutOfRangeError("memo", n, 0, MaxMemoLength)}
	}
	return nil
}

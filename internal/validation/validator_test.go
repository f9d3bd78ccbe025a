package validation

import (
	"strings"
	"testing"

	"quizbook/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidateID("book_id", "01J9ZK6W3Q8Y4X2B5C7D9E1F3G"))
	assert.Empty(t, v.ValidateID("book_id", "legacy-book_1"))

	errs := v.ValidateID("book_id", " ")
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeMissingField, errs[0].Code)

	errs = v.ValidateID("book_id", "../etc")
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeInvalidFormat, errs[0].Code)
	assert.ErrorIs(t, errs, domain.ErrValidation)
}

func TestValidateTitle(t *testing.T) {
	v := NewValidator()
	tests := []struct {
		name     string
		title    string
		wantCode domain.ErrorCode
	}{
		{"valid", "Network Specialist", ""},
		{"blank", "   ", domain.CodeMissingField},
		{"too long", strings.Repeat("あ", MaxTitleLength+1), domain.CodeOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateTitle(tt.title)
			if tt.wantCode == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantCode, errs[0].Code)
		})
	}
	assert.Empty(t, v.ValidateOptionalTitle(""))
	assert.Empty(t, v.ValidateCreateBook("", ""))
}

func TestValidateUpdateBook(t *testing.T) {
	v := NewValidator()
	empty := ""
	long := strings.Repeat("c", MaxCategoryLength+1)
	assert.Empty(t, v.ValidateUpdateBook(nil, nil))
	assert.Len(t, v.ValidateUpdateBook(&empty, &long), 2)
	assert.Empty(t, v.ValidateUpdateBook(nil, &empty))
}

func TestValidateSectionMode(t *testing.T) {
	v := NewValidator()
	m, errs := v.ValidateSectionMode("Sectioned")
	assert.Empty(t, errs)
	assert.Equal(t, domain.SectionModeSectioned, m)

	_, errs = v.ValidateSectionMode("")
	assert.Len(t, errs, 1)
	_, errs = v.ValidateSectionMode("undecided")
	assert.Len(t, errs, 1)
	_, errs = v.ValidateSectionMode("nested")
	assert.Len(t, errs, 1)
}

func TestValidateCounts(t *testing.T) {
	v := NewValidator()
	assert.Empty(t, v.ValidateQuestionCount("count", 1))
	assert.Len(t, v.ValidateQuestionCount("count", 0), 1)
	assert.Len(t, v.ValidateQuestionCount("count", MaxQuestionCount+1), 1)
	assert.Len(t, v.ValidateAddSection(strings.Repeat("t", MaxTitleLength+1), 0), 2)
	assert.Len(t, v.ValidateQuestionNumber(0), 1)
	assert.Empty(t, v.ValidateQuestionNumber(3))
}

func TestValidateResult(t *testing.T) {
	v := NewValidator()
	r, errs := v.ValidateResult("×")
	assert.Empty(t, errs)
	assert.Equal(t, domain.ResultFail, r)

	r, errs = v.ValidateResult("PASS")
	assert.Empty(t, errs)
	assert.Equal(t, domain.ResultPass, r)

	_, errs = v.ValidateResult("maybe")
	require.Len(t, errs, 1)
	assert.Equal(t, domain.CodeInvalidFormat, errs[0].Code)

	assert.Len(t, v.ValidateMemo(strings.Repeat("m", MaxMemoLength+1)), 1)
}

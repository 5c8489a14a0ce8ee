package validation

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"listentg/internal/constants"
	"listentg/internal/errors"
)

// ValidateSearchQuery checks a search query before it reaches storage.
// Queries shorter than the minimum are not an error; the caller returns
// an empty result for them.
func ValidateSearchQuery(query string) error {
	if !utf8.ValidString(query) {
		return errors.New(errors.ErrCodeInvalidInput, "search query is not valid UTF-8").
			WithUserMessage("Query contains invalid characters")
	}

	if utf8.RuneCountInString(query) > constants.MaxSearchQueryLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("search query too long (max %d characters)", constants.MaxSearchQueryLength)).
			WithUserMessage("Query is too long")
	}

	for _, char := range query {
		if char == '\x00' || (unicode.IsControl(char) && char != '\t') {
			return errors.New(errors.ErrCodeInvalidInput, "search query contains control characters").
				WithUserMessage("Query contains invalid characters")
		}
	}

	return nil
}

// ValidateStringLength validates string length against bounds
func ValidateStringLength(value, fieldName string, minLength, maxLength int) error {
	if len(value) < minLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too short (min %d characters)", fieldName, minLength))
	}

	if len(value) > maxLength {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too long (max %d characters)", fieldName, maxLength))
	}

	return nil
}

// ValidateNumericRange validates numeric values against bounds
func ValidateNumericRange(value int, fieldName string, min, max int) error {
	if value < min {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too small (min %d)", fieldName, min))
	}

	if value > max {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max %d)", fieldName, max))
	}

	return nil
}

// ValidateTimeout validates timeout values
func ValidateTimeout(timeoutSec int, fieldName string) error {
	if timeoutSec < 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s must be at least 1 second", fieldName))
	}

	if timeoutSec > 3600 { // Max 1 hour
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max 3600 seconds)", fieldName))
	}

	return nil
}

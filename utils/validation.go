package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

type ValidationErr struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool
	Errors []ValidationErr
}

func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors = append(v.Errors, ValidationErr{
		Field:   field,
		Message: message,
	})
}

func (v *ValidationResult) HasErrors() bool {
	return !v.Valid
}

func (v *ValidationResult) Error() string {
	if !v.Valid {
		messages := make([]string, len(v.Errors))
		for i, e := range v.Errors {
			messages[i] = e.Message
		}
		return strings.Join(messages, "; ")
	}
	return ""
}

// Merge folds other results into v.
func (v *ValidationResult) Merge(others ...*ValidationResult) *ValidationResult {
	for _, o := range others {
		for _, e := range o.Errors {
			v.AddError(e.Field, e.Message)
		}
	}
	return v
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

func ValidatePositiveInt(value int, fieldName string) *ValidationResult {
	result := NewValidationResult()
	if value <= 0 {
		result.AddError(fieldName, fieldName+" must be a positive number")
	}
	return result
}

// ValidateStringLength counts characters, not bytes. max <= 0 means no limit.
func ValidateStringLength(value, fieldName string, min, max int) *ValidationResult {
	result := NewValidationResult()
	length := utf8.RuneCountInString(strings.TrimSpace(value))
	if length < min {
		result.AddError(fieldName, fieldName+" must be at least "+strconv.Itoa(min)+" characters")
	}
	if max > 0 && length > max {
		result.AddError(fieldName, fieldName+" must be at most "+strconv.Itoa(max)+" characters")
	}
	return result
}

func ValidateStringNotEmpty(value, fieldName string) *ValidationResult {
	result := NewValidationResult()
	if strings.TrimSpace(value) == "" {
		result.AddError(fieldName, fieldName+" cannot be empty")
	}
	return result
}

func ValidateEnum(value, fieldName string, allowedValues []string) *ValidationResult {
	result := NewValidationResult()
	if value == "" {
		return result
	}

	for _, allowed := range allowedValues {
		if value == allowed {
			return result
		}
	}

	result.AddError(fieldName, fieldName+" must be one of: "+strings.Join(allowedValues, ", "))
	return result
}

var joinCodeRegex = regexp.MustCompile(`^\d{6}$`)

// ValidateJoinCode checks for exactly six decimal digits.
func ValidateJoinCode(value string) *ValidationResult {
	result := NewValidationResult()
	if !joinCodeRegex.MatchString(value) {
		result.AddError("join_code", "join_code must be exactly 6 digits")
	}
	return result
}

// ValidateRequest writes every failed check as one validation error and
// reports whether the request may proceed.
func ValidateRequest(ctx *gin.Context, validators ...*ValidationResult) bool {
	result := NewValidationResult().Merge(validators...)
	if result.HasErrors() {
		ValidationError(ctx, result.Error())
		return false
	}
	return true
}

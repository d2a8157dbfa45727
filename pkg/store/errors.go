package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors returned by store operations.
var (
	ErrNotFound     = errors.New("record not found")
	ErrIDOutOfRange = errors.New("id out of range")
	ErrWrongType    = errors.New("operation not valid for case type")
)

// ErrorCategory classifies a persistence failure so the orchestrator can pick
// a user-facing message without leaking raw error text.
type ErrorCategory int

const (
	CategoryGeneric ErrorCategory = iota
	CategoryIDTooLarge
	CategoryNotFound
	CategoryUniqueConflict
	CategoryForeignKeyConflict
)

// Categorize maps a store error to its category. Driver errors are sniffed by
// message since sqlite and postgres report constraint violations differently.
func Categorize(err error) ErrorCategory {
	if err == nil {
		return CategoryGeneric
	}
	if errors.Is(err, ErrIDOutOfRange) {
		return CategoryIDTooLarge
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound) {
		return CategoryNotFound
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "out of range") || strings.Contains(msg, "too large"):
		return CategoryIDTooLarge
	case strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key"):
		return CategoryUniqueConflict
	case strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, "foreign key"):
		return CategoryForeignKeyConflict
	default:
		return CategoryGeneric
	}
}

// UserMessage converts a store error into the string shown to the acting
// moderator. noun names the record kind ("note", "warning"), action the verb
// phrase for the generic fallback ("removing the note"), id the record id
// when known.
func UserMessage(err error, noun, action string, id int64) string {
	switch Categorize(err) {
	case CategoryIDTooLarge:
		return "Invalid ID. The ID number is too large."
	case CategoryNotFound:
		return fmt.Sprintf("No %s found with ID %d.", noun, id)
	case CategoryUniqueConflict:
		return "This record already exists."
	case CategoryForeignKeyConflict:
		return "Referenced record does not exist."
	default:
		return fmt.Sprintf("An unexpected error occurred while %s.", action)
	}
}

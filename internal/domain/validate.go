package domain

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names as they appear on the wire.
const (
	FieldTitle    = "title"
	FieldContent  = "content"
	FieldPriority = "priority"
	FieldDueDate  = "dueDate"
)

var fieldNames = map[string]string{
	"Title":    FieldTitle,
	"Content":  FieldContent,
	"Priority": FieldPriority,
	"DueDate":  FieldDueDate,
}

// rule -> message, per field.
var messages = map[string]map[string]string{
	FieldTitle: {
		"required": "Title is required",
		"min":      "Title must be at least 5 characters",
	},
	FieldContent: {
		"required": "Content is required",
	},
	FieldPriority: {
		"required": "Priority is required",
		"oneof":    "Priority must be one of Low, Medium, High",
	},
	FieldDueDate: {
		"required": "Due Date is required",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, ok := fieldNames[f.Name]; ok {
			return name
		}
		return f.Name
	})
	return v
}

// ValidationError lists every failing field with its message.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError with a single field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already failed.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Merge folds the fields of other into e. Earlier messages win.
func (e *ValidationError) Merge(other *ValidationError) {
	if other == nil {
		return
	}
	for f, m := range other.Fields {
		e.Add(f, m)
	}
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// Err returns e as an error, or nil when no field failed.
func (e *ValidationError) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// AsValidationError unwraps err into a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Validate checks d against the task rules and returns a *ValidationError
// naming every failing field.
func (d Draft) Validate() error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate task: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), Message(fe.Field(), fe.Tag()))
	}
	return out
}

// Message returns the text reported when field fails rule tag.
func Message(field, tag string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	return fmt.Sprintf("%s is invalid", field)
}

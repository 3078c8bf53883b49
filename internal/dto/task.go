package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	dom "TaskAPI/internal/domain"
)

// ParseDueDate parses dueDate as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC.
func ParseDueDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	layouts := []string{
		"2006-01-02",     // date only
		time.RFC3339,     // 2006-01-02T15:04:05Z07:00
		time.RFC3339Nano, // with nanoseconds
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, errors.New("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

const msgBadDueDate = "Due Date must be a date (YYYY-MM-DD) or RFC3339 datetime"

// Keys a client may send back from a fetched task; they are ignored.
var readOnlyKeys = map[string]bool{
	"id": true, "_id": true, "createdAt": true, "updatedAt": true, "__v": true,
}

var writableKeys = map[string]string{
	dom.FieldTitle:    "Title",
	dom.FieldContent:  "Content",
	dom.FieldPriority: "Priority",
	dom.FieldDueDate:  "Due Date",
}

// taskFields is the decoded writable part of a request body.
// A nil pointer means the key was absent.
type taskFields struct {
	Title    *string
	Content  *string
	Priority *string
	DueDate  *time.Time
	// DueDate was sent as null or "".
	dueCleared bool
}

// DecodeCreate decodes a create body into a draft. Field-level problems
// (unknown keys, wrong JSON types, bad dates) are returned as a validation
// error; the draft is still filled with whatever decoded cleanly.
func DecodeCreate(body []byte) (dom.Draft, error) {
	f, err := decodeFields(body)
	if err != nil {
		return dom.Draft{}, err
	}
	d := dom.Draft{DueDate: f.DueDate}
	if f.Title != nil {
		d.Title = *f.Title
	}
	if f.Content != nil {
		d.Content = *f.Content
	}
	if f.Priority != nil {
		d.Priority = dom.Priority(*f.Priority)
	}
	return d, f.errs.Err()
}

// DecodePatch decodes an update body into a patch. Keys set to null clear
// the field, which then fails its "required" rule.
func DecodePatch(body []byte) (dom.Patch, error) {
	f, err := decodeFields(body)
	if err != nil {
		return dom.Patch{}, err
	}
	if f.dueCleared {
		f.errs.Add(dom.FieldDueDate, dom.Message(dom.FieldDueDate, "required"))
	}
	p := dom.Patch{Title: f.Title, Content: f.Content, DueDate: f.DueDate}
	if f.Priority != nil {
		pr := dom.Priority(*f.Priority)
		p.Priority = &pr
	}
	return p, f.errs.Err()
}

type decoded struct {
	taskFields
	errs *dom.ValidationError
}

// decodeFields returns a plain error only when the body is not a JSON object.
func decodeFields(body []byte) (decoded, error) {
	out := decoded{errs: &dom.ValidationError{}}
	if len(bytes.TrimSpace(body)) == 0 {
		return out, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return out, fmt.Errorf("invalid JSON body: %w", err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := raw[key]
		if readOnlyKeys[key] {
			continue
		}
		label, ok := writableKeys[key]
		if !ok {
			out.errs.Add(key, "field is not allowed")
			continue
		}
		null := bytes.Equal(bytes.TrimSpace(val), []byte("null"))
		if key == dom.FieldDueDate {
			if null {
				out.dueCleared = true
				continue
			}
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				out.errs.Add(key, msgBadDueDate)
				continue
			}
			if strings.TrimSpace(s) == "" {
				out.dueCleared = true
				continue
			}
			t, err := ParseDueDate(s)
			if err != nil {
				out.errs.Add(key, msgBadDueDate)
				continue
			}
			out.DueDate = &t
			continue
		}
		s := ""
		if !null {
			if err := json.Unmarshal(val, &s); err != nil {
				out.errs.Add(key, label+" must be a string")
				continue
			}
		}
		switch key {
		case dom.FieldTitle:
			out.Title = &s
		case dom.FieldContent:
			out.Content = &s
		case dom.FieldPriority:
			out.Priority = &s
		}
	}
	return out, nil
}

// CreateTaskRequest is the JSON body for POST /tasks.
type CreateTaskRequest struct {
	Title    string `json:"title" example:"Write report"`
	Content  string `json:"content" example:"Q3 summary"`
	Priority string `json:"priority" example:"High" enums:"Low,Medium,High"`
	DueDate  string `json:"dueDate" example:"2025-01-01"`
}

// UpdateTaskRequest is the JSON body for PUT /tasks/{id}; omitted fields are kept.
type UpdateTaskRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Priority *string `json:"priority,omitempty" enums:"Low,Medium,High"`
	DueDate  *string `json:"dueDate,omitempty"`
}

type TaskResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Priority  string    `json:"priority"`
	DueDate   time.Time `json:"dueDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrorResponse is the body of every non-validation failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse lists every failing field.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors"`
}

// MessageResponse confirms a deletion.
type MessageResponse struct {
	Message string `json:"message"`
}

package domain

import (
	"strings"
	"time"
)

// Priority is the urgency level of a task.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists the accepted priority values in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Domain entity: a persisted task.
// Does not depend on Gin, Postgres, Mongo or Redis.
type Task struct {
	ID       string
	Title    string
	Content  string
	Priority Priority
	DueDate  time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Draft is the set of user-editable fields written by the store.
type Draft struct {
	Title    string     `validate:"required,min=5"`
	Content  string     `validate:"required"`
	Priority Priority   `validate:"required,oneof=Low Medium High"`
	DueDate  *time.Time `validate:"required"`
}

// Normalize trims surrounding whitespace from the text fields.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	d.Priority = Priority(strings.TrimSpace(string(d.Priority)))
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		d.DueDate = &due
	}
	return d
}

// Patch holds the fields of a partial update; nil means "keep".
type Patch struct {
	Title    *string
	Content  *string
	Priority *Priority
	DueDate  *time.Time
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Priority == nil && p.DueDate == nil
}

// DraftOf returns the editable fields of t.
func DraftOf(t Task) Draft {
	due := t.DueDate
	return Draft{
		Title:    t.Title,
		Content:  t.Content,
		Priority: t.Priority,
		DueDate:  &due,
	}
}

// Apply overlays the patch on the fields of t.
func (p Patch) Apply(t Task) Draft {
	d := DraftOf(t)
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Content != nil {
		d.Content = *p.Content
	}
	if p.Priority != nil {
		d.Priority = *p.Priority
	}
	if p.DueDate != nil {
		due := *p.DueDate
		d.DueDate = &due
	}
	return d
}

package model

import (
	"errors"
	"fmt"
)

const (
	FieldText     = "text"
	FieldEmail    = "email"
	FieldTextarea = "textarea"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
	FieldNumber   = "number"
	FieldDate     = "date"
)

var ErrInvalidForm = errors.New("invalid form")

// DynamicForm is a form the assistant asks the user to fill in, delivered
// mid-stream as a form event.
type DynamicForm struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FormField `json:"fields"`
	SubmitLabel string      `json:"submit_label,omitempty"`
}

type FormField struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Label       string      `json:"label"`
	Required    bool        `json:"required,omitempty"`
	Options     []string    `json:"options,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
	Value       interface{} `json:"value,omitempty"`
}

// Validate enforces the form invariants: field names unique within the form,
// options present exactly when the field is a select.
func (f *DynamicForm) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidForm)
	}
	seen := make(map[string]struct{}, len(f.Fields))
	for _, field := range f.Fields {
		if field.Name == "" {
			return fmt.Errorf("%w: field without name", ErrInvalidForm)
		}
		if _, dup := seen[field.Name]; dup {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidForm, field.Name)
		}
		seen[field.Name] = struct{}{}

		if field.Type == FieldSelect && len(field.Options) == 0 {
			return fmt.Errorf("%w: select field %q has no options", ErrInvalidForm, field.Name)
		}
		if field.Type != FieldSelect && len(field.Options) > 0 {
			return fmt.Errorf("%w: field %q of type %s carries options", ErrInvalidForm, field.Name, field.Type)
		}
	}
	return nil
}

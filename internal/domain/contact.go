package domain

import "fmt"

// Field names one of the five contact form inputs.
type Field string

const (
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
	FieldEmail     Field = "email"
	FieldPhone     Field = "phone"
	FieldMessage   Field = "message"
)

// Fields lists the form inputs in display order.
func Fields() []Field {
	return []Field{FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldMessage}
}

// ParseField converts a raw input name into a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldMessage:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// ContactFields is the visitor's inquiry. It doubles as the mail relay payload.
type ContactFields struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

// Get returns the value of a single field.
func (f ContactFields) Get(name Field) string {
	switch name {
	case FieldFirstName:
		return f.FirstName
	case FieldLastName:
		return f.LastName
	case FieldEmail:
		return f.Email
	case FieldPhone:
		return f.Phone
	case FieldMessage:
		return f.Message
	default:
		return ""
	}
}

// Set overwrites a single field. Unknown names are ignored.
func (f *ContactFields) Set(name Field, value string) {
	switch name {
	case FieldFirstName:
		f.FirstName = value
	case FieldLastName:
		f.LastName = value
	case FieldEmail:
		f.Email = value
	case FieldPhone:
		f.Phone = value
	case FieldMessage:
		f.Message = value
	}
}

// ContactErrors mirrors ContactFields; an empty string means the field is fine.
type ContactErrors struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Message   string `json:"message"`
}

func (e ContactErrors) Get(name Field) string {
	return ContactFields(e).Get(name)
}

func (e *ContactErrors) Set(name Field, message string) {
	(*ContactFields)(e).Set(name, message)
}

// Any reports whether at least one field carries an error.
func (e ContactErrors) Any() bool {
	return e != ContactErrors{}
}

// SubmissionStatus is the lifecycle of one contact form submission attempt.
type SubmissionStatus string

const (
	StatusIdle       SubmissionStatus = "idle"
	StatusSubmitting SubmissionStatus = "submitting"
	StatusSucceeded  SubmissionStatus = "succeeded"
)

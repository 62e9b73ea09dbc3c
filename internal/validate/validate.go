// Package validate checks user input at the core boundary: question text
// and uploaded filenames. Failures are reported before any processing.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ziadkadry99/docchat/internal/document"
)

const (
	// MinQuestionLength and MaxQuestionLength bound a question, in characters.
	MinQuestionLength = 5
	MaxQuestionLength = 200
)

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError describes invalid user input.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

type userQuestion struct {
	Text string `validate:"min=5,max=200"`
}

type uploadedFile struct {
	Filename string `validate:"required,docext"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("docext", func(fl validator.FieldLevel) bool {
		_, ok := document.TypeFromName(fl.Field().String())
		return ok
	})
	return v
}

// Question validates question text and returns it trimmed.
func Question(text string) (string, error) {
	q := userQuestion{Text: strings.TrimSpace(text)}
	if err := validate.Struct(q); err != nil {
		return "", toValidationError("question", "", err)
	}
	return q.Text, nil
}

// Filename validates an uploaded filename and returns its type.
func Filename(name string) (document.FileType, error) {
	f := uploadedFile{Filename: name}
	if err := validate.Struct(f); err != nil {
		return "", toValidationError("file", name, err)
	}
	t, _ := document.TypeFromName(name)
	return t, nil
}

// FilenameOfType validates a filename and checks it matches the expected type.
func FilenameOfType(name string, expected document.FileType) error {
	t, err := Filename(name)
	if err != nil {
		return err
	}
	if t != expected {
		return &ValidationError{Field: "file", Value: name, Reason: fmt.Sprintf("expected a .%s file", expected)}
	}
	return nil
}

// Documents validates a batch of uploads: every filename must be supported
// and all must share one type. It returns that type.
func Documents(docs []document.Document) (document.FileType, error) {
	if len(docs) == 0 {
		return "", &ValidationError{Field: "files", Reason: "no files provided"}
	}
	first, err := Filename(docs[0].Name)
	if err != nil {
		return "", err
	}
	for _, d := range docs {
		if err := FilenameOfType(d.Name, first); err != nil {
			return "", err
		}
		if d.Type != "" && d.Type != first {
			return "", &ValidationError{Field: "file", Value: d.Name, Reason: fmt.Sprintf("declared type %s does not match extension", d.Type)}
		}
	}
	if first == document.TypeCSV && len(docs) > 1 {
		return "", &ValidationError{Field: "files", Reason: "only one CSV file can be processed at a time"}
	}
	return first, nil
}

func toValidationError(field, value string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: field, Value: value, Reason: err.Error()}
	}
	fe := verrs[0]
	var reason string
	switch fe.Tag() {
	case "min":
		reason = fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	case "required":
		reason = "is required"
	case "docext":
		reason = "invalid file type: must be .pdf, .docx or .csv"
	default:
		reason = fmt.Sprintf("failed %s check", fe.Tag())
	}
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

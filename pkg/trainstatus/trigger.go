package trainstatus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/travigo/cta-train-analytics/pkg/ctdf"
)

var ErrValidation = errors.New("invalid trigger message")

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ParseTrigger decodes a trigger message body into the line it asks for
func ParseTrigger(body []byte) (ctdf.TrainLine, error) {
	var line ctdf.TrainLine

	if err := json.Unmarshal(body, &line); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return line, &ValidationError{Field: typeErr.Field, Reason: "is malformed: expected a string, got " + typeErr.Value}
		}

		return line, &ValidationError{Field: "body", Reason: "is not a JSON object: " + err.Error()}
	}

	if strings.TrimSpace(line.Code) == "" {
		return line, &ValidationError{Field: "train_line_abbrev", Reason: "is missing"}
	}
	if strings.TrimSpace(line.Name) == "" {
		return line, &ValidationError{Field: "train_line", Reason: "is missing"}
	}

	return line, nil
}

func EncodeTrigger(line ctdf.TrainLine) ([]byte, error) {
	return json.Marshal(line)
}

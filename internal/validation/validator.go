package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"quiz-review/internal/domain"
	"strconv"
	"strings"
)

const (
	FieldID          = "id"
	FieldQuestion    = "question"
	FieldOptions     = "options"
	FieldAnswer      = "answer"
	FieldExplanation = "explanation"
	// FieldExplain is the older spelling of FieldExplanation; both are read.
	FieldExplain = "explain"
)

var requiredFields = []string{FieldID, FieldQuestion, FieldOptions, FieldAnswer}

// QuestionRecord is a raw bank record that passed every check. Strings are
// returned untrimmed; normalization belongs to the bank loader.
type QuestionRecord struct {
	Number      int
	Question    string
	Options     []string
	Answer      int
	Explanation string
}

// Validator provides question bank record validation
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateQuestionRecord applies the per-record checks in a fixed order and
// reports the first failure. position is 1-based. seen holds the ids accepted
// so far in this load; a valid record's id is added to it.
func (v *Validator) ValidateQuestionRecord(position int, raw interface{}, seen map[int]struct{}) (*QuestionRecord, error) {
	record, ok := raw.(map[string]interface{})
	if !ok {
		return nil, domain.NewRecordValidationError(position, nil, "", fmt.Sprintf("must be an object, got %s", describe(raw)))
	}

	rawID := record[FieldID]
	for _, field := range requiredFields {
		if _, present := record[field]; !present {
			return nil, domain.NewRecordValidationError(position, rawID, field, fmt.Sprintf("missing field %q", field))
		}
	}

	number, ok := toInteger(rawID, true)
	if !ok {
		return nil, domain.NewRecordValidationError(position, rawID, FieldID, fmt.Sprintf("id must be an integer, got %s", describe(rawID)))
	}
	if _, dup := seen[number]; dup {
		return nil, domain.NewRecordValidationError(position, rawID, FieldID, fmt.Sprintf("duplicate id %d", number))
	}

	question, ok := record[FieldQuestion].(string)
	if !ok || strings.TrimSpace(question) == "" {
		return nil, domain.NewRecordValidationError(position, rawID, FieldQuestion, "question must be a non-empty string")
	}

	options, ok := toStringList(record[FieldOptions])
	if !ok || len(options) < 2 {
		return nil, domain.NewRecordValidationError(position, rawID, FieldOptions, "options must be a list of at least 2 strings")
	}

	answer, ok := toInteger(record[FieldAnswer], false)
	if !ok || answer < 0 || answer >= len(options) {
		return nil, domain.NewRecordValidationError(position, rawID, FieldAnswer,
			fmt.Sprintf("answer must be an integer index in 0..%d", len(options)-1))
	}

	explanation, err := explanationOf(record)
	if err != nil {
		return nil, domain.NewRecordValidationError(position, rawID, FieldExplanation, err.Error())
	}

	seen[number] = struct{}{}
	return &QuestionRecord{
		Number:      number,
		Question:    question,
		Options:     options,
		Answer:      answer,
		Explanation: explanation,
	}, nil
}

func explanationOf(record map[string]interface{}) (string, error) {
	for _, field := range []string{FieldExplanation, FieldExplain} {
		value, present := record[field]
		if !present || value == nil {
			continue
		}
		text, ok := value.(string)
		if !ok {
			return "", fmt.Errorf("%s must be a string, got %s", field, describe(value))
		}
		return text, nil
	}
	return "", nil
}

// toInteger accepts native integers from either decoder. lenient also admits
// integral floats and numeric strings, which is how ids are allowed to look.
func toInteger(value interface{}, lenient bool) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		if n > math.MaxInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if !lenient {
			return 0, false
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return integralFloat(f)
	case float64:
		if !lenient {
			return 0, false
		}
		return integralFloat(n)
	case string:
		if !lenient {
			return 0, false
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func integralFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func toStringList(value interface{}) ([]string, bool) {
	items, ok := value.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func describe(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case string:
		return fmt.Sprintf("the string %q", value)
	case []interface{}:
		return "a list"
	case map[string]interface{}:
		return "an object"
	}
	return fmt.Sprintf("%v", value)
}

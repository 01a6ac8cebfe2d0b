package bank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quiz-review/internal/domain"
	"quiz-review/internal/logger"
	"quiz-review/internal/validation"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Mode is the invalid-record policy applied to a whole load.
type Mode string

const (
	// ModeStrict aborts on the first invalid record.
	ModeStrict Mode = "strict"
	// ModeLenient skips invalid records and reports them.
	ModeLenient Mode = "lenient"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeStrict, "":
		return ModeStrict, nil
	case ModeLenient:
		return ModeLenient, nil
	}
	return "", domain.NewInvalidInputError(fmt.Sprintf("unknown bank mode %q: use strict or lenient", s))
}

// Format is the encoding of a bank file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", domain.NewValidationError(fmt.Sprintf("unsupported bank file extension %q", filepath.Ext(path)), nil).
		WithContext("path", path)
}

// LoadResult carries the bank plus, in lenient mode, every skipped record.
type LoadResult struct {
	Bank    *Bank
	Skipped []*domain.DomainError
}

type Loader struct {
	mode      Mode
	validator *validation.Validator
}

func NewLoader(mode Mode) *Loader {
	if mode == "" {
		mode = ModeStrict
	}
	return &Loader{mode: mode, validator: validation.NewValidator()}
}

func (l *Loader) Mode() Mode {
	return l.mode
}

// ReadFile returns the raw bank at path and the format implied by its
// extension. The extension is checked before the file is read.
func ReadFile(path string) ([]byte, Format, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", domain.NewValidationError(fmt.Sprintf("cannot read question bank %s", path), err).
			WithContext("path", path)
	}
	return data, format, nil
}

// LoadFile reads path and loads it in the format implied by its extension.
func (l *Loader) LoadFile(path string) (*LoadResult, error) {
	data, format, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Load(data, format)
}

// Load parses and validates a raw bank. It performs no I/O.
func (l *Loader) Load(data []byte, format Format) (*LoadResult, error) {
	records, err := decodeRecords(data, format)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.NewValidationError("question bank must be a non-empty list", nil)
	}

	seen := make(map[int]struct{}, len(records))
	questions := make([]domain.Question, 0, len(records))
	var skipped []*domain.DomainError

	for i, raw := range records {
		rec, err := l.validator.ValidateQuestionRecord(i+1, raw, seen)
		if err != nil {
			if l.mode == ModeStrict {
				return nil, err
			}
			domainErr, ok := err.(*domain.DomainError)
			if !ok {
				domainErr = domain.NewValidationError(err.Error(), err)
			}
			logger.Get().Warn("Skipping invalid question record",
				zap.Int("record", i+1),
				zap.Any("context", domainErr.Context),
				zap.String("reason", domainErr.Message))
			skipped = append(skipped, domainErr)
			continue
		}
		questions = append(questions, normalize(rec))
	}

	if len(questions) == 0 {
		return nil, domain.NewValidationError(
			fmt.Sprintf("question bank has no valid records (%d skipped)", len(skipped)), nil)
	}

	b, err := New(questions, Fingerprint(data))
	if err != nil {
		return nil, err
	}
	return &LoadResult{Bank: b, Skipped: skipped}, nil
}

func normalize(rec *validation.QuestionRecord) domain.Question {
	choices := make([]string, len(rec.Options))
	for i, option := range rec.Options {
		choices[i] = strings.TrimSpace(option)
	}
	return domain.Question{
		ID:            domain.FormatQuestionID(rec.Number),
		Number:        rec.Number,
		Text:          strings.TrimSpace(rec.Question),
		Choices:       choices,
		CorrectAnswer: choices[rec.Answer],
		Explanation:   strings.TrimSpace(rec.Explanation),
	}
}

func decodeRecords(data []byte, format Format) ([]interface{}, error) {
	var decoded interface{}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&decoded); err != nil {
			return nil, domain.NewValidationError("question bank is not valid JSON", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			return nil, domain.NewValidationError("question bank is not valid YAML", err)
		}
	default:
		return nil, domain.NewValidationError(fmt.Sprintf("unsupported bank format %q", format), nil)
	}

	records, ok := decoded.([]interface{})
	if !ok {
		return nil, domain.NewValidationError("question bank must be a non-empty list", nil)
	}
	return records, nil
}

package domain

import (
	"fmt"
	"strings"
)

// SelectionMode decides which bank questions are eligible for a new round.
type SelectionMode string

const (
	// ModeFresh excludes every question that has an attempt.
	ModeFresh SelectionMode = "fresh"
	// ModeWrongOnly keeps only questions whose latest attempt was wrong.
	ModeWrongOnly SelectionMode = "wrong_only"
	// ModeAll applies no filter.
	ModeAll SelectionMode = "all"
)

func (m SelectionMode) Valid() bool {
	switch m {
	case ModeFresh, ModeWrongOnly, ModeAll:
		return true
	}
	return false
}

func ParseSelectionMode(s string) (SelectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fresh", "":
		return ModeFresh, nil
	case "wrong_only", "wrongonly", "wrong-only", "wrong":
		return ModeWrongOnly, nil
	case "all":
		return ModeAll, nil
	}
	return "", NewInvalidInputError(fmt.Sprintf("unknown selection mode %q: use fresh, wrong_only or all", s))
}

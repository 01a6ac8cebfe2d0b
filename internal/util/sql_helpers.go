package util

import (
	"database/sql"
	"time"
)

// StringPtrToNullString converts an optional string to sql.NullString.
// A nil pointer becomes NULL; an empty string stays a valid empty value.
func StringPtrToNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// NullStringToStringPtr is the inverse of StringPtrToNullString.
func NullStringToStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// TimeToUnix stores times as unix seconds; the zero time maps to 0.
func TimeToUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

// UnixToTime is the inverse of TimeToUnix.
func UnixToTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

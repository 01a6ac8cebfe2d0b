package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	cause := errors.New("disk full")
	storageErr := NewStorageError("upsert", cause)

	assert.Equal(t, CodeStorage, CodeOf(storageErr))
	assert.Equal(t, CodeStorage, CodeOf(fmt.Errorf("grading: %w", storageErr)))
	assert.Equal(t, CodeInternal, CodeOf(cause))
	assert.True(t, errors.Is(storageErr, cause))
	assert.True(t, IsStorageError(storageErr))
	assert.False(t, IsStorageError(nil))
	assert.False(t, IsValidationError(storageErr))
}

func TestDomainError_Message(t *testing.T) {
	err := NewStorageError("reset", errors.New("locked"))
	assert.Equal(t, "attempt store reset failed: locked", err.Error())
	assert.Equal(t, "reset", err.Context["op"])

	assert.Equal(t, "bad", NewInvalidInputError("bad").Error())
}

func TestNewRecordValidationError(t *testing.T) {
	err := NewRecordValidationError(3, "7", "options", "needs at least 2 options")
	assert.Equal(t, "record 3 (id 7): needs at least 2 options", err.Error())
	assert.Equal(t, 3, err.Context["record"])
	assert.Equal(t, "options", err.Context["field"])
	assert.Equal(t, "7", err.Context["id"])

	err = NewRecordValidationError(1, nil, "id", "missing id")
	assert.Equal(t, "record 1: missing id", err.Error())
	_, hasID := err.Context["id"]
	assert.False(t, hasID)
}

func TestDomainError_MarshalJSON(t *testing.T) {
	err := NewSessionStateError(SessionGraded, "answer")
	data, marshalErr := json.Marshal(err)
	require.NoError(t, marshalErr)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "SESSION_STATE", decoded["code"])
	assert.Equal(t, "cannot answer a session in state graded", decoded["message"])
	assert.Equal(t, map[string]interface{}{"state": "graded"}, decoded["context"])
}

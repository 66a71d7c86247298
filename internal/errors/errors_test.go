package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"validation", ErrValidation("torque", "must be >= 0"), http.StatusBadRequest, "VALIDATION_FAILED"},
		{"data format", DataFormatError("missing columns", []string{"Type"}), http.StatusUnprocessableEntity, "DATA_FORMAT_ERROR"},
		{"not found", NotFoundError("slide"), http.StatusNotFound, "NOT_FOUND"},
		{"model not trained", ErrModelNotTrained, http.StatusConflict, "MODEL_NOT_TRAINED"},
		{"invalid request", InvalidRequestWithError(errors.New("bad json")), http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.err.Message, tt.err.Error())
		})
	}
}

func TestAppError(t *testing.T) {
	cause := errors.New("unknown category \"X\"")
	err := NewParsingError("invalid Type value", cause).WithContext("row", 3)

	assert.Equal(t, "[PARSING] invalid Type value: unknown category \"X\"", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, err.Context["row"])

	wrapped := fmt.Errorf("upload: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeParsing))
	assert.False(t, IsType(wrapped, ErrTypeState))
	assert.False(t, IsType(errors.New("plain"), ErrTypeParsing))

	assert.Equal(t, "[STATE] no model", NewStateError("no model", nil).Error())
}

func TestProblemDetailsMarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusConflict, TypeModelNotTrained, "Conflict", "train first", "/api/analysis/predict").
		WithExtension("error_code", "MODEL_NOT_TRAINED").
		WithExtension("status", "ignored")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))

	assert.Equal(t, TypeModelNotTrained, body["type"])
	assert.Equal(t, "Conflict", body["title"])
	// standard members cannot be overridden by extensions
	assert.Equal(t, float64(http.StatusConflict), body["status"])
	assert.Equal(t, "train first", body["detail"])
	assert.Equal(t, "MODEL_NOT_TRAINED", body["error_code"])
}

package models

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemWrite(t *testing.T) {
	p := NewBadRequest("req_abc", "coordinates are invalid", []FieldError{
		{Field: "coordinates", Message: "lat out of range"},
	})
	p.Instance = "/v1/routes:process"

	w := httptest.NewRecorder()
	p.Write(w)

	assert.Equal(t, 400, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, "req_abc", w.Header().Get("X-Request-Id"))

	var decoded Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	assert.Equal(t, ProblemTypeValidation, decoded.Type)
	assert.Equal(t, "coordinates are invalid", decoded.Detail)
	assert.Equal(t, "/v1/routes:process", decoded.Instance)
	require.Len(t, decoded.Errors, 1)
	assert.Equal(t, "coordinates", decoded.Errors[0].Field)
}

func TestProblemConstructorsStatus(t *testing.T) {
	cases := []struct {
		problem *Problem
		status  int
	}{
		{NewUnauthorized("t", ""), 401},
		{NewNotFound("t", ""), 404},
		{NewTooManyRequests("t", ""), 429},
		{NewInternalError("t", ""), 500},
		{NewServiceUnavailable("t", ""), 503},
	}
	for _, c := range cases {
		assert.Equal(t, c.status, c.problem.Status)
		assert.Equal(t, "t", c.problem.TraceID)
	}
}

package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTodoRequest_PresentAndAbsentFields(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantTitle     Optional[string]
		wantCompleted Optional[bool]
	}{
		{"empty object", `{}`, Optional[string]{}, Optional[bool]{}},
		{"only title", `{"title":"X"}`, Some("X"), Optional[bool]{}},
		{"explicit false", `{"completed":false}`, Optional[string]{}, Some(false)},
		{"explicit empty title", `{"title":""}`, Some(""), Optional[bool]{}},
		{"null is absent", `{"title":null,"completed":null}`, Optional[string]{}, Optional[bool]{}},
		{"both", `{"title":"a","completed":true}`, Some("a"), Some(true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req UpdateTodoRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.wantTitle, req.Title)
			assert.Equal(t, tt.wantCompleted, req.Completed)
		})
	}
}

func TestUpdateTodoRequest_WrongType(t *testing.T) {
	var req UpdateTodoRequest
	assert.Error(t, json.Unmarshal([]byte(`{"completed":"yes"}`), &req))
}

func TestUpdateTodoRequest_EncodeOmitsAbsent(t *testing.T) {
	b, err := json.Marshal(UpdateTodoRequest{Completed: Some(false)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"completed":false}`, string(b))
}

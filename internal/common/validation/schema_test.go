package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const distanceSchema = `{
  "type": "object",
  "required": ["from", "to"],
  "properties": {
    "from": {"type": "string", "minLength": 1},
    "to":   {"type": "string", "minLength": 1}
  }
}`

func TestSchema_ValidateJSON(t *testing.T) {
	s, err := Compile("distance", distanceSchema)
	require.NoError(t, err)
	assert.Equal(t, "distance", s.Name())

	res := s.ValidateJSON(`{"from":"Miami, FL","to":"Atlanta, GA"}`)
	assert.True(t, res.Valid)
	assert.Empty(t, res.Error())

	res = s.ValidateJSON(`{"from":""}`)
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("from"))
	assert.Len(t, res.GetErrorsForField("from"), 1)
	assert.NotEmpty(t, res.Error())
	assert.Len(t, res.GetErrorMessages(), len(res.Errors))
}

func TestSchema_ValidateInput(t *testing.T) {
	s := MustCompile("distance", distanceSchema)

	res := s.ValidateInput(map[string]interface{}{"from": "Miami, FL", "to": 42})
	assert.False(t, res.Valid)
	assert.True(t, res.HasErrors("to"))
	assert.Equal(t, "INVALID_TYPE", res.GetErrorsForField("to")[0].Code)
}

func TestSchema_MalformedDocument(t *testing.T) {
	res := MustCompile("distance", distanceSchema).ValidateJSON(`{"from":`)
	assert.False(t, res.Valid)
	assert.Equal(t, "INVALID_JSON", res.Errors[0].Code)
}

func TestCompile_RejectsBadSchema(t *testing.T) {
	_, err := Compile("broken", `{"type": 12}`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile("broken", `{"type": 12}`) })
}

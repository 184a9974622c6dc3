package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title  string `json:"title" validate:"required"`
	Body   string `json:"body" validate:"required,max=10"`
	Hidden string `json:"-" validate:"omitempty,len=2"`
}

func TestStruct(t *testing.T) {
	require.NoError(t, Struct(sample{Title: "t", Body: "b"}))

	err := Struct(sample{Body: "much too long for this"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'title' failed 'required'")
	assert.Contains(t, err.Error(), "field 'body' failed 'max'")

	err = Struct(sample{Title: "t", Body: "b", Hidden: "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'Hidden' failed 'len'")
}

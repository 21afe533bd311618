package graph

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlreadyExistsError(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed")
	err := NewAlreadyExistsError(KindVertex, "1", "person", cause)

	assert.Equal(t, `ALREADY_EXISTS: vertex with id "1" already exists: UNIQUE constraint failed`, err.Error())
	assert.True(t, IsAlreadyExists(err))
	assert.False(t, IsUnroutable(err))
	assert.ErrorIs(t, err, cause)
}

func TestUnroutableError(t *testing.T) {
	err := NewUnroutableError(KindEdge, "e1", "likes")

	assert.Equal(t, `UNROUTABLE: no schema accepts edge with label "likes"`, err.Error())
	assert.True(t, IsUnroutable(err))
}

func TestInvalidElementError(t *testing.T) {
	err := NewInvalidElementError(KindVertex, "1", "person", errors.New(`missing required property "name"`))

	assert.True(t, IsInvalidElement(err))
	assert.Contains(t, err.Error(), "INVALID_ELEMENT")
}

func TestElementErrorWrapped(t *testing.T) {
	wrapped := fmt.Errorf("add vertex: %w", NewAlreadyExistsError(KindVertex, "7", "", nil))

	assert.True(t, IsAlreadyExists(wrapped))

	var ee *ElementError
	assert.True(t, errors.As(wrapped, &ee))
	assert.Equal(t, "7", ee.ID)
	assert.False(t, IsAlreadyExists(errors.New("plain")))
}

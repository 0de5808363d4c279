package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/memopack/memopack-go/pkg/core"
)

func TestPackErrorFormat(t *testing.T) {
	err := &core.PackError{Op: "Query", Err: core.ErrInvalidBudget}
	assert.Equal(t, "memopack: Query: invalid token budget", err.Error())
}

func TestPackErrorUnwrap(t *testing.T) {
	err := core.NewPackError("Query", core.ErrNoEmbedder)
	assert.ErrorIs(t, err, core.ErrNoEmbedder)

	var packErr *core.PackError
	assert.True(t, errors.As(err, &packErr))
	assert.Equal(t, "Query", packErr.Op)
}

func TestNewPackErrorNil(t *testing.T) {
	assert.NoError(t, core.NewPackError("Query", nil))
}

package tokencount_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopack/memopack-go/pkg/tokencount"
)

func TestEstimator(t *testing.T) {
	counter := tokencount.Estimator{}

	n, err := counter.Count("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = counter.Count("abcd")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Rounds up.
	n, err = counter.Count("abcde")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type failingCounter struct{}

func (failingCounter) Count(string) (int, error) {
	return 0, errors.New("encoding unavailable")
}

func TestWithFallback(t *testing.T) {
	counter := tokencount.WithFallback(failingCounter{}, tokencount.Estimator{})

	n, err := counter.Count("abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

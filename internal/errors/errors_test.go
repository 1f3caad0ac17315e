package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageMarksAndWraps(t *testing.T) {
	base := fmt.Errorf("disk full")
	err := Storage(base, "append records")

	assert.True(t, IsStorageError(err))
	assert.False(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "append records")
	assert.Contains(t, err.Error(), "disk full")

	wrapped := Wrap(err, "ingest f.csv")
	assert.True(t, IsStorageError(wrapped), "kind must survive further wrapping")
}

func TestStorageNil(t *testing.T) {
	assert.NoError(t, Storage(nil, "noop"))
}

func TestParsefAndInvalidRequestf(t *testing.T) {
	perr := Parsef("line %d: bad value %q", 3, "x")
	assert.True(t, IsParseError(perr))
	assert.Equal(t, `line 3: bad value "x"`, perr.Error())

	rerr := InvalidRequestf("minAverageValue: %s", "NaN")
	assert.True(t, IsInvalidRequestError(rerr))
	assert.False(t, IsParseError(rerr))
}

func TestNilChecks(t *testing.T) {
	assert.False(t, IsParseError(nil))
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsStorageError(nil))
	assert.False(t, IsInvalidRequestError(nil))
}

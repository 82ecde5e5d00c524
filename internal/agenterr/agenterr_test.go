package agenterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDriverErrorRateLimited(t *testing.T) {
	e := ClassifyDriverError(errors.New("429 Too Many Requests: rate limit exceeded"))
	assert.Equal(t, CategoryLLM, e.Category)
	assert.Equal(t, CodeRateLimited, e.Code)
	assert.True(t, e.Recoverable)
}

func TestClassifyDriverErrorInvalidAPIKey(t *testing.T) {
	e := ClassifyDriverError(errors.New("401 Unauthorized: invalid api key"))
	assert.Equal(t, CodeInvalidAPIKey, e.Code)
	assert.False(t, e.Recoverable)
	assert.Equal(t, SeverityFatal, e.Severity)
}

func TestClassifyDriverErrorUnknownFallsBack(t *testing.T) {
	e := ClassifyDriverError(errors.New("something bizarre happened"))
	assert.Equal(t, CategorySystem, e.Category)
	assert.Equal(t, CodeUnknown, e.Code)
}

func TestAgentBusyFixedShape(t *testing.T) {
	e := AgentBusy()
	assert.Equal(t, CategorySystem, e.Category)
	assert.Equal(t, CodeAgentBusy, e.Code)
	assert.False(t, e.Recoverable)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := New(CategoryDriver, CodeReceiveFailed, SeverityError, true, "receive failed", cause)
	assert.ErrorIs(t, e, cause)
}

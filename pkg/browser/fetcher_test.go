package browser

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyTolerate(t *testing.T) {
	timeout := &StepError{Step: "wait", Selector: ByID("MyTable"), Err: ErrTimeout}
	other := &StepError{Step: "navigate", Selector: ByCSS("html"), Err: errors.New("net::ERR_NAME_NOT_RESOLVED")}

	ctx := context.Background()

	assert.NoError(t, BestEffort.Tolerate(ctx, nil))
	assert.NoError(t, BestEffort.Tolerate(ctx, timeout))
	assert.NoError(t, BestEffort.Tolerate(ctx, fmt.Errorf("court 1: %w", timeout)))
	assert.ErrorIs(t, Strict.Tolerate(ctx, timeout), ErrTimeout)
	assert.Equal(t, other, BestEffort.Tolerate(ctx, other))
	assert.ErrorIs(t, BestEffort.Tolerate(ctx, fmt.Errorf("%w: gone", ErrSession)), ErrSession)
}

func TestStepErrorMessage(t *testing.T) {
	err := &StepError{Step: "wait", Selector: ByID("MyTable"), Diagnostic: "error-x-1.html", Err: ErrTimeout}
	assert.Equal(t, "wait id=MyTable: element did not appear in time (page saved to error-x-1.html)", err.Error())
	assert.Equal(t, "best-effort", BestEffort.String())
	assert.Equal(t, "strict", Strict.String())
	assert.Equal(t, "page-ready", PageReady.String())
}

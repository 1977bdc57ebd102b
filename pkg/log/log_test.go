package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithContext(context.Background(), zap.New(core).With(zap.String("run", "r1")))

	FromContext(ctx).Info("step")
	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "r1", entries[0].ContextMap()["run"])

	assert.NotNil(t, FromContext(context.Background()))
}

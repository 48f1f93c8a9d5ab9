package logger

import (
	"context"
	"syscall"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	custom := logr.Discard().WithName("custom")
	ctx := WithLogger(context.Background(), &custom)
	assert.Same(t, &custom, FromContext(ctx))
	assert.Equal(t, ctx, WithLogger(ctx, &custom))
}

func TestFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
}

func TestIsIgnorableSyncError(t *testing.T) {
	assert.True(t, isIgnorableSyncError(syscall.ENOTTY))
	assert.True(t, isIgnorableSyncError(syscall.EINVAL))
	assert.False(t, isIgnorableSyncError(syscall.ENOSPC))
}

func TestBadger(t *testing.T) {
	var lines []string
	log := funcr.New(func(prefix, args string) {
		lines = append(lines, prefix+" "+args)
	}, funcr.Options{Verbosity: 1})

	b := NewBadger(log)
	b.Infof("opened %d tables\n", 3)
	b.Debugf("hidden")
	b.Warningf("slow")
	b.Errorf("broken: %s", "disk")

	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], `"opened 3 tables"`)
	assert.Contains(t, lines[0], "badger")
	assert.Contains(t, lines[1], `"warning"`)
	assert.Contains(t, lines[2], "broken: disk")
}

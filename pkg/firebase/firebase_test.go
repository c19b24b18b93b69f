package firebase

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewAuthClient_RejectsMissingCredentials(t *testing.T) {
	ctx := context.Background()

	_, err := NewAuthClient(ctx, "", zap.NewNop())
	assert.ErrorIs(t, err, ErrNoCredentials)

	_, err = NewAuthClient(ctx, filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.json")

	_, err = NewAuthClient(ctx, t.TempDir(), zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_Executes(t *testing.T) {
	// Save and restore version
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	out, _, err := execute(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "docqa version test-version-1.0.0 (go")
}

func TestVersionCmd_Commit(t *testing.T) {
	original := commit
	commit = "abc1234"
	defer func() { commit = original }()

	out, _, err := execute(t, "", "version")

	require.NoError(t, err)
	assert.Contains(t, out, "(abc1234, go")
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	_, _, err := execute(t, "", "version", "extra")
	assert.Error(t, err)
}

func TestVersionCmd_SkipsBootstrap(t *testing.T) {
	called := false
	SetBootstrap(func(Options) (*Services, error) {
		called = true
		return &Services{}, nil
	})
	defer SetBootstrap(nil)

	_, _, err := execute(t, "", "version")

	require.NoError(t, err)
	assert.False(t, called)
}

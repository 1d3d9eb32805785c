package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/repofetch-go/internal/domain"
)

func TestRootCommand_Flags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	output := flags.Lookup("output")
	require.NotNil(t, output)
	assert.Equal(t, "o", output.Shorthand)
	assert.Equal(t, "", output.DefValue)

	timeout := flags.Lookup("timeout")
	require.NotNil(t, timeout)
	assert.Equal(t, "t", timeout.Shorthand)
	assert.Equal(t, "60", timeout.DefValue)

	retries := flags.Lookup("retries")
	require.NotNil(t, retries)
	assert.Equal(t, "r", retries.Shorthand)
	assert.Equal(t, "3", retries.DefValue)

	force := flags.Lookup("force")
	require.NotNil(t, force)
	assert.Equal(t, "f", force.Shorthand)
	assert.Equal(t, "false", force.DefValue)
}

func TestRootCommand_RequiresURLArgument(t *testing.T) {
	err := rootCmd.Args(rootCmd, []string{})
	assert.Error(t, err)

	err = rootCmd.Args(rootCmd, []string{"https://github.com/owner/repo"})
	assert.NoError(t, err)

	err = rootCmd.Args(rootCmd, []string{"one", "two"})
	assert.Error(t, err)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid url", domain.ErrInvalidURL, "invalid URL"},
		{"output exists", domain.ErrOutputExists, "output exists"},
		{"download", &domain.DownloadError{URL: "u", Attempts: 3, Err: assert.AnError}, "download failed"},
		{"extraction", &domain.ExtractionError{Archive: "a", Err: domain.ErrFolderNotFound}, "extraction failed"},
		{"other", assert.AnError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorKind(tt.err))
		})
	}
}

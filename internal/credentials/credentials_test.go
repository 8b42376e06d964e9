package credentials

import (
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const tokenFile = "/work/memory/connectors/huggingface/.env"

func TestResolver_Lookup(t *testing.T) {
	t.Run("should read the token from the connector file", func(t *testing.T) {
		// Arrange
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, tokenFile, []byte("# connector\nHUGGINGFACE_API_TOKEN= hf_file \nOTHER=1\n"), 0600))
		resolver := NewResolver(zap.NewNop(), fs, tokenFile, "hf_config")

		// Act
		token, err := resolver.Lookup()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "hf_file", token.Value)
		assert.Equal(t, tokenFile, token.Source)
	})

	t.Run("should fall back to the configured token", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		resolver := NewResolver(zap.NewNop(), fs, tokenFile, " hf_config ")

		token, err := resolver.Lookup()

		require.NoError(t, err)
		assert.Equal(t, "hf_config", token.Value)
		assert.Equal(t, "configuration", token.Source)
	})

	t.Run("should fall back when the file has no token", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, tokenFile, []byte("HUGGINGFACE_API_TOKEN=\n"), 0600))
		resolver := NewResolver(zap.NewNop(), fs, tokenFile, "hf_config")

		token, err := resolver.Lookup()

		require.NoError(t, err)
		assert.Equal(t, "hf_config", token.Value)
	})

	t.Run("should not mutate the process environment", func(t *testing.T) {
		t.Setenv(TokenKey, "")
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, tokenFile, []byte("HUGGINGFACE_API_TOKEN=hf_file\n"), 0600))

		_, err := NewResolver(zap.NewNop(), fs, tokenFile, "").Lookup()

		require.NoError(t, err)
		assert.Empty(t, os.Getenv(TokenKey))
	})

	t.Run("should report ErrAuthentication when nothing is configured", func(t *testing.T) {
		fs := afero.NewMemMapFs()

		_, err := NewResolver(zap.NewNop(), fs, tokenFile, "").Lookup()

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAuthentication)
		assert.Contains(t, err.Error(), TokenKey)
	})

	t.Run("should warn about a malformed connector file", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, tokenFile, []byte("HUGGINGFACE_API_TOKEN=\"hf_unterminated\n"), 0600))

		_, err := NewResolver(zap.New(core), fs, tokenFile, "").Lookup()

		assert.ErrorIs(t, err, ErrAuthentication)
		assert.Equal(t, 1, logs.FilterMessage("failed to read connector file").Len())
	})
}

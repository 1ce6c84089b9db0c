package domain_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hollowmc/hollow/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChecksum(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		algo, sum, err := domain.ParseChecksum("sha1:DA39A3EE5E6B4B0D3255BFEF95601890AFD80709")
		require.NoError(t, err)
		assert.Equal(t, domain.AlgoSHA1, algo)
		assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", sum)
	})

	t.Run("MissingAlgo", func(t *testing.T) {
		_, _, err := domain.ParseChecksum("deadbeef")
		require.ErrorIs(t, err, domain.ErrInvalidChecksum)
	})

	t.Run("UnknownAlgo", func(t *testing.T) {
		_, _, err := domain.ParseChecksum("crc32:deadbeef")
		require.ErrorIs(t, err, domain.ErrInvalidChecksum)
	})
}

func TestComputeChecksum(t *testing.T) {
	// Known sha256 of "hello".
	sum, err := domain.ComputeChecksum(strings.NewReader("hello"), domain.AlgoSHA256)
	require.NoError(t, err)
	assert.Equal(t, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", sum)
}

func TestVerifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact.jar")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	t.Run("Match", func(t *testing.T) {
		err := domain.VerifyFile(path, "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824")
		require.NoError(t, err)
	})

	t.Run("Mismatch", func(t *testing.T) {
		err := domain.VerifyFile(path, "sha256:"+strings.Repeat("0", 64))
		require.ErrorIs(t, err, domain.ErrIntegrityViolation)
	})

	t.Run("CaseInsensitiveHex", func(t *testing.T) {
		err := domain.VerifyFile(path, "sha256:2CF24DBA5FB0A30E26E83B2AC5B9E29E1B161E5C1FA7425E73043362938B9824")
		require.NoError(t, err)
	})
}

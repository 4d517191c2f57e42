package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credchain/internal/fingerprint"
)

func TestComputeFingerprintMatchesBinder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "degree.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 degree"), 0o600))

	fp, canonicalMeta, err := computeFingerprint(path, `{"year": 2025, "name": "Demo Student"}`)
	require.NoError(t, err)

	assert.Equal(t, `{"name":"Demo Student","year":2025}`, string(canonicalMeta))
	assert.Equal(t, fingerprint.Bind([]byte("%PDF-1.4 degree"), canonicalMeta), fp)
}

func TestComputeFingerprintErrors(t *testing.T) {
	_, _, err := computeFingerprint(filepath.Join(t.TempDir(), "missing.pdf"), "{}")
	assert.ErrorContains(t, err, "read document")

	path := filepath.Join(t.TempDir(), "doc")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	_, _, err = computeFingerprint(path, "{broken")
	assert.ErrorContains(t, err, "parse metadata")
}

func TestFingerprintCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc")
	require.NoError(t, os.WriteFile(path, []byte("doc"), 0o600))

	var out bytes.Buffer
	root := rootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"fingerprint", path})
	require.NoError(t, root.Execute())

	want := fingerprint.Bind([]byte("doc"), []byte("{}"))
	assert.True(t, strings.Contains(out.String(), want.Hex0x()), out.String())
	assert.Contains(t, out.String(), "metadata:    {}")
}

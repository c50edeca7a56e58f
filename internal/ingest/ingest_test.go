package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "guide.md", "# Onboarding Guide\n\nWelcome text.")
	writeFile(t, dir, "notes.txt", "plain notes")
	writeFile(t, dir, "sub/policy.md", "policy body without heading")
	writeFile(t, dir, "ignored.bin", "binary-ish")

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	// Sorted by DocID.
	assert.Equal(t, "guide", docs[0].DocID)
	assert.Equal(t, "notes", docs[1].DocID)
	assert.Equal(t, "sub/policy", docs[2].DocID)

	// Title from first heading, else filename stem.
	assert.Equal(t, "Onboarding Guide", docs[0].Title)
	assert.Equal(t, "notes", docs[1].Title)
	assert.Equal(t, "policy", docs[2].Title)

	assert.Equal(t, "plain notes", docs[1].Text)
}

func TestLoadDirSkipsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.md", "# Good\n\ntext")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.md"), []byte{0xff, 0xfe, 0x00}, 0644))

	docs, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "good", docs[0].DocID)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestDocID(t *testing.T) {
	assert.Equal(t, "guide", DocID("guide.md"))
	assert.Equal(t, "sub/policy", DocID(filepath.Join("sub", "policy.md")))
	assert.Equal(t, "my_notes", DocID("my notes.txt"))
}

func TestFingerprintStableAndSensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")
	writeFile(t, dir, "b.md", "beta")

	fp1, err := Fingerprint(dir)
	require.NoError(t, err)
	fp2, err := Fingerprint(dir)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)

	// A size change is detected even with the same mtime granularity.
	writeFile(t, dir, "a.md", "alpha grew longer")
	fp3, err := Fingerprint(dir)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp3)

	// A removed file is detected.
	require.NoError(t, os.Remove(filepath.Join(dir, "b.md")))
	fp4, err := Fingerprint(dir)
	require.NoError(t, err)
	assert.NotEqual(t, fp3, fp4)
}

func TestFingerprintIgnoresNonIndexableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "alpha")

	fp1, err := Fingerprint(dir)
	require.NoError(t, err)

	writeFile(t, dir, "junk.tmp", "not indexed")
	fp2, err := Fingerprint(dir)
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
}

func TestFingerprintDetectsTouch(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.md", "alpha")

	fp1, err := Fingerprint(dir)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, past, past))

	fp2, err := Fingerprint(dir)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)
}

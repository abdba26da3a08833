package deploy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAt(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestCompare(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	later := base.Add(time.Hour)

	testCases := []struct {
		name       string
		src        string
		srcTime    time.Time
		dst        *string
		dstTime    time.Time
		trustMTime bool
		want       Change
	}{
		{name: "destination missing", src: "abc", srcTime: base, want: Created},
		{name: "size differs", src: "abcd", srcTime: base, dst: ptr("abc"), dstTime: base, want: Resized},
		{name: "identical content, different mtime", src: "abc", srcTime: later, dst: ptr("abc"), dstTime: base, want: Unchanged},
		{name: "identical content, same mtime", src: "abc", srcTime: base, dst: ptr("abc"), dstTime: base, want: Unchanged},
		{name: "one byte differs, different mtime", src: "abc", srcTime: later, dst: ptr("abd"), dstTime: base, want: Modified},
		{name: "one byte differs, same mtime", src: "abc", srcTime: base, dst: ptr("abd"), dstTime: base, want: Modified},
		{name: "trusted mtime skips hashing", src: "abc", srcTime: base, dst: ptr("abd"), dstTime: base.Add(5 * time.Millisecond), trustMTime: true, want: Unchanged},
		{name: "trusted mtime beyond tolerance", src: "abc", srcTime: later, dst: ptr("abd"), dstTime: base, trustMTime: true, want: Modified},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "src.js")
			dst := filepath.Join(dir, "live", "dst.js")
			writeAt(t, src, tc.src, tc.srcTime)
			if tc.dst != nil {
				writeAt(t, dst, *tc.dst, tc.dstTime)
			}

			got, err := Compare(src, dst, 10*time.Millisecond, tc.trustMTime)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, "got %s", got)
		})
	}
}

func TestCompareMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := Compare(filepath.Join(dir, "nope"), filepath.Join(dir, "dst"), 0, false)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileMD5(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	sum, err := FileMD5(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)
}

func ptr(s string) *string { return &s }

func TestChangeString(t *testing.T) {
	assert.Equal(t, "unchanged", Unchanged.String())
	assert.Equal(t, "new", Created.String())
	assert.Equal(t, "resized", Resized.String())
	assert.Equal(t, "modified", Modified.String())
	assert.Equal(t, "unknown", Change(42).String())
}

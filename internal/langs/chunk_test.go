package langs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkShortCodeIsReturnedWhole(t *testing.T) {
	assert.Equal(t, []string{"tiny"}, Chunk("tiny", "}\n\n", 100, 10))
}

func TestChunkGroupsPartsUnderLimit(t *testing.T) {
	block := strings.Repeat("x", 30)
	code := strings.Join([]string{block, block, block, block}, "\n\n")
	chunks := Chunk(code, "\n\n", 70, 10)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 70)
		assert.Equal(t, block+"\n\n"+block, c)
	}
}

func TestChunkDropsTinyTrailer(t *testing.T) {
	code := strings.Repeat("a", 60) + "\n\n" + "b"
	chunks := Chunk(code, "\n\n", 61, 10)
	assert.Equal(t, []string{strings.Repeat("a", 60)}, chunks)
}

func TestChunkOversizedPartTakesFirstLineChunk(t *testing.T) {
	line := strings.Repeat("y", 40)
	big := strings.Join([]string{line, line, line, line}, "\n")
	chunks := Chunk(big, "}\n\n", 90, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, line+"\n"+line, chunks[0])
}

func TestDecodeSource(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8", []byte("héllo"), "héllo"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("import os")...), "import os"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'h', 0, 'i', 0}, "hi"},
		{"latin1", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"nfc", []byte("e\u0301"), "\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSource(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadSourceLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.py")
	require.NoError(t, os.WriteFile(path, []byte("import os\nimport sys"), 0o644))
	lines, err := ReadSourceLines(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"import os", "import sys"}, lines)

	_, err = ReadSourceLines(filepath.Join(t.TempDir(), "missing.py"))
	assert.Error(t, err)
}

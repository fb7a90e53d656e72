package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTextPlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.txt")
	assert.NoError(t, os.WriteFile(path, []byte("fee schedule: 5 euros"), 0644))

	loader := NewLoader()
	text, err := loader.ExtractText(path)

	assert.NoError(t, err)
	assert.Equal(t, "fee schedule: 5 euros", text)
}

func TestExtractTextMissingFile(t *testing.T) {
	loader := NewLoader()

	_, err := loader.ExtractText(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

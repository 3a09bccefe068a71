package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	groups := Groups{
		"world":   {"https://news.example.com/world", "https://other.example.org/"},
		"science": {"https://sci.example.net/"},
	}
	require.NoError(t, Save(path, groups))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, groups, got)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestNamesAndSeeds(t *testing.T) {
	g := Groups{
		"b": {"https://x/", "https://y/"},
		"a": {"https://y/", "https://z/"},
	}
	assert.Equal(t, []string{"a", "b"}, g.Names())
	assert.Equal(t, []string{"https://y/", "https://z/", "https://x/"}, g.Seeds())
}

package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryPushDeduplicatesAndMovesToFront(t *testing.T) {
	h := NewHistory(3, nil)
	h.Push("a")
	h.Push("b")
	h.Push("a")
	require.Equal(t, []string{"a", "b"}, h.List())
}

func TestHistoryPushTruncatesAtCapacity(t *testing.T) {
	h := NewHistory(2, nil)
	h.Push("a")
	h.Push("b")
	h.Push("c")
	require.Equal(t, []string{"c", "b"}, h.List())
}

func TestNewHistorySeedsOldestFirstFromDisk(t *testing.T) {
	h := NewHistory(5, []string{"oldest", "middle", "newest"})
	require.Equal(t, []string{"newest", "middle", "oldest"}, h.List())
}

func TestHistoryValidateDropsMissingPaths(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	h := NewHistory(5, nil)
	h.Push(filepath.Join(dir, "gone.txt"))
	h.Push(keep)
	h.Validate()
	require.Equal(t, []string{keep}, h.List())
}

func TestLoadWithMissingFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(filepath.Join(dir, "nonexistent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default().OutputWidth, s.Config().OutputWidth)
	require.Equal(t, Default().FontSize, s.Config().FontSize)
}

func TestSaveThenLoadRoundTripsConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	s := New(Default())
	s.SetFontSize(22)
	s.Sessions().Push("/tmp/a.vimix")
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 22, loaded.Config().FontSize)
	require.Equal(t, []string{"/tmp/a.vimix"}, loaded.Sessions().List())
}

func TestCleanResetsToDefaults(t *testing.T) {
	s := New(Default())
	s.SetFontSize(99)
	s.Sessions().Push("/tmp/whatever")

	s.Clean()

	require.Equal(t, Default().FontSize, s.Config().FontSize)
	require.Empty(t, s.Sessions().List())
}

func TestConfigReturnsIndependentCopy(t *testing.T) {
	s := New(Default())
	c := s.Config()
	c.FontSize = 1000
	require.NotEqual(t, 1000, s.Config().FontSize)
}

func TestSetFontSizeIsVisibleThroughConfig(t *testing.T) {
	s := New(Default())
	s.SetFontSize(18)
	require.Equal(t, 18, s.Config().FontSize)
}

package presets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/image-augmentor/core"
	apperrors "github.com/Skryldev/image-augmentor/errors"
)

func customOptions() core.Options {
	opts := core.DefaultOptions()
	opts.ResizeMin = 0.5
	opts.ResizeMax = 1.5
	opts.NoiseSigma = 3
	opts.WebPQuality = 70
	opts.StripEXIF = false
	return opts
}

// stores runs fn against every PresetStore implementation.
func stores(t *testing.T, fn func(t *testing.T, s core.PresetStore)) {
	t.Run("file", func(t *testing.T) {
		fn(t, NewFileStore(t.TempDir()))
	})
	t.Run("pebble", func(t *testing.T) {
		s, err := OpenPebble(filepath.Join(t.TempDir(), "db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})
}

func TestSaveLoad(t *testing.T) {
	stores(t, func(t *testing.T, s core.PresetStore) {
		require.NoError(t, s.Save("portrait", customOptions()))

		got, err := s.Load("portrait")
		require.NoError(t, err)
		assert.Equal(t, customOptions(), got)
	})
}

func TestSave_Overwrites(t *testing.T) {
	stores(t, func(t *testing.T, s core.PresetStore) {
		require.NoError(t, s.Save("p", core.DefaultOptions()))
		require.NoError(t, s.Save("p", customOptions()))

		got, err := s.Load("p")
		require.NoError(t, err)
		assert.Equal(t, 3.0, got.NoiseSigma)
	})
}

func TestLoad_NotFound(t *testing.T) {
	stores(t, func(t *testing.T, s core.PresetStore) {
		_, err := s.Load("missing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrPresetNotFound))
		assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
	})
}

func TestInvalidNames(t *testing.T) {
	stores(t, func(t *testing.T, s core.PresetStore) {
		for _, name := range []string{"", "  ", "a/b", `a\b`, "..", "."} {
			err := s.Save(name, core.DefaultOptions())
			assert.ErrorIs(t, err, apperrors.ErrInvalidPresetName, "name %q", name)
			_, err = s.Load(name)
			assert.ErrorIs(t, err, apperrors.ErrInvalidPresetName, "name %q", name)
		}
	})
}

func TestFileStore_Layout(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewFileStore(dir).Save("night", core.DefaultOptions()))

	raw, err := os.ReadFile(filepath.Join(dir, "night.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"resizeMin\": 0.9")
	assert.Contains(t, string(raw), "\"stripExif\": true")
}

func TestFileStore_ReadsCamelCaseFile(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "resizeMin": 0.8,
  "resizeMax": 1.2,
  "rotateMaxDeg": 10.0,
  "brightnessRange": 0.0,
  "contrastRange": 15.0,
  "noiseSigma": 2.5,
  "jpegQuality": 75,
  "webpQuality": 60,
  "stripExif": false
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.json"), []byte(content), 0o644))

	got, err := NewFileStore(dir).Load("legacy")
	require.NoError(t, err)
	assert.Equal(t, core.Options{
		ResizeMin: 0.8, ResizeMax: 1.2, RotateMaxDeg: 10, BrightnessRange: 0,
		ContrastRange: 15, NoiseSigma: 2.5, JPEGQuality: 75, WebPQuality: 60, StripEXIF: false,
	}, got)
}

func TestFileStore_Malformed(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"broken":  `{"resizeMin": `,
		"invalid": `{"resizeMin": 2, "resizeMax": 1}`,
	}
	for name, content := range cases {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644))
		_, err := NewFileStore(dir).Load(name)
		assert.ErrorIs(t, err, apperrors.ErrMalformedPreset, name)
	}
}

func TestFileStore_Unavailable(t *testing.T) {
	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, []byte("x"), 0o644))

	err := NewFileStore(filepath.Join(parent, "presets")).Save("p", core.DefaultOptions())
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
}

func TestPebbleStore_NamesAndClose(t *testing.T) {
	s, err := OpenPebble(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)

	require.NoError(t, s.Save("b", core.DefaultOptions()))
	require.NoError(t, s.Save("a", core.DefaultOptions()))

	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	require.NoError(t, s.Close())
	_, err = s.Load("a")
	assert.ErrorIs(t, err, apperrors.ErrStoreUnavailable)
	assert.NoError(t, s.Close())
}

func TestNames(t *testing.T) {
	stores(t, func(t *testing.T, s core.PresetStore) {
		names, err := s.Names()
		require.NoError(t, err)
		assert.Empty(t, names)

		require.NoError(t, s.Save("zoom", core.DefaultOptions()))
		require.NoError(t, s.Save("blur", customOptions()))

		names, err = s.Names()
		require.NoError(t, err)
		assert.Equal(t, []string{"blur", "zoom"}, names)
	})
}

func TestFileStore_NamesIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0o755))

	s := NewFileStore(dir)
	require.NoError(t, s.Save("keep", core.DefaultOptions()))

	names, err := s.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, names)
}

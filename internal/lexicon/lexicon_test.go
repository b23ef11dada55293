package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("reads both keyword files", func(t *testing.T) {
		loc := writeFile(t, "loc.json", `["판교오피스", "대회의실"]`)
		evt := writeFile(t, "evt.json", `["킥오프", "리뷰"]`)

		lex := Load(loc, evt)
		assert.Equal(t, []string{"판교오피스", "대회의실"}, lex.Location)
		assert.Equal(t, []string{"킥오프", "리뷰"}, lex.Event)
		// Place suffixes are always the built-in list.
		assert.Equal(t, defaultPlaceSuffixes(), lex.PlaceSuffixes)
	})

	t.Run("missing file falls back to defaults", func(t *testing.T) {
		lex := Load(filepath.Join(t.TempDir(), "nope.json"), "")
		assert.Equal(t, defaultLocationKeywords(), lex.Location)
		assert.Equal(t, defaultEventKeywords(), lex.Event)
	})

	t.Run("malformed file falls back to defaults", func(t *testing.T) {
		loc := writeFile(t, "loc.json", `{"not": "an array"}`)
		lex := Load(loc, "")
		assert.Equal(t, defaultLocationKeywords(), lex.Location)
	})

	t.Run("empty array falls back to defaults", func(t *testing.T) {
		loc := writeFile(t, "loc.json", `[]`)
		lex := Load(loc, "")
		assert.Equal(t, defaultLocationKeywords(), lex.Location)
	})

	t.Run("empty entries are dropped but order kept", func(t *testing.T) {
		loc := writeFile(t, "loc.json", `["둘째", "", "첫째"]`)
		lex := Load(loc, "")
		assert.Equal(t, []string{"둘째", "첫째"}, lex.Location)
	})
}

func TestPlaceLike(t *testing.T) {
	lex := Default()

	assert.True(t, lex.PlaceLike("2층 회의실"))
	assert.True(t, lex.PlaceLike("강남역"))
	assert.True(t, lex.PlaceLike("2번 출구"))
	assert.False(t, lex.PlaceLike("팀 정기 미팅"))
	assert.False(t, lex.PlaceLike(""))
}

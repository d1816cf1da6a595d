package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
	"arive-prompt-bot/internal/storage"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CATALOG_FILE", "")
	t.Setenv("LOG_LEVEL", "")

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenerate(t *testing.T) {
	out, err := execute(t, "", "generate", "-m", "MIDJOURNEY", "-s", "gender-count=woman-1", "-s", "aspect-ratio=ar-16-9")
	require.NoError(t, err)
	assert.Contains(t, out, "a woman")
	assert.Contains(t, out, "--ar 16:9")
}

func TestGenerateNothingSelected(t *testing.T) {
	_, err := execute(t, "", "generate")
	assert.ErrorIs(t, err, errNoPrompt)

	out, err := execute(t, "", "generate", "--json")
	require.NoError(t, err)
	assert.Equal(t, "null\n", out)
}

func TestGenerateRejectsUnknownModel(t *testing.T) {
	_, err := execute(t, "", "generate", "-m", "sdxl", "-s", "gender-count=woman-1")
	assert.ErrorContains(t, err, `unknown model "sdxl"`)
}

func TestGenerateThumbnailText(t *testing.T) {
	out, err := execute(t, "", "generate", "-m", "nanobanana-thumb", "-t", "衝撃@top-left")
	require.NoError(t, err)
	assert.Contains(t, out, "「衝撃」を上左に配置")
}

func TestGenerateFromStateFile(t *testing.T) {
	st := state.New(prompt.Midjourney, prompt.LanguageEN)
	st.Selection = prompt.Selection{"gender-count": {"man-1"}}
	data, err := json.Marshal(st)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	out, err := execute(t, "", "generate", "--state", path, "-f", "at dusk")
	require.NoError(t, err)
	assert.Contains(t, out, "a man")
	assert.Contains(t, out, "at dusk")

	out, err = execute(t, string(data), "generate", "--state", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "a man")
}

func TestGachaSeedIsDeterministic(t *testing.T) {
	args := []string{"gacha", "--mode", "background", "--seed", "42", "--exclude", "bg-weather:weather-rain"}
	first, err := execute(t, "", args...)
	require.NoError(t, err)
	second, err := execute(t, "", args...)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotContains(t, first, "weather-rain")
}

func TestGachaLock(t *testing.T) {
	out, err := execute(t, "", "gacha", "--seed", "3", "-s", "gender-count=women-2", "--lock", "gender-count", "--json")
	require.NoError(t, err)

	var got gachaOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"women-2"}, got.Selection["gender-count"])
	require.NotNil(t, got.Result)
}

func TestGachaThumbnailModel(t *testing.T) {
	_, err := execute(t, "", "gacha", "-m", "nanobanana-thumb")
	assert.ErrorContains(t, err, "not available")
}

func TestCatalogAndModels(t *testing.T) {
	out, err := execute(t, "", "catalog")
	require.NoError(t, err)
	assert.Contains(t, out, "gender-count")

	out, err = execute(t, "", "catalog", "aspect-ratio")
	require.NoError(t, err)
	assert.Contains(t, out, "ar-16-9")

	_, err = execute(t, "", "catalog", "nope")
	assert.Error(t, err)

	out, err = execute(t, "", "models")
	require.NoError(t, err)
	for _, m := range prompt.Models() {
		assert.Contains(t, out, string(m.ID))
	}
}

func TestEffects(t *testing.T) {
	out, err := execute(t, "", "effects", "--kind", "finishing")
	require.NoError(t, err)
	assert.Contains(t, out, "finish-fire-aura")

	out, err = execute(t, "", "effects", "prompt", "gold-emboss", "--partial", "SALE")
	require.NoError(t, err)
	assert.Contains(t, out, "「SALE」")

	_, err = execute(t, "", "effects", "prompt", "missing")
	assert.Error(t, err)
}

func TestFavorites(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "prompts.db"))

	out, err := execute(t, "", "favorites", "add", "portrait", "-s", "gender-count=woman-1")
	require.NoError(t, err)
	promptID := strings.TrimSpace(out)

	out, err = execute(t, "", "favorites", "add-effect", "sale", "gold-emboss", "--kind", "eyecandy", "--partial", "SALE")
	require.NoError(t, err)
	effectID := strings.TrimSpace(out)

	_, err = execute(t, "", "favorites", "add-effect", "sale", "gold-emboss")
	assert.Error(t, err)
	_, err = execute(t, "", "favorites", "add-effect", "aura", "gold-emboss", "--kind", "finishing")
	assert.Error(t, err)

	out, err = execute(t, "", "favorites", "list")
	require.NoError(t, err)
	assert.Contains(t, out, promptID)
	assert.Contains(t, out, "portrait")
	assert.NotContains(t, out, effectID)

	out, err = execute(t, "", "favorites", "list", "--kind", "eyecandy")
	require.NoError(t, err)
	assert.Contains(t, out, "gold-emboss")
	assert.Contains(t, out, "SALE")

	out, err = execute(t, "", "favorites", "list", "--kind", "eyecandy", "--owner", "someone-else")
	require.NoError(t, err)
	assert.NotContains(t, out, effectID)

	_, err = execute(t, "", "favorites", "rename", effectID, "big sale", "--kind", "eyecandy")
	require.NoError(t, err)
	_, err = execute(t, "", "favorites", "rm", promptID)
	require.NoError(t, err)
	_, err = execute(t, "", "favorites", "rm", promptID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	out, err = execute(t, "", "favorites", "list", "-k", "eyecandy")
	require.NoError(t, err)
	assert.Contains(t, out, "big sale")
}

func TestParseText(t *testing.T) {
	line, err := parseText("Big news@bottom-right")
	require.NoError(t, err)
	assert.Equal(t, prompt.TextLine{Text: "Big news", Vertical: prompt.Bottom, Horizontal: prompt.Right}, line)

	line, err = parseText("plain")
	require.NoError(t, err)
	assert.Equal(t, prompt.VCenter, line.Vertical)

	_, err = parseText("x@sideways")
	assert.Error(t, err)
}

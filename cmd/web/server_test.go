package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arive-prompt-bot/internal/catalog"
	"arive-prompt-bot/internal/effects"
	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
	"arive-prompt-bot/internal/storage"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.Options{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := newServer(serverOptions{
		Catalog: catalog.Default(),
		Effects: effects.Default(),
		Storage: db,
		Rand:    rand.New(rand.NewPCG(1, 2)),
	})
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path string, body any, client string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("content-type", "application/json")
	if client != "" {
		req.Header.Set(clientIDHeader, client)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestModelsAndCatalog(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/api/models", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	models := decode[modelsResponse](t, resp)
	assert.Len(t, models.Models, 7)
	assert.Len(t, models.Groups, 3)

	resp = do(t, ts, http.MethodGet, "/api/catalog?model=nanobanana-thumb", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	thumb := decode[catalogResponse](t, resp)
	require.Len(t, thumb.Groups, 1)
	assert.Equal(t, "thumbnail", thumb.Groups[0].ID)
	assert.NotEmpty(t, thumb.Groups[0].Categories)

	resp = do(t, ts, http.MethodGet, "/api/catalog", nil, "")
	regular := decode[catalogResponse](t, resp)
	var ids []string
	for _, g := range regular.Groups {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"person", "background", "texture", "common"}, ids)

	resp = do(t, ts, http.MethodGet, "/api/catalog?model=sdxl", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/models", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPrompt(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]any{
		"model":     "midjourney",
		"selection": map[string][]string{"gender-count": {"woman-1"}, "aspect-ratio": {"ar-16-9"}},
		"language":  "en",
	}
	resp := do(t, ts, http.MethodPost, "/api/prompt?record=true", body, "c1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[*prompt.Result](t, resp)
	require.NotNil(t, result)
	assert.Equal(t, "--ar 16:9", result.Parameters)
	assert.Contains(t, result.FullPrompt, "--ar 16:9")

	resp = do(t, ts, http.MethodGet, "/api/history", nil, "c1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decode[[]storage.HistoryEntry](t, resp)
	require.Len(t, history, 1)
	assert.Equal(t, result.FullPrompt, history[0].FullPrompt)

	// Only an aspect ratio yields no prompt.
	resp = do(t, ts, http.MethodPost, "/api/prompt", map[string]any{
		"model":     "midjourney",
		"selection": map[string][]string{"aspect-ratio": {"ar-16-9"}},
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Nil(t, decode[*prompt.Result](t, resp))

	resp = do(t, ts, http.MethodPost, "/api/prompt", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPromptAcceptsLegacyThumbnailText(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/prompt", map[string]any{
		"model":         "nanobanana-thumb",
		"selection":     map[string][]string{},
		"thumbnailText": map[string]any{"lines": []string{"今日", "限定"}, "lineCount": 2},
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[*prompt.Result](t, resp)
	require.NotNil(t, result)
	assert.Contains(t, result.FullPrompt, "「今日」を中央に")
	assert.Contains(t, result.FullPrompt, "「限定」を中央に")
}

func TestGacha(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPut, "/api/exclusions", exclusionsBody{Keys: []string{"age:age-child", "age:age-teen"}}, "c1")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for i := 0; i < 10; i++ {
		resp = do(t, ts, http.MethodPost, "/api/gacha", gachaRequest{
			Mode: "person",
			State: state.State{
				Model:     prompt.Midjourney,
				Selection: prompt.Selection{"hairstyle": {"hair-bob"}, "aspect-ratio": {"ar-1-1"}},
			},
			Locked: []string{"hairstyle"},
		}, "c1")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		st := decode[state.State](t, resp)
		assert.Equal(t, []string{"hair-bob"}, st.Selection["hairstyle"])
		assert.Equal(t, []string{"ar-1-1"}, st.Selection["aspect-ratio"])
		assert.NotEmpty(t, st.Selection["gender-count"])
		assert.NotContains(t, st.Selection["age"], "age-child")
		assert.NotContains(t, st.Selection["age"], "age-teen")
		assert.Equal(t, "person", st.ActiveMainGroup)
		require.NotNil(t, st.Result)
	}

	resp = do(t, ts, http.MethodPost, "/api/gacha", gachaRequest{Mode: "robot"}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/gacha", gachaRequest{
		Mode:  "person",
		State: state.New(prompt.NanobananaThumb, prompt.LanguageJA),
	}, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decode[apiError](t, resp).Error, "nanobanana-thumb")
}

func TestFavorites(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/api/favorites", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/favorites", favoriteRequest{
		Name:     "portrait",
		Snapshot: state.Snapshot{Model: prompt.Firefly, Selection: prompt.Selection{"age": {"age-20s"}}},
	}, "c1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	fav := decode[storage.Favorite](t, resp)

	resp = do(t, ts, http.MethodPut, "/api/favorites?id="+fav.ID, favoriteRequest{Name: "renamed"}, "c1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/favorites", nil, "c1")
	favs := decode[[]storage.Favorite](t, resp)
	require.Len(t, favs, 1)
	assert.Equal(t, "renamed", favs[0].Name)
	assert.Equal(t, prompt.Firefly, favs[0].Snapshot.Model)

	resp = do(t, ts, http.MethodGet, "/api/favorites", nil, "c2")
	assert.Empty(t, decode[[]storage.Favorite](t, resp))

	resp = do(t, ts, http.MethodDelete, "/api/favorites?id="+fav.ID, nil, "c1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, ts, http.MethodDelete, "/api/favorites?id="+fav.ID, nil, "c1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEffectFavorites(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodPost, "/api/favorites?kind=eyecandy", favoriteRequest{
		Name:   "sale",
		Effect: storage.EffectUse{EffectID: "gold-emboss", Scope: effects.ScopePartial, PartialText: "SALE"},
	}, "c1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	fav := decode[storage.EffectFavorite](t, resp)
	assert.NotEmpty(t, fav.Effect.Title)

	resp = do(t, ts, http.MethodPost, "/api/favorites?kind=finishing", favoriteRequest{
		Name:   "wrong kind",
		Effect: storage.EffectUse{EffectID: "gold-emboss"},
	}, "c1")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/favorites?kind=eyecandy", nil, "c1")
	favs := decode[[]storage.EffectFavorite](t, resp)
	require.Len(t, favs, 1)
	assert.Equal(t, "SALE", favs[0].Effect.PartialText)

	resp = do(t, ts, http.MethodGet, "/api/favorites", nil, "c1")
	assert.Empty(t, decode[[]storage.Favorite](t, resp))

	resp = do(t, ts, http.MethodPut, "/api/favorites?kind=eyecandy&id="+fav.ID, favoriteRequest{Name: "big sale"}, "c1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = do(t, ts, http.MethodDelete, "/api/favorites?kind=eyecandy&id="+fav.ID, nil, "c1")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, ts, http.MethodGet, "/api/favorites?kind=sparkles", nil, "c1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEffects(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, ts, http.MethodGet, "/api/effects?kind=finishing&category=glow", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[effectsResponse](t, resp)
	assert.Equal(t, effects.Finishing, list.Kind)
	assert.NotEmpty(t, list.Categories)
	for _, e := range list.Effects {
		assert.Equal(t, effects.Glow, e.Category)
	}

	resp = do(t, ts, http.MethodGet, "/api/effects?kind=sparkles", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, ts, http.MethodPost, "/api/effects/prompt", effectPromptRequest{
		Kind: effects.EyeCandy, ID: "gold-emboss", Scope: effects.ScopePartial, Target: "SALE",
	}, "c1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[effectPromptResponse](t, resp)
	assert.Contains(t, out.Prompt, "「SALE」")

	resp = do(t, ts, http.MethodGet, "/api/history?kind=eyecandy", nil, "c1")
	history := decode[[]storage.HistoryEntry](t, resp)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].Effect)
	assert.Equal(t, "gold-emboss", history[0].Effect.EffectID)

	resp = do(t, ts, http.MethodPost, "/api/effects/prompt", effectPromptRequest{Kind: effects.EyeCandy, ID: "nope"}, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

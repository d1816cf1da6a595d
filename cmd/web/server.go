package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"arive-prompt-bot/internal/catalog"
	"arive-prompt-bot/internal/effects"
	"arive-prompt-bot/internal/gacha"
	"arive-prompt-bot/internal/prompt"
	"arive-prompt-bot/internal/state"
	"arive-prompt-bot/internal/storage"
)

const (
	maxBodyBytes   = 1 << 20
	clientIDHeader = "X-Client-ID"
)

type serverOptions struct {
	Catalog *catalog.Catalog
	Effects *effects.Set
	Storage *storage.Store
	Rand    *rand.Rand
	Logger  *slog.Logger
}

type server struct {
	catalog *catalog.Catalog
	effects *effects.Set
	db      *storage.Store
	logger  *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

type apiError struct {
	Error string `json:"error"`
}

func newServer(opts serverOptions) *server {
	rng := opts.Rand
	if rng == nil {
		rng = gacha.NewRand()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &server{
		catalog: opts.Catalog,
		effects: opts.Effects,
		db:      opts.Storage,
		logger:  logger,
		rng:     rng,
	}
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/models", s.handleModels)
	mux.HandleFunc("/api/catalog", s.handleCatalog)
	mux.HandleFunc("/api/prompt", s.handlePrompt)
	mux.HandleFunc("/api/gacha", s.handleGacha)
	mux.HandleFunc("/api/favorites", s.handleFavorites)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/exclusions", s.handleExclusions)
	mux.HandleFunc("/api/effects", s.handleEffects)
	mux.HandleFunc("/api/effects/prompt", s.handleEffectPrompt)
	return mux
}

type modelsResponse struct {
	Models []prompt.Model      `json:"models"`
	Groups []prompt.ModelGroup `json:"groups"`
}

func (s *server) handleModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: prompt.Models(), Groups: prompt.ModelGroups()})
}

type catalogGroup struct {
	catalog.MainGroup
	Categories []catalog.Category `json:"categories"`
}

type catalogResponse struct {
	Model  prompt.ModelID `json:"model"`
	Groups []catalogGroup `json:"groups"`
}

func (s *server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	model := prompt.ModelID(strings.TrimSpace(r.URL.Query().Get("model")))
	if model == "" {
		model = prompt.Midjourney
	}
	if _, ok := prompt.LookupModel(model); !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "unknown model"})
		return
	}

	resp := catalogResponse{Model: model}
	for _, g := range s.catalog.MainGroups(prompt.ThumbnailOnly(model)) {
		resp.Groups = append(resp.Groups, catalogGroup{MainGroup: g, Categories: s.catalog.CategoriesByMain(g.ID)})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePrompt renders a posted builder state. The body is the state JSON;
// the response is the result or null. With ?record=true and a client id the
// rendered prompt is added to the client's history.
func (s *server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	var st state.State
	if err := decodeJSON(w, r, &st); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	st = s.reduce(st)

	if st.Result != nil && parseBool(r.URL.Query().Get("record")) {
		if who, ok := clientOwner(r); ok {
			snap := st.Snapshot()
			if _, err := s.db.AddHistory(r.Context(), storage.HistoryEntry{
				Owner:      who,
				Kind:       storage.KindPrompt,
				FullPrompt: st.Result.FullPrompt,
				Snapshot:   &snap,
			}); err != nil {
				s.logger.Error("add history failed", "err", err)
			}
		}
	}
	writeJSON(w, http.StatusOK, st.Result)
}

type gachaRequest struct {
	Mode   gacha.Mode  `json:"mode"`
	State  state.State `json:"state"`
	Locked []string    `json:"locked"`
	// Excluded is used when the request carries no client id.
	Excluded []string `json:"excluded"`
}

func (s *server) handleGacha(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	var req gachaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if req.Mode == "" {
		req.Mode = gacha.Person
	}
	if prompt.ThumbnailOnly(req.State.Model) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "gacha is not available for " + string(req.State.Model)})
		return
	}

	excluded := gacha.ParseKeys(req.Excluded)
	if who, ok := clientOwner(r); ok {
		stored, err := s.db.LoadExclusions(r.Context(), who)
		if err != nil {
			s.logger.Error("load exclusions failed", "err", err)
			writeJSON(w, http.StatusInternalServerError, apiError{Error: "storage error"})
			return
		}
		excluded = stored
	}

	s.rngMu.Lock()
	sel, err := gacha.Draw(s.catalog, s.rng, gacha.Request{
		Mode:     req.Mode,
		Current:  req.State.Selection,
		Locked:   req.Locked,
		Excluded: excluded,
	})
	s.rngMu.Unlock()
	if errors.Is(err, gacha.ErrUnknownMode) {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}

	st := s.reduce(req.State,
		state.ApplyGacha{Selection: sel},
		state.SetActiveMainGroup{Group: string(req.Mode)},
	)
	writeJSON(w, http.StatusOK, st)
}

type favoriteRequest struct {
	Name     string         `json:"name"`
	Snapshot state.Snapshot `json:"snapshot"`
	// Effect is read when ?kind= names an effect kind.
	Effect storage.EffectUse `json:"effect"`
}

// handleFavorites serves prompt favorites, or effect favorites when
// ?kind=eyecandy|finishing is given.
func (s *server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	who, ok := clientOwner(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing " + clientIDHeader})
		return
	}
	ctx := r.Context()
	id := strings.TrimSpace(r.URL.Query().Get("id"))

	if kindParam := r.URL.Query().Get("kind"); kindParam != "" && kindParam != string(storage.KindPrompt) {
		kind, err := effects.ParseKind(kindParam)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		s.handleEffectFavorites(w, r, who, kind, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		favs, err := s.db.ListFavorites(ctx, who)
		if err != nil {
			s.storageError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(favs))
	case http.MethodPost:
		var req favoriteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "name is required"})
			return
		}
		fav, err := s.db.AddFavorite(ctx, who, req.Name, req.Snapshot)
		if err != nil {
			s.storageError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, fav)
	case http.MethodPut:
		var req favoriteRequest
		if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "name is required"})
			return
		}
		if err := s.db.RenameFavorite(ctx, who, id, req.Name); err != nil {
			s.storageError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := s.db.RemoveFavorite(ctx, who, id); err != nil {
			s.storageError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	}
}

func (s *server) handleEffectFavorites(w http.ResponseWriter, r *http.Request, who string, kind effects.Kind, id string) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		favs, err := s.db.ListEffectFavorites(ctx, who, kind)
		if err != nil {
			s.storageError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(favs))
	case http.MethodPost:
		var req favoriteRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "name is required"})
			return
		}
		e, err := s.effects.Lookup(kind, req.Effect.EffectID)
		if err != nil {
			writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
			return
		}
		use := req.Effect
		use.Title = e.TitleJa
		if use.Scope != effects.ScopePartial {
			use.Scope = effects.ScopeAll
			use.PartialText = ""
		}
		fav, err := s.db.AddEffectFavorite(ctx, who, kind, req.Name, use)
		if err != nil {
			s.storageError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, fav)
	case http.MethodPut:
		var req favoriteRequest
		if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
			writeJSON(w, http.StatusBadRequest, apiError{Error: "name is required"})
			return
		}
		if err := s.db.RenameEffectFavorite(ctx, who, id, req.Name); err != nil {
			s.storageError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		if err := s.db.RemoveEffectFavorite(ctx, who, id); err != nil {
			s.storageError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	}
}

// handleHistory lists (GET ?kind=), deletes one (DELETE ?id=) or clears a
// kind (DELETE ?kind=).
func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	who, ok := clientOwner(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing " + clientIDHeader})
		return
	}
	ctx := r.Context()
	q := r.URL.Query()

	kind, err := storage.ParseHistoryKind(q.Get("kind"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	switch r.Method {
	case http.MethodGet:
		entries, err := s.db.ListHistory(ctx, who, kind)
		if err != nil {
			s.storageError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(entries))
	case http.MethodDelete:
		if id := strings.TrimSpace(q.Get("id")); id != "" {
			err = s.db.RemoveHistory(ctx, who, id)
		} else {
			err = s.db.ClearHistory(ctx, who, kind)
		}
		if err != nil {
			s.storageError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	}
}

type exclusionsBody struct {
	Keys []string `json:"keys"`
}

func (s *server) handleExclusions(w http.ResponseWriter, r *http.Request) {
	who, ok := clientOwner(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "missing " + clientIDHeader})
		return
	}

	switch r.Method {
	case http.MethodGet:
		ex, err := s.db.LoadExclusions(r.Context(), who)
		if err != nil {
			s.storageError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exclusionsBody{Keys: nonNil(ex.Keys())})
	case http.MethodPut:
		var body exclusionsBody
		if err := decodeJSON(w, r, &body); err != nil {
			writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
			return
		}
		ex := gacha.ParseKeys(body.Keys)
		if err := s.db.SaveExclusions(r.Context(), who, ex); err != nil {
			s.storageError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exclusionsBody{Keys: nonNil(ex.Keys())})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
	}
}

type effectView struct {
	effects.Effect
	Category effects.Category `json:"category"`
}

type effectsResponse struct {
	Kind       effects.Kind           `json:"kind"`
	Categories []effects.CategoryInfo `json:"categories"`
	Effects    []effectView           `json:"effects"`
}

func (s *server) handleEffects(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	q := r.URL.Query()
	kindParam := q.Get("kind")
	if kindParam == "" {
		kindParam = string(effects.EyeCandy)
	}
	kind, err := effects.ParseKind(kindParam)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	list := s.effects.List(kind)
	if category := q.Get("category"); category != "" {
		list = s.effects.Filter(kind, effects.Category(category))
	}

	resp := effectsResponse{Kind: kind, Categories: effects.Categories(kind), Effects: []effectView{}}
	for _, e := range list {
		resp.Effects = append(resp.Effects, effectView{Effect: e, Category: effects.Classify(kind, e)})
	}
	writeJSON(w, http.StatusOK, resp)
}

type effectPromptRequest struct {
	Kind   effects.Kind  `json:"kind"`
	ID     string        `json:"id"`
	Scope  effects.Scope `json:"scope"`
	Target string        `json:"target"`
}

type effectPromptResponse struct {
	Prompt string `json:"prompt"`
}

func (s *server) handleEffectPrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Error: "method not allowed"})
		return
	}

	var req effectPromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	kind, err := effects.ParseKind(string(req.Kind))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	e, err := s.effects.Lookup(kind, req.ID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
		return
	}
	if req.Scope != effects.ScopePartial {
		req.Scope = effects.ScopeAll
	}

	text := effects.BuildPrompt(e, req.Scope, req.Target)

	if who, ok := clientOwner(r); ok {
		historyKind := storage.KindEyeCandy
		if kind == effects.Finishing {
			historyKind = storage.KindFinishing
		}
		if _, err := s.db.AddHistory(r.Context(), storage.HistoryEntry{
			Owner:      who,
			Kind:       historyKind,
			FullPrompt: text,
			Effect: &storage.EffectUse{
				EffectID:    e.ID,
				Title:       e.TitleJa,
				Scope:       req.Scope,
				PartialText: strings.TrimSpace(req.Target),
			},
		}); err != nil {
			s.logger.Error("add history failed", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, effectPromptResponse{Prompt: text})
}

// reduce normalizes a client-supplied state before applying actions.
// Unknown models fall back to Midjourney.
func (s *server) reduce(st state.State, actions ...state.Action) state.State {
	if _, ok := prompt.LookupModel(st.Model); !ok {
		st.Model = prompt.Midjourney
	}
	return state.Reduce(s.catalog, st, append([]state.Action{state.Normalize{}}, actions...)...)
}

func (s *server) storageError(w http.ResponseWriter, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, apiError{Error: "not found"})
		return
	}
	s.logger.Error("storage failed", "err", err)
	writeJSON(w, http.StatusInternalServerError, apiError{Error: "storage error"})
}

func clientOwner(r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.Header.Get(clientIDHeader))
	if id == "" || len(id) > 128 {
		return "", false
	}
	return "web:" + id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return errors.New("invalid json: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

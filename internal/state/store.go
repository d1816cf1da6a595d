package state

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"arive-prompt-bot/internal/catalog"
	"arive-prompt-bot/internal/prompt"
)

type Options struct {
	Catalog         prompt.Catalog
	TTL             time.Duration
	DefaultModel    prompt.ModelID
	DefaultLanguage prompt.Language
	Logger          *slog.Logger
}

// Store keeps one State per (chat, user) and forgets idle ones after TTL.
type Store struct {
	mu       sync.Mutex
	items    *cache.Cache
	catalog  prompt.Catalog
	model    prompt.ModelID
	language prompt.Language
	log      *slog.Logger
}

func NewStore(opts Options) *Store {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	model := opts.DefaultModel
	if _, ok := prompt.LookupModel(model); !ok {
		model = prompt.Midjourney
	}
	c := opts.Catalog
	if c == nil {
		c = catalog.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	// Expired entries are swept by Run, not by a cache janitor.
	items := cache.New(ttl, 0)
	items.OnEvicted(func(key string, _ interface{}) {
		logger.Debug("state expired", "key", key)
	})

	return &Store{
		items:    items,
		catalog:  c,
		model:    model,
		language: prompt.ParseLanguage(string(opts.DefaultLanguage)),
		log:      logger,
	}
}

func (s *Store) Catalog() prompt.Catalog {
	return s.catalog
}

func (s *Store) Get(chatID, userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.getOrCreateLocked(key(chatID, userID)).clone()
}

// Dispatch reduces the stored state with actions and stores the result.
func (s *Store) Dispatch(chatID, userID int64, actions ...Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(chatID, userID)
	next := Reduce(s.catalog, s.getOrCreateLocked(k), actions...)
	next.UpdatedAt = time.Now()
	s.items.SetDefault(k, next)
	return next.clone()
}

// Update edits chat bookkeeping. The prompt is not recomputed.
func (s *Store) Update(chatID, userID int64, fn func(*Chat)) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(chatID, userID)
	st := s.getOrCreateLocked(k).clone()
	if fn != nil {
		fn(&st.Chat)
	}
	st.UpdatedAt = time.Now()
	s.items.SetDefault(k, st)
	return st.clone()
}

func (s *Store) Reset(chatID, userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(chatID, userID)
	st := s.fresh()
	s.items.SetDefault(k, st)
	s.log.Debug("state reset", "key", k)
	return st.clone()
}

func (s *Store) Len() int {
	return s.items.ItemCount()
}

// Run sweeps expired states every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.items.DeleteExpired()
		}
	}
}

func (s *Store) getOrCreateLocked(k string) State {
	if v, ok := s.items.Get(k); ok {
		if st, ok := v.(State); ok {
			return st
		}
	}
	st := s.fresh()
	s.items.SetDefault(k, st)
	return st
}

func (s *Store) fresh() State {
	st := Reduce(s.catalog, New(s.model, s.language), Normalize{})
	st.UpdatedAt = time.Now()
	return st
}

func key(chatID, userID int64) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.FormatInt(userID, 10)
}

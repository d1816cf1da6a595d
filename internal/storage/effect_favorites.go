package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"arive-prompt-bot/internal/effects"
)

// EffectFavorite is a named eye-candy or finishing effect setup.
type EffectFavorite struct {
	ID        string       `json:"id"`
	Owner     string       `json:"-"`
	Kind      effects.Kind `json:"kind"`
	Name      string       `json:"name"`
	Effect    EffectUse    `json:"effect"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (s *Store) AddEffectFavorite(ctx context.Context, owner string, kind effects.Kind, name string, use EffectUse) (EffectFavorite, error) {
	kind, err := effects.ParseKind(string(kind))
	if err != nil {
		return EffectFavorite{}, fmt.Errorf("add effect favorite: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return EffectFavorite{}, errors.New("add effect favorite: empty name")
	}
	if use.EffectID == "" {
		return EffectFavorite{}, errors.New("add effect favorite: empty effect id")
	}
	if use.Scope == "" {
		use.Scope = effects.ScopeAll
	}
	body, err := json.Marshal(use)
	if err != nil {
		return EffectFavorite{}, fmt.Errorf("add effect favorite: %w", err)
	}

	fav := EffectFavorite{
		ID:        uuid.NewString(),
		Owner:     owner,
		Kind:      kind,
		Name:      name,
		Effect:    use,
		CreatedAt: s.now(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO effect_favorites (id, owner, kind, name, effect, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		fav.ID, owner, string(kind), fav.Name, string(body), formatTime(fav.CreatedAt),
	)
	if err != nil {
		return EffectFavorite{}, fmt.Errorf("add effect favorite: %w", err)
	}
	s.log.Debug("effect favorite added", "owner", owner, "kind", kind, "id", fav.ID)
	return fav, nil
}

// ListEffectFavorites returns the owner's favorites of kind, oldest first.
func (s *Store) ListEffectFavorites(ctx context.Context, owner string, kind effects.Kind) ([]EffectFavorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, kind, name, effect, created_at FROM effect_favorites
		WHERE owner = ? AND kind = ? ORDER BY seq`, owner, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list effect favorites: %w", err)
	}
	defer rows.Close()

	var out []EffectFavorite
	for rows.Next() {
		fav, err := scanEffectFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("list effect favorites: %w", err)
		}
		out = append(out, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list effect favorites: %w", err)
	}
	return out, nil
}

func (s *Store) GetEffectFavorite(ctx context.Context, owner, id string) (EffectFavorite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner, kind, name, effect, created_at FROM effect_favorites WHERE owner = ? AND id = ?`, owner, id)
	fav, err := scanEffectFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return EffectFavorite{}, fmt.Errorf("effect favorite %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return EffectFavorite{}, fmt.Errorf("get effect favorite: %w", err)
	}
	return fav, nil
}

func (s *Store) RemoveEffectFavorite(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM effect_favorites WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("remove effect favorite: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("remove effect favorite %s: %w", id, err)
	}
	return nil
}

func (s *Store) RenameEffectFavorite(ctx context.Context, owner, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("rename effect favorite: empty name")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE effect_favorites SET name = ? WHERE owner = ? AND id = ?`, name, owner, id)
	if err != nil {
		return fmt.Errorf("rename effect favorite: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("rename effect favorite %s: %w", id, err)
	}
	return nil
}

func scanEffectFavorite(r scanner) (EffectFavorite, error) {
	var (
		fav       EffectFavorite
		kind      string
		body      string
		createdAt string
	)
	if err := r.Scan(&fav.ID, &fav.Owner, &kind, &fav.Name, &body, &createdAt); err != nil {
		return EffectFavorite{}, err
	}
	if err := json.Unmarshal([]byte(body), &fav.Effect); err != nil {
		return EffectFavorite{}, fmt.Errorf("decode effect: %w", err)
	}
	fav.Kind = effects.Kind(kind)
	fav.CreatedAt = parseTime(createdAt)
	return fav, nil
}

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

	"arive-prompt-bot/internal/state"
)

type Favorite struct {
	ID        string         `json:"id"`
	Owner     string         `json:"-"`
	Name      string         `json:"name"`
	Snapshot  state.Snapshot `json:"snapshot"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (s *Store) AddFavorite(ctx context.Context, owner, name string, snap state.Snapshot) (Favorite, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Favorite{}, errors.New("add favorite: empty name")
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return Favorite{}, fmt.Errorf("add favorite: %w", err)
	}

	fav := Favorite{
		ID:        uuid.NewString(),
		Owner:     owner,
		Name:      name,
		Snapshot:  snap,
		CreatedAt: s.now(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO favorites (id, owner, name, snapshot, created_at) VALUES (?, ?, ?, ?, ?)`,
		fav.ID, owner, fav.Name, string(body), formatTime(fav.CreatedAt),
	)
	if err != nil {
		return Favorite{}, fmt.Errorf("add favorite: %w", err)
	}
	s.log.Debug("favorite added", "owner", owner, "id", fav.ID)
	return fav, nil
}

// ListFavorites returns the owner's favorites oldest first.
func (s *Store) ListFavorites(ctx context.Context, owner string) ([]Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner, name, snapshot, created_at FROM favorites WHERE owner = ? ORDER BY seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var out []Favorite
	for rows.Next() {
		fav, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("list favorites: %w", err)
		}
		out = append(out, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return out, nil
}

func (s *Store) GetFavorite(ctx context.Context, owner, id string) (Favorite, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner, name, snapshot, created_at FROM favorites WHERE owner = ? AND id = ?`, owner, id)
	fav, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Favorite{}, fmt.Errorf("favorite %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Favorite{}, fmt.Errorf("get favorite: %w", err)
	}
	return fav, nil
}

func (s *Store) RemoveFavorite(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("remove favorite %s: %w", id, err)
	}
	return nil
}

func (s *Store) RenameFavorite(ctx context.Context, owner, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("rename favorite: empty name")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE favorites SET name = ? WHERE owner = ? AND id = ?`, name, owner, id)
	if err != nil {
		return fmt.Errorf("rename favorite: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("rename favorite %s: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFavorite(r scanner) (Favorite, error) {
	var (
		fav       Favorite
		snapshot  string
		createdAt string
	)
	if err := r.Scan(&fav.ID, &fav.Owner, &fav.Name, &snapshot, &createdAt); err != nil {
		return Favorite{}, err
	}
	if err := json.Unmarshal([]byte(snapshot), &fav.Snapshot); err != nil {
		return Favorite{}, fmt.Errorf("decode snapshot: %w", err)
	}
	fav.CreatedAt = parseTime(createdAt)
	return fav, nil
}

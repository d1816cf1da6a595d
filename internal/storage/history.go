package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"arive-prompt-bot/internal/effects"
	"arive-prompt-bot/internal/state"
)

type HistoryKind string

const (
	KindPrompt    HistoryKind = "prompt"
	KindEyeCandy  HistoryKind = "eyecandy"
	KindFinishing HistoryKind = "finishing"
)

func ParseHistoryKind(s string) (HistoryKind, error) {
	switch k := HistoryKind(s); k {
	case KindPrompt, KindEyeCandy, KindFinishing:
		return k, nil
	case "":
		return KindPrompt, nil
	}
	return "", fmt.Errorf("unknown history kind %q", s)
}

type EffectUse struct {
	EffectID    string        `json:"effectId"`
	Title       string        `json:"title"`
	Scope       effects.Scope `json:"scope"`
	PartialText string        `json:"partialText,omitempty"`
}

// HistoryEntry is one generated prompt. Prompt entries carry the Snapshot
// that produced them; effect entries carry the Effect.
type HistoryEntry struct {
	ID         string          `json:"id"`
	Owner      string          `json:"-"`
	Kind       HistoryKind     `json:"kind"`
	FullPrompt string          `json:"fullPrompt"`
	Snapshot   *state.Snapshot `json:"snapshot,omitempty"`
	Effect     *EffectUse      `json:"effect,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type historyPayload struct {
	Snapshot *state.Snapshot `json:"snapshot,omitempty"`
	Effect   *EffectUse      `json:"effect,omitempty"`
}

// AddHistory records e as the newest entry and drops entries beyond the
// history limit for the same owner and kind.
func (s *Store) AddHistory(ctx context.Context, e HistoryEntry) (HistoryEntry, error) {
	switch e.Kind {
	case KindPrompt, KindEyeCandy, KindFinishing:
	default:
		return HistoryEntry{}, fmt.Errorf("add history: unknown kind %q", e.Kind)
	}
	payload, err := json.Marshal(historyPayload{Snapshot: e.Snapshot, Effect: e.Effect})
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("add history: %w", err)
	}

	e.ID = uuid.NewString()
	e.CreatedAt = s.now()

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history (id, owner, kind, full_prompt, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			e.ID, e.Owner, string(e.Kind), e.FullPrompt, string(payload), formatTime(e.CreatedAt),
		); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM history WHERE owner = ? AND kind = ? AND seq NOT IN (
				SELECT seq FROM history WHERE owner = ? AND kind = ? ORDER BY seq DESC LIMIT ?
			)`,
			e.Owner, string(e.Kind), e.Owner, string(e.Kind), s.historyLimit,
		)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			s.log.Debug("history trimmed", "owner", e.Owner, "kind", e.Kind, "dropped", n)
		}
		return nil
	})
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("add history: %w", err)
	}
	return e, nil
}

const historyColumns = `id, owner, kind, full_prompt, payload, created_at`

// ListHistory returns entries newest first.
func (s *Store) ListHistory(ctx context.Context, owner string, kind HistoryKind) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE owner = ? AND kind = ? ORDER BY seq DESC`,
		owner, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("list history: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return out, nil
}

func (s *Store) GetHistory(ctx context.Context, owner, id string) (HistoryEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM history WHERE owner = ? AND id = ?`, owner, id)
	e, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return HistoryEntry{}, fmt.Errorf("history %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return HistoryEntry{}, fmt.Errorf("get history: %w", err)
	}
	return e, nil
}

func (s *Store) RemoveHistory(ctx context.Context, owner, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("remove history: %w", err)
	}
	if err := affected(res); err != nil {
		return fmt.Errorf("remove history %s: %w", id, err)
	}
	return nil
}

func (s *Store) ClearHistory(ctx context.Context, owner string, kind HistoryKind) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM history WHERE owner = ? AND kind = ?`, owner, string(kind)); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

func scanHistory(r scanner) (HistoryEntry, error) {
	var (
		e         HistoryEntry
		kind      string
		payload   string
		createdAt string
	)
	if err := r.Scan(&e.ID, &e.Owner, &kind, &e.FullPrompt, &payload, &createdAt); err != nil {
		return HistoryEntry{}, err
	}
	var p historyPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return HistoryEntry{}, fmt.Errorf("decode %s: %w", e.ID, err)
	}
	e.Kind = HistoryKind(kind)
	e.Snapshot = p.Snapshot
	e.Effect = p.Effect
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

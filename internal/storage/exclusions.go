package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"arive-prompt-bot/internal/gacha"
)

// SaveExclusions replaces the owner's stored exclusion set.
func (s *Store) SaveExclusions(ctx context.Context, owner string, ex gacha.Exclusions) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM exclusions WHERE owner = ?`, owner); err != nil {
			return err
		}
		for _, key := range ex.Keys() {
			categoryID, optionID, _ := strings.Cut(key, ":")
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO exclusions (owner, category_id, option_id) VALUES (?, ?, ?)`,
				owner, categoryID, optionID,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save exclusions: %w", err)
	}
	return nil
}

// LoadExclusions returns an empty set for owners with nothing stored.
func (s *Store) LoadExclusions(ctx context.Context, owner string) (gacha.Exclusions, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, option_id FROM exclusions WHERE owner = ? ORDER BY rowid`, owner)
	if err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}
	defer rows.Close()

	ex := gacha.Exclusions{}
	for rows.Next() {
		var categoryID, optionID string
		if err := rows.Scan(&categoryID, &optionID); err != nil {
			return nil, fmt.Errorf("load exclusions: %w", err)
		}
		ex[categoryID] = append(ex[categoryID], optionID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}
	return ex, nil
}

package database

import (
	"context"
	"fmt"
)

// View preferences persist per user and project: view mode, panel-open flags.
// Free-form string keys, the server does not interpret them.

func (s *Store) SetViewPref(ctx context.Context, userID, projectID, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO view_prefs (user_id, project_id, pref_key, pref_value) VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, project_id, pref_key) DO UPDATE SET pref_value = excluded.pref_value`,
		userID, projectID, key, value)
	if err != nil {
		return fmt.Errorf("failed to upsert view pref: %w", err)
	}
	return nil
}

func (s *Store) GetViewPrefs(ctx context.Context, userID, projectID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pref_key, pref_value FROM view_prefs WHERE user_id = ? AND project_id = ?`,
		userID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query view prefs: %w", err)
	}
	defer rows.Close()

	prefs := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan view pref: %w", err)
		}
		prefs[k] = v
	}
	return prefs, rows.Err()
}

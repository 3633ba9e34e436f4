package agents

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zapdeck/zapdeck/internal/domain"
)

// ViewRepository persists agent views to the agent_views table in app.db.
// One row per view, the agent list stored as a JSON blob.
type ViewRepository struct {
	db *sql.DB
}

// NewViewRepository creates a view repository over app.db.
func NewViewRepository(db *sql.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

// Save upserts the view state.
func (r *ViewRepository) Save(view string, state ViewState) error {
	data, err := json.Marshal(state.Agents)
	if err != nil {
		return fmt.Errorf("failed to marshal agent view %s: %w", view, err)
	}
	_, err = r.db.Exec(`
		INSERT INTO agent_views (view, data, message, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(view) DO UPDATE SET
			data = excluded.data,
			message = excluded.message,
			updated_at = excluded.updated_at`,
		view, string(data), state.Message, state.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save agent view %s: %w", view, err)
	}
	return nil
}

// Load returns the stored view state, or nil when the view was never saved.
func (r *ViewRepository) Load(view string) (*ViewState, error) {
	var data, message string
	var updatedAt int64
	err := r.db.QueryRow(
		"SELECT data, message, updated_at FROM agent_views WHERE view = ?", view,
	).Scan(&data, &message, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load agent view %s: %w", view, err)
	}

	state := &ViewState{
		Agents:    []domain.Agent{},
		Message:   message,
		UpdatedAt: time.Unix(updatedAt, 0).UTC(),
	}
	if err := json.Unmarshal([]byte(data), &state.Agents); err != nil {
		return nil, fmt.Errorf("failed to decode agent view %s: %w", view, err)
	}
	if state.Agents == nil {
		state.Agents = []domain.Agent{}
	}
	return state, nil
}

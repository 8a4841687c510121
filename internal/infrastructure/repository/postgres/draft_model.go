package postgres

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
)

const draftsTable = "drafts"

var draftColumns = []string{"id", "status", "format", "version", "snapshot", "created_at", "updated_at"}

type draftTableModel struct {
	ID        string    `db:"id"`
	Status    string    `db:"status"`
	Format    string    `db:"format"`
	Version   int64     `db:"version"`
	Snapshot  []byte    `db:"snapshot"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// draftInsertModel carries the snapshot as text; lib/pq would send []byte as
// bytea, which jsonb rejects.
type draftInsertModel struct {
	ID       string `db:"id"`
	Status   string `db:"status"`
	Format   string `db:"format"`
	Version  int64  `db:"version"`
	Snapshot string `db:"snapshot"`
}

func encodeDraftSnapshot(d draft.Draft) (string, error) {
	raw, err := sonic.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode draft %s snapshot: %w", d.ID, err)
	}
	return string(raw), nil
}

func draftFromRow(row draftTableModel) (draft.Draft, error) {
	var d draft.Draft
	if err := sonic.Unmarshal(row.Snapshot, &d); err != nil {
		return draft.Draft{}, fmt.Errorf("decode draft %s snapshot: %w", row.ID, err)
	}
	if d.ID != row.ID {
		return draft.Draft{}, fmt.Errorf("draft snapshot id mismatch: row=%s snapshot=%s", row.ID, d.ID)
	}
	return d, nil
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/card-draft/internal/domain/draft"
	qb "github.com/riskibarqy/card-draft/internal/platform/querybuilder"
)

// DraftRepository stores each draft as one JSONB snapshot row guarded by a
// version column.
type DraftRepository struct {
	db *sqlx.DB
}

func NewDraftRepository(db *sqlx.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) Create(ctx context.Context, d draft.Draft) error {
	snapshot, err := encodeDraftSnapshot(d)
	if err != nil {
		return err
	}

	query, args, err := qb.InsertModel(draftsTable, draftInsertModel{
		ID:       d.ID,
		Status:   string(d.Status),
		Format:   string(d.Format()),
		Version:  draft.InitialVersion,
		Snapshot: snapshot,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert draft query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("draft %s already exists: %w", d.ID, err)
		}
		return fmt.Errorf("insert draft: %w", err)
	}
	return nil
}

func (r *DraftRepository) Get(ctx context.Context, id string) (draft.Draft, int64, bool, error) {
	query, args, err := qb.Select(draftColumns...).
		From(draftsTable).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return draft.Draft{}, 0, false, fmt.Errorf("build get draft query: %w", err)
	}

	var row draftTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return draft.Draft{}, 0, false, nil
		}
		return draft.Draft{}, 0, false, fmt.Errorf("get draft: %w", err)
	}

	d, err := draftFromRow(row)
	if err != nil {
		return draft.Draft{}, 0, false, err
	}
	return d, row.Version, true, nil
}

// CompareAndSwap reports false when no row matched id and expectedVersion,
// which covers both a concurrent write and a missing draft.
func (r *DraftRepository) CompareAndSwap(ctx context.Context, d draft.Draft, expectedVersion int64) (bool, error) {
	snapshot, err := encodeDraftSnapshot(d)
	if err != nil {
		return false, err
	}

	query, args, err := draftSwapQuery(d, snapshot, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("build update draft query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update draft: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read affected rows for draft %s: %w", d.ID, err)
	}

	return affected == 1, nil
}

// draftSwapQuery bumps the version in the same statement that checks it, so
// two writers holding the same version cannot both succeed.
func draftSwapQuery(d draft.Draft, snapshot string, expectedVersion int64) (string, []any, error) {
	return qb.Update(draftsTable).
		Set("snapshot", snapshot).
		Set("status", string(d.Status)).
		SetExpr("version", "version + 1").
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", d.ID), qb.Eq("version", expectedVersion)).
		ToSQL()
}

func (r *DraftRepository) ListActiveIDs(ctx context.Context, limit int) ([]string, error) {
	query, args, err := qb.Select("id").
		From(draftsTable).
		Where(qb.Eq("status", string(draft.StatusActive))).
		OrderBy("updated_at", "id").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active drafts query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("list active drafts: %w", err)
	}
	return ids, nil
}

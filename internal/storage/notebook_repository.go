// Package storage provides durable persistence for notebooks using Bun ORM.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/carter293/Carter-Querio-notebook-sub004/pkg/models"
)

// NotebookRepository persists notebooks and their cells using Bun.
type NotebookRepository struct {
	db *bun.DB
}

// NewNotebookRepository creates a new NotebookRepository.
func NewNotebookRepository(db *bun.DB) *NotebookRepository {
	return &NotebookRepository{db: db}
}

// Create inserts a notebook and its cells in a single transaction.
func (r *NotebookRepository) Create(ctx context.Context, nb *models.Notebook) error {
	now := time.Now()
	nb.CreatedAt = now
	nb.UpdatedAt = now

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(nb).Exec(ctx); err != nil {
			return fmt.Errorf("create notebook: %w", err)
		}

		if len(nb.Cells) > 0 {
			for i := range nb.Cells {
				nb.Cells[i].NotebookID = nb.ID
				nb.Cells[i].Position = i
			}
			if _, err := tx.NewInsert().Model(&nb.Cells).Exec(ctx); err != nil {
				return fmt.Errorf("create notebook cells: %w", err)
			}
		}

		return nil
	})
}

// Get loads a notebook and its cells, ordered by position.
func (r *NotebookRepository) Get(ctx context.Context, id string) (*models.Notebook, error) {
	nb := new(models.Notebook)
	err := r.db.NewSelect().Model(nb).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotebookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get notebook %s: %w", id, err)
	}

	var cells []models.NotebookCell
	err = r.db.NewSelect().
		Model(&cells).
		Where("notebook_id = ?", id).
		OrderExpr("position ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("get cells for notebook %s: %w", id, err)
	}
	nb.Cells = cells

	return nb, nil
}

// Update persists the notebook's metadata and replaces its cell set with
// the one carried on nb. Replacement is acceptable here because the
// kernel, not the store, is the source of truth for cell ordering and
// code during a live session; the store only needs to reflect the last
// saved snapshot.
func (r *NotebookRepository) Update(ctx context.Context, nb *models.Notebook) error {
	nb.UpdatedAt = time.Now()

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(nb).
			Column("name", "db_connection", "updated_at").
			Where("id = ?", nb.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update notebook %s: %w", nb.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.ErrNotebookNotFound
		}

		if _, err := tx.NewDelete().
			Model((*models.NotebookCell)(nil)).
			Where("notebook_id = ?", nb.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("clear cells for notebook %s: %w", nb.ID, err)
		}

		if len(nb.Cells) > 0 {
			for i := range nb.Cells {
				nb.Cells[i].NotebookID = nb.ID
				nb.Cells[i].Position = i
			}
			if _, err := tx.NewInsert().Model(&nb.Cells).Exec(ctx); err != nil {
				return fmt.Errorf("insert cells for notebook %s: %w", nb.ID, err)
			}
		}

		return nil
	})
}

// Delete removes a notebook and its cells.
func (r *NotebookRepository) Delete(ctx context.Context, id string) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.NotebookCell)(nil)).
			Where("notebook_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete cells for notebook %s: %w", id, err)
		}

		res, err := tx.NewDelete().
			Model((*models.Notebook)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete notebook %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return models.ErrNotebookNotFound
		}
		return nil
	})
}

// List returns all notebooks' metadata, without their cells.
func (r *NotebookRepository) List(ctx context.Context) ([]models.Notebook, error) {
	var notebooks []models.Notebook
	if err := r.db.NewSelect().Model(&notebooks).OrderExpr("updated_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	return notebooks, nil
}

package postgres

import (
	"context"
	"database/sql"

	"storyforge/internal/model"
	"storyforge/internal/repository"
)

const conversionColumns = `id, filename, title, model, ai_unavailable, slides, chapters, archive_path, created_at`

// ConversionPostgres is a PostgreSQL implementation of repository.ConversionRepository.
type ConversionPostgres struct {
	db *sql.DB
}

// NewConversionPostgres creates a new ConversionPostgres repository.
func NewConversionPostgres(db *sql.DB) *ConversionPostgres {
	return &ConversionPostgres{db: db}
}

var _ repository.ConversionRepository = (*ConversionPostgres)(nil)

type scanner interface {
	Scan(dest ...any) error
}

func scanConversion(s scanner) (*model.Conversion, error) {
	var c model.Conversion
	if err := s.Scan(
		&c.ID,
		&c.Filename,
		&c.Title,
		&c.Model,
		&c.AIUnavailable,
		&c.Slides,
		&c.Chapters,
		&c.ArchivePath,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new conversion row and returns the stored record.
func (r *ConversionPostgres) Create(ctx context.Context, c *model.Conversion) (*model.Conversion, error) {
	const q = `
		INSERT INTO conversions (` + conversionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + conversionColumns
	row := r.db.QueryRowContext(ctx, q,
		c.ID,
		c.Filename,
		c.Title,
		c.Model,
		c.AIUnavailable,
		c.Slides,
		c.Chapters,
		c.ArchivePath,
		c.CreatedAt,
	)
	return scanConversion(row)
}

// FindByID fetches a single conversion by its ID.
func (r *ConversionPostgres) FindByID(ctx context.Context, id string) (*model.Conversion, error) {
	const q = `SELECT ` + conversionColumns + ` FROM conversions WHERE id = $1`
	return scanConversion(r.db.QueryRowContext(ctx, q, id))
}

// List returns conversions using LIMIT/OFFSET pagination and a total count.
func (r *ConversionPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Conversion], error) {
	const qCount = `SELECT COUNT(*) FROM conversions`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + conversionColumns + `
		FROM conversions
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Conversion, 0)
	for rows.Next() {
		c, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Conversion]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a conversion by ID. It does not return an error if the row does not exist.
func (r *ConversionPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM conversions WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

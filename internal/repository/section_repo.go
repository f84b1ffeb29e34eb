package repository

import (
	"context"
	"fmt"

	"biolink/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const msgSectionNotFound = "Section not found."

type SectionRepository interface {
	Create(ctx context.Context, profileID, title string) (*model.LinkSection, error)
	Get(ctx context.Context, profileID, id string) (*model.LinkSection, error)
	List(ctx context.Context, profileID string) ([]model.LinkSection, error)
	Update(ctx context.Context, profileID, id, title string) (*model.LinkSection, error)
	// Delete removes the section; its links become unsectioned.
	Delete(ctx context.Context, profileID, id string) error
	Reorder(ctx context.Context, profileID string, ids []string) error
}

type sectionRepo struct {
	pool  *pgxpool.Pool
	table orderedTable
}

func NewSectionRepo(pool *pgxpool.Pool) SectionRepository {
	return &sectionRepo{
		pool:  pool,
		table: orderedTable{name: "link_sections", ownerCol: "profile_id", notFound: msgSectionNotFound},
	}
}

const sectionColumns = `id, profile_id, title, position, created_at`

func scanSection(row pgx.Row) (*model.LinkSection, error) {
	var s model.LinkSection
	if err := row.Scan(&s.ID, &s.ProfileID, &s.Title, &s.Position, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sectionRepo) Create(ctx context.Context, profileID, title string) (*model.LinkSection, error) {
	s, err := scanSection(r.pool.QueryRow(ctx, `
		INSERT INTO link_sections (profile_id, title, position)
		VALUES ($1, $2, `+r.table.nextPosition()+`)
		RETURNING `+sectionColumns,
		profileID, title,
	))
	if err != nil {
		return nil, mapErr(err, "creating section", msgSectionNotFound, "")
	}
	return s, nil
}

func (r *sectionRepo) Get(ctx context.Context, profileID, id string) (*model.LinkSection, error) {
	s, err := scanSection(r.pool.QueryRow(ctx, `SELECT `+sectionColumns+` FROM link_sections WHERE id = $1 AND profile_id = $2`, id, profileID))
	if err != nil {
		return nil, mapErr(err, "getting section", msgSectionNotFound, "")
	}
	return s, nil
}

func (r *sectionRepo) List(ctx context.Context, profileID string) ([]model.LinkSection, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+sectionColumns+` FROM link_sections WHERE profile_id = $1 ORDER BY position`, profileID)
	if err != nil {
		return nil, fmt.Errorf("querying sections: %w", err)
	}
	defer rows.Close()

	sections := []model.LinkSection{}
	for rows.Next() {
		s, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning section row: %w", err)
		}
		sections = append(sections, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating section rows: %w", err)
	}
	return sections, nil
}

func (r *sectionRepo) Update(ctx context.Context, profileID, id, title string) (*model.LinkSection, error) {
	s, err := scanSection(r.pool.QueryRow(ctx, `
		UPDATE link_sections SET title = $3
		WHERE id = $1 AND profile_id = $2
		RETURNING `+sectionColumns,
		id, profileID, title,
	))
	if err != nil {
		return nil, mapErr(err, "updating section", msgSectionNotFound, "")
	}
	return s, nil
}

func (r *sectionRepo) Delete(ctx context.Context, profileID, id string) error {
	// Links in the section stay, unsectioned.
	return r.table.deleteCompact(ctx, r.pool, profileID, id, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE links SET section_id = NULL WHERE section_id = $1 AND user_id = $2`, id, profileID); err != nil {
			return fmt.Errorf("detaching links from section: %w", err)
		}
		return nil
	})
}

func (r *sectionRepo) Reorder(ctx context.Context, profileID string, ids []string) error {
	return r.table.reorder(ctx, r.pool, profileID, ids)
}

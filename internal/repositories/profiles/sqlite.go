package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/NatsuCamellia/cool-tracker/internal/dbx"
	"github.com/NatsuCamellia/cool-tracker/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, p *models.Profile) error {
	query := `INSERT INTO profiles (id, name, bio, primary_email, avatar_url)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				bio = excluded.bio,
				primary_email = excluded.primary_email,
				avatar_url = excluded.avatar_url
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Bio, p.PrimaryEmail, p.AvatarURL)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, bio, primary_email, avatar_url FROM profiles LIMIT 1`).
		Scan(&p.ID, &p.Name, &p.Bio, &p.PrimaryEmail, &p.AvatarURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM profiles`)
	if err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	return nil
}

package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no profile has been saved yet.
var ErrNotFound = errors.New("profile not found")

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, so the write
// helpers below can run standalone or inside a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Store manages the candidate profile backed by PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewStore creates a profile Store.
func NewStore(pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Profile returns the stored profile, or ErrNotFound if none exists.
func (s *Store) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	err := s.pool.QueryRow(ctx,
		`SELECT name, location, bio, skills, experience, interests, updated_at
		 FROM profiles WHERE id = 1`,
	).Scan(&p.Name, &p.Location, &p.Bio, &p.Skills, &p.Experience, &p.Interests, &p.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

// UpsertProfile creates or replaces the single profile row.
func (s *Store) UpsertProfile(ctx context.Context, p *Profile) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}
	return upsertProfile(ctx, s.pool, p)
}

// Projects returns all projects ordered by position.
func (s *Store) Projects(ctx context.Context) ([]Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, description, technologies, url, position, updated_at
		 FROM projects
		 ORDER BY position, title`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var pr Project
		if err := rows.Scan(&pr.ID, &pr.Title, &pr.Description, &pr.Technologies,
			&pr.URL, &pr.Position, &pr.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

// ReplaceProjects atomically replaces the whole project list.
// Positions are assigned from slice order.
func (s *Store) ReplaceProjects(ctx context.Context, projects []Project) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := replaceProjects(ctx, tx, projects); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing projects: %w", err)
	}
	s.logger.Debug("projects replaced", "count", len(projects))
	return nil
}

// Save writes the profile and the full project list in one transaction,
// so a failure cannot leave a new profile paired with stale projects.
func (s *Store) Save(ctx context.Context, p *Profile, projects []Project) error {
	if p == nil {
		return fmt.Errorf("profile is required")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := upsertProfile(ctx, tx, p); err != nil {
		return err
	}
	if err := replaceProjects(ctx, tx, projects); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing profile: %w", err)
	}
	s.logger.Debug("profile saved", "projects", len(projects))
	return nil
}

func upsertProfile(ctx context.Context, db execer, p *Profile) error {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	_, err := db.Exec(ctx,
		`INSERT INTO profiles (id, name, location, bio, skills, experience, interests, updated_at)
		 VALUES (1, $1, $2, $3, $4, $5, $6, now())
		 ON CONFLICT (id) DO UPDATE SET
		     name = EXCLUDED.name,
		     location = EXCLUDED.location,
		     bio = EXCLUDED.bio,
		     skills = EXCLUDED.skills,
		     experience = EXCLUDED.experience,
		     interests = EXCLUDED.interests,
		     updated_at = now()`,
		p.Name, p.Location, p.Bio, skills, p.Experience, p.Interests,
	)
	if err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

func replaceProjects(ctx context.Context, db execer, projects []Project) error {
	if _, err := db.Exec(ctx, `DELETE FROM projects`); err != nil {
		return fmt.Errorf("clearing projects: %w", err)
	}

	for i, pr := range projects {
		techs := pr.Technologies
		if techs == nil {
			techs = []string{}
		}
		if _, err := db.Exec(ctx,
			`INSERT INTO projects (title, description, technologies, url, position)
			 VALUES ($1, $2, $3, $4, $5)`,
			pr.Title, pr.Description, techs, pr.URL, i,
		); err != nil {
			return fmt.Errorf("inserting project %q: %w", pr.Title, err)
		}
	}
	return nil
}

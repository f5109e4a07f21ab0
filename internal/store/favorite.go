package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FavoriteKind is the direction of a saved translation.
type FavoriteKind string

const (
	// FavoriteSignToText is a sentence interpreted from a live capture.
	FavoriteSignToText FavoriteKind = "sign-to-text"
	// FavoriteTextToSign is a set of signing instructions for a phrase.
	FavoriteTextToSign FavoriteKind = "text-to-sign"
)

// Valid reports whether k is a known kind.
func (k FavoriteKind) Valid() bool {
	return k == FavoriteSignToText || k == FavoriteTextToSign
}

// Favorite is a translation result the user chose to keep.
type Favorite struct {
	ID         string       `json:"id"`
	Kind       FavoriteKind `json:"type"`
	Source     string       `json:"source"`
	Translated string       `json:"translated"`
	ModuleID   string       `json:"moduleId,omitempty"`
	CreatedAt  time.Time    `json:"timestamp"`
}

// FavoriteRepository provides CRUD operations for favorites.
type FavoriteRepository struct {
	db *sql.DB
}

// Favorites returns the favorite repository for this store.
func (s *Store) Favorites() *FavoriteRepository {
	return &FavoriteRepository{db: s.db}
}

// Create inserts a favorite, assigning an ID when none is set.
func (r *FavoriteRepository) Create(f *Favorite) error {
	if !f.Kind.Valid() {
		return fmt.Errorf("invalid favorite kind %q", f.Kind)
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	f.CreatedAt = time.Now()

	var moduleID sql.NullString
	if f.ModuleID != "" {
		moduleID = sql.NullString{String: f.ModuleID, Valid: true}
	}

	_, err := r.db.Exec(
		`INSERT INTO favorites (id, kind, source, translated, module_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, string(f.Kind), f.Source, f.Translated, moduleID, f.CreatedAt,
	)
	return err
}

const favoriteColumns = `id, kind, source, translated, module_id, created_at`

func scanFavorite(row interface{ Scan(...any) error }) (*Favorite, error) {
	f := &Favorite{}
	var kind string
	var moduleID sql.NullString
	if err := row.Scan(&f.ID, &kind, &f.Source, &f.Translated, &moduleID, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.Kind = FavoriteKind(kind)
	f.ModuleID = moduleID.String
	return f, nil
}

// GetByID retrieves a favorite by its ID.
func (r *FavoriteRepository) GetByID(id string) (*Favorite, error) {
	f, err := scanFavorite(r.db.QueryRow(`SELECT `+favoriteColumns+` FROM favorites WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// List returns favorites newest first.
func (r *FavoriteRepository) List() ([]*Favorite, error) {
	rows, err := r.db.Query(`SELECT ` + favoriteColumns + ` FROM favorites ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []*Favorite
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return favorites, nil
}

// Count returns the number of saved favorites.
func (r *FavoriteRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM favorites`).Scan(&n)
	return n, err
}

// Delete removes a favorite by its ID.
func (r *FavoriteRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}

package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Learning modules - the sign catalogue shown in the learning center
		`CREATE TABLE IF NOT EXISTS learning_modules (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL UNIQUE,
			category TEXT NOT NULL,
			total_signs INTEGER NOT NULL CHECK(total_signs >= 0),
			progress INTEGER NOT NULL DEFAULT 0 CHECK(progress BETWEEN 0 AND 100),
			locked INTEGER NOT NULL DEFAULT 0,
			image TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Favorites - saved translation results
		`CREATE TABLE IF NOT EXISTS favorites (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL CHECK(kind IN ('sign-to-text', 'text-to-sign')),
			source TEXT NOT NULL,
			translated TEXT NOT NULL,
			module_id TEXT REFERENCES learning_modules(id) ON DELETE SET NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings table - stores application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_learning_modules_category ON learning_modules(category)`,
		`CREATE INDEX IF NOT EXISTS idx_favorites_created_at ON favorites(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

package store

import (
	"database/sql"
	"errors"
	"time"
)

var (
	// ErrModuleLocked is returned when progress is recorded on a locked module.
	ErrModuleLocked = errors.New("module is locked")
	// ErrInvalidProgress is returned for progress outside 0-100.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

// Module is one learning-center course.
type Module struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	TotalSigns int       `json:"totalSigns"`
	Progress   int       `json:"progress"`
	Locked     bool      `json:"locked"`
	Image      string    `json:"image"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SignsLearned is the number of signs covered by the module's progress.
func (m *Module) SignsLearned() int {
	return m.TotalSigns * m.Progress / 100
}

var defaultModules = []Module{
	{ID: "basic-alphabets", Title: "Basic Alphabets", Category: "Basics", TotalSigns: 26, Progress: 100, Image: "https://picsum.photos/seed/alpha/500/300"},
	{ID: "everyday-greetings", Title: "Everyday Greetings", Category: "Social", TotalSigns: 15, Progress: 65, Image: "https://picsum.photos/seed/greet/500/300"},
	{ID: "emergency-signs", Title: "Emergency Signs", Category: "Safety", TotalSigns: 20, Progress: 10, Image: "https://picsum.photos/seed/sos/500/300"},
	{ID: "numbers-counting", Title: "Numbers & Counting", Category: "Logic", TotalSigns: 10, Locked: true, Image: "https://picsum.photos/seed/num/500/300"},
	{ID: "workplace-etiquette", Title: "Workplace Etiquette", Category: "Pro", TotalSigns: 25, Locked: true, Image: "https://picsum.photos/seed/work/500/300"},
	{ID: "family-relations", Title: "Family & Relations", Category: "Personal", TotalSigns: 12, Locked: true, Image: "https://picsum.photos/seed/family/500/300"},
}

// seedModules inserts the built-in catalogue. Existing rows keep their progress.
func (s *Store) seedModules() error {
	for i, m := range defaultModules {
		_, err := s.db.Exec(
			`INSERT OR IGNORE INTO learning_modules (id, title, category, total_signs, progress, locked, image, position, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Title, m.Category, m.TotalSigns, m.Progress, m.Locked, m.Image, i, time.Now(),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ModuleRepository provides access to learning modules.
type ModuleRepository struct {
	db *sql.DB
}

// Modules returns the module repository for this store.
func (s *Store) Modules() *ModuleRepository {
	return &ModuleRepository{db: s.db}
}

const moduleColumns = `id, title, category, total_signs, progress, locked, image, updated_at`

func scanModule(row interface{ Scan(...any) error }) (*Module, error) {
	m := &Module{}
	var locked int
	if err := row.Scan(&m.ID, &m.Title, &m.Category, &m.TotalSigns, &m.Progress, &locked, &m.Image, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Locked = locked != 0
	return m, nil
}

// List returns every module in catalogue order.
func (r *ModuleRepository) List() ([]*Module, error) {
	rows, err := r.db.Query(`SELECT ` + moduleColumns + ` FROM learning_modules ORDER BY position, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []*Module
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return modules, nil
}

// GetByID retrieves a module by its ID.
func (r *ModuleRepository) GetByID(id string) (*Module, error) {
	m, err := scanModule(r.db.QueryRow(`SELECT `+moduleColumns+` FROM learning_modules WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

// UpdateProgress sets a module's completion percentage.
func (r *ModuleRepository) UpdateProgress(id string, progress int) (*Module, error) {
	if progress < 0 || progress > 100 {
		return nil, ErrInvalidProgress
	}

	m, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if m.Locked {
		return nil, ErrModuleLocked
	}

	m.Progress = progress
	m.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE learning_modules SET progress = ?, updated_at = ? WHERE id = ?`,
		m.Progress, m.UpdatedAt, m.ID,
	)
	if err != nil {
		return nil, err
	}
	if err := affectedOne(result); err != nil {
		return nil, err
	}
	return m, nil
}

// Unlock makes a module available for learning.
func (r *ModuleRepository) Unlock(id string) error {
	result, err := r.db.Exec(
		`UPDATE learning_modules SET locked = 0, updated_at = ? WHERE id = ?`,
		time.Now(), id,
	)
	if err != nil {
		return err
	}
	return affectedOne(result)
}

// CategoryProgress aggregates progress for one category.
type CategoryProgress struct {
	Category     string `json:"category"`
	Modules      int    `json:"modules"`
	TotalSigns   int    `json:"totalSigns"`
	SignsLearned int    `json:"signsLearned"`
	Progress     int    `json:"progress"`
}

// Summary aggregates learning progress for the dashboard.
type Summary struct {
	Modules      int                `json:"modules"`
	Unlocked     int                `json:"unlocked"`
	Completed    int                `json:"completed"`
	TotalSigns   int                `json:"totalSigns"`
	SignsLearned int                `json:"signsLearned"`
	Categories   []CategoryProgress `json:"categories"`
}

// Summary computes totals across the catalogue. Category progress is the
// share of that category's signs learned, in percent.
func (r *ModuleRepository) Summary() (*Summary, error) {
	modules, err := r.List()
	if err != nil {
		return nil, err
	}

	sum := &Summary{Categories: []CategoryProgress{}}
	index := make(map[string]int)
	for _, m := range modules {
		sum.Modules++
		if !m.Locked {
			sum.Unlocked++
		}
		if m.Progress == 100 {
			sum.Completed++
		}
		sum.TotalSigns += m.TotalSigns
		sum.SignsLearned += m.SignsLearned()

		i, ok := index[m.Category]
		if !ok {
			i = len(sum.Categories)
			index[m.Category] = i
			sum.Categories = append(sum.Categories, CategoryProgress{Category: m.Category})
		}
		c := &sum.Categories[i]
		c.Modules++
		c.TotalSigns += m.TotalSigns
		c.SignsLearned += m.SignsLearned()
	}

	for i := range sum.Categories {
		c := &sum.Categories[i]
		if c.TotalSigns > 0 {
			c.Progress = c.SignsLearned * 100 / c.TotalSigns
		}
	}
	return sum, nil
}

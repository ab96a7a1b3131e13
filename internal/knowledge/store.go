package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"

	"coursepilot/internal/tools"
	"coursepilot/pkg/llm"
	"coursepilot/pkg/logging"
)

const defaultMaxResults = 5

// Course is the stored metadata for one course document.
type Course struct {
	Title      string
	Link       string
	Instructor string
	Lessons    []Lesson
}

type Lesson struct {
	Number int
	Title  string
	Link   string
}

// Chunk is one embeddable slice of course content.
type Chunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

// Store provides vector search and course metadata over Postgres+pgvector.
// It implements tools.CourseStore; errors from Search and Outline are written
// for the model, which receives them as tool results.
type Store struct {
	db         *sql.DB
	embedder   llm.EmbeddingClient
	maxResults int
	logger     logging.Logger
}

func NewStore(db *sql.DB, embedder llm.EmbeddingClient, maxResults int, logger logging.Logger) *Store {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Store{
		db:         db,
		embedder:   embedder,
		maxResults: maxResults,
		logger:     logger,
	}
}

// Search embeds the query and returns the closest chunks by cosine distance,
// optionally scoped to a fuzzily resolved course title and a lesson number.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]tools.Match, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()
	searchQueriesTotal.Inc()

	title := ""
	if courseName != "" {
		resolved, err := s.ResolveCourseTitle(ctx, courseName)
		if err != nil {
			return nil, err
		}
		title = resolved
	}

	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		s.logger.WithError(err).Warn("Query embedding failed")
		return nil, fmt.Errorf("Search error: %v", err)
	}
	embedding := pgvector.NewVector(vectors[0])

	var lesson sql.NullInt64
	if lessonNumber != nil {
		lesson = sql.NullInt64{Int64: int64(*lessonNumber), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ch.content, co.title, ch.lesson_number,
		       COALESCE(l.link, co.link, '') AS link
		FROM chunks ch
		JOIN courses co ON co.id = ch.course_id
		LEFT JOIN lessons l ON l.course_id = ch.course_id AND l.number = ch.lesson_number
		WHERE ($1 = '' OR co.title = $1)
		  AND ($2::int IS NULL OR ch.lesson_number = $2)
		ORDER BY ch.embedding <=> $3
		LIMIT $4
	`, title, lesson, embedding, s.maxResults)
	if err != nil {
		s.logger.WithError(err).Warn("Vector search failed")
		return nil, fmt.Errorf("Search error: %v", err)
	}
	defer rows.Close()

	var matches []tools.Match
	for rows.Next() {
		var match tools.Match
		var lessonNum sql.NullInt64
		if err := rows.Scan(&match.Content, &match.CourseTitle, &lessonNum, &match.Link); err != nil {
			return nil, fmt.Errorf("Search error: %v", err)
		}
		if lessonNum.Valid {
			n := int(lessonNum.Int64)
			match.LessonNumber = &n
		}
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search error: %v", err)
	}

	searchResultsCount.Observe(float64(len(matches)))
	return matches, nil
}

// ResolveCourseTitle maps a possibly partial course name to a stored title:
// exact match first, then case-insensitive substring.
func (s *Store) ResolveCourseTitle(ctx context.Context, name string) (string, error) {
	var title string
	err := s.db.QueryRowContext(ctx,
		`SELECT title FROM courses WHERE title = $1`, name).Scan(&title)
	if err == nil {
		return title, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("Search error: %v", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT title FROM courses
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY length(title)
		LIMIT 1
	`, name).Scan(&title)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("No course found matching '%s'", name)
	}
	if err != nil {
		return "", fmt.Errorf("Search error: %v", err)
	}
	return title, nil
}

// Outline returns the structure of a fuzzily resolved course.
func (s *Store) Outline(ctx context.Context, courseName string) (*tools.Outline, error) {
	title, err := s.ResolveCourseTitle(ctx, courseName)
	if err != nil {
		return nil, err
	}

	var courseID int
	outline := &tools.Outline{}
	err = s.db.QueryRowContext(ctx,
		`SELECT id, title, link FROM courses WHERE title = $1`, title).
		Scan(&courseID, &outline.Title, &outline.Link)
	if err != nil {
		return nil, fmt.Errorf("Search error: %v", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT number, title FROM lessons WHERE course_id = $1 ORDER BY number`, courseID)
	if err != nil {
		return nil, fmt.Errorf("Search error: %v", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lesson tools.LessonRef
		if err := rows.Scan(&lesson.Number, &lesson.Title); err != nil {
			return nil, fmt.Errorf("Search error: %v", err)
		}
		outline.Lessons = append(outline.Lessons, lesson)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Search error: %v", err)
	}
	return outline, nil
}

// CourseCount returns the number of stored courses.
func (s *Store) CourseCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

// CourseTitles returns every stored course title.
func (s *Store) CourseTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM courses ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list course titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("list course titles: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list course titles: %w", err)
	}
	return titles, nil
}

// AddCourse upserts course metadata and its lesson list.
func (s *Store) AddCourse(ctx context.Context, course *Course) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add course: begin: %w", err)
	}
	defer tx.Rollback()

	var courseID int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO courses (title, link, instructor)
		VALUES ($1, $2, $3)
		ON CONFLICT (title) DO UPDATE SET link = EXCLUDED.link, instructor = EXCLUDED.instructor
		RETURNING id
	`, course.Title, course.Link, course.Instructor).Scan(&courseID)
	if err != nil {
		return fmt.Errorf("add course %q: %w", course.Title, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM lessons WHERE course_id = $1`, courseID); err != nil {
		return fmt.Errorf("add course %q: clear lessons: %w", course.Title, err)
	}
	for _, lesson := range course.Lessons {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO lessons (course_id, number, title, link)
			VALUES ($1, $2, $3, $4)
		`, courseID, lesson.Number, lesson.Title, lesson.Link)
		if err != nil {
			return fmt.Errorf("add course %q: lesson %d: %w", course.Title, lesson.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add course %q: commit: %w", course.Title, err)
	}
	return nil
}

// AddChunks embeds and stores content chunks for a course already present in
// the courses table.
func (s *Store) AddChunks(ctx context.Context, courseTitle string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	contents := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		contents = append(contents, chunk.Content)
	}
	vectors, err := s.embedder.Embed(ctx, contents)
	if err != nil {
		return fmt.Errorf("add chunks for %q: embed: %w", courseTitle, err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("add chunks for %q: got %d embeddings for %d chunks", courseTitle, len(vectors), len(chunks))
	}

	var courseID int
	if err := s.db.QueryRowContext(ctx,
		`SELECT id FROM courses WHERE title = $1`, courseTitle).Scan(&courseID); err != nil {
		return fmt.Errorf("add chunks for %q: %w", courseTitle, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add chunks for %q: begin: %w", courseTitle, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (course_id, lesson_number, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("add chunks for %q: prepare: %w", courseTitle, err)
	}
	defer stmt.Close()

	for i, chunk := range chunks {
		var lesson sql.NullInt64
		if chunk.LessonNumber != nil {
			lesson = sql.NullInt64{Int64: int64(*chunk.LessonNumber), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, courseID, lesson, chunk.ChunkIndex, chunk.Content, pgvector.NewVector(vectors[i]))
		if err != nil {
			return fmt.Errorf("add chunks for %q: insert %d: %w", courseTitle, i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add chunks for %q: commit: %w", courseTitle, err)
	}
	return nil
}

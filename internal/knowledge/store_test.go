package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"coursepilot/pkg/logging"
)

type fakeEmbedder struct {
	vectors [][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2}
	}
	return out, nil
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, &fakeEmbedder{}, 5, logging.NewLogger()), mock
}

func TestResolveCourseTitleExact(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT title FROM courses WHERE title = \$1`).
		WithArgs("Go Basics").
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Go Basics"))

	title, err := store.ResolveCourseTitle(context.Background(), "Go Basics")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if title != "Go Basics" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestResolveCourseTitleFuzzy(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT title FROM courses WHERE title = \$1`).
		WithArgs("basics").
		WillReturnRows(sqlmock.NewRows([]string{"title"}))
	mock.ExpectQuery(`ILIKE`).
		WithArgs("basics").
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Go Basics"))

	title, err := store.ResolveCourseTitle(context.Background(), "basics")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if title != "Go Basics" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestResolveCourseTitleNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT title FROM courses WHERE title = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"title"}))
	mock.ExpectQuery(`ILIKE`).
		WillReturnRows(sqlmock.NewRows([]string{"title"}))

	_, err := store.ResolveCourseTitle(context.Background(), "Quantum")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "No course found matching 'Quantum'" {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestSearchReturnsMatches(t *testing.T) {
	store, mock := newMockStore(t)
	rows := sqlmock.NewRows([]string{"content", "title", "lesson_number", "link"}).
		AddRow("chunk one", "Go Basics", 1, "https://example.com/l1").
		AddRow("chunk two", "Go Basics", nil, "https://example.com/course")
	mock.ExpectQuery(`ORDER BY ch\.embedding <=>`).
		WillReturnRows(rows)

	matches, err := store.Search(context.Background(), "channels", "", nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].LessonNumber == nil || *matches[0].LessonNumber != 1 {
		t.Fatalf("unexpected lesson number %v", matches[0].LessonNumber)
	}
	if matches[1].LessonNumber != nil {
		t.Fatalf("expected nil lesson number for course-level chunk")
	}
}

func TestSearchResolvesCourseFilter(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT title FROM courses WHERE title = \$1`).
		WithArgs("basics").
		WillReturnRows(sqlmock.NewRows([]string{"title"}))
	mock.ExpectQuery(`ILIKE`).
		WithArgs("basics").
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Go Basics"))
	mock.ExpectQuery(`ORDER BY ch\.embedding <=>`).
		WillReturnRows(sqlmock.NewRows([]string{"content", "title", "lesson_number", "link"}))

	matches, err := store.Search(context.Background(), "x", "basics", nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestSearchUnresolvableCourse(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT title FROM courses WHERE title = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"title"}))
	mock.ExpectQuery(`ILIKE`).
		WillReturnRows(sqlmock.NewRows([]string{"title"}))

	_, err := store.Search(context.Background(), "x", "Quantum", nil)
	if err == nil || err.Error() != "No course found matching 'Quantum'" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSearchEmbedFailure(t *testing.T) {
	db, _, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	store := NewStore(db, &fakeEmbedder{err: errors.New("model offline")}, 5, logging.NewLogger())

	_, err = store.Search(context.Background(), "x", "", nil)
	if err == nil || !strings.HasPrefix(err.Error(), "Search error: ") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestOutline(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT title FROM courses WHERE title = \$1`).
		WithArgs("Go Basics").
		WillReturnRows(sqlmock.NewRows([]string{"title"}).AddRow("Go Basics"))
	mock.ExpectQuery(`SELECT id, title, link FROM courses`).
		WithArgs("Go Basics").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "link"}).AddRow(7, "Go Basics", "https://example.com"))
	mock.ExpectQuery(`SELECT number, title FROM lessons`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"number", "title"}).
			AddRow(1, "Introduction").
			AddRow(2, "Types"))

	outline, err := store.Outline(context.Background(), "Go Basics")
	if err != nil {
		t.Fatalf("outline: %v", err)
	}
	if outline.Title != "Go Basics" || outline.Link != "https://example.com" {
		t.Fatalf("unexpected outline %+v", outline)
	}
	if len(outline.Lessons) != 2 || outline.Lessons[1].Title != "Types" {
		t.Fatalf("unexpected lessons %+v", outline.Lessons)
	}
}

func TestCourseAnalytics(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM courses`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := store.CourseCount(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}

	mock.ExpectQuery(`SELECT title FROM courses ORDER BY title`).
		WillReturnRows(sqlmock.NewRows([]string{"title"}).
			AddRow("A").AddRow("B").AddRow("C"))
	titles, err := store.CourseTitles(context.Background())
	if err != nil {
		t.Fatalf("titles: %v", err)
	}
	if len(titles) != 3 || titles[0] != "A" {
		t.Fatalf("unexpected titles %v", titles)
	}
}

func TestAddCourse(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO courses`).
		WithArgs("Go Basics", "https://example.com", "Rob").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectExec(`DELETE FROM lessons`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO lessons`).
		WithArgs(7, 1, "Introduction", "https://example.com/l1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	course := &Course{
		Title:      "Go Basics",
		Link:       "https://example.com",
		Instructor: "Rob",
		Lessons:    []Lesson{{Number: 1, Title: "Introduction", Link: "https://example.com/l1"}},
	}
	if err := store.AddCourse(context.Background(), course); err != nil {
		t.Fatalf("add course: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAddChunks(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT id FROM courses WHERE title = \$1`).
		WithArgs("Go Basics").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO chunks`)
	mock.ExpectExec(`INSERT INTO chunks`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO chunks`).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	one := 1
	chunks := []Chunk{
		{Content: "a", CourseTitle: "Go Basics", LessonNumber: &one, ChunkIndex: 0},
		{Content: "b", CourseTitle: "Go Basics", ChunkIndex: 1},
	}
	if err := store.AddChunks(context.Background(), "Go Basics", chunks); err != nil {
		t.Fatalf("add chunks: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

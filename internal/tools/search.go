package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"coursepilot/pkg/llm"
)

// CourseStore is the retrieval collaborator behind the course tools.
// Unresolvable course names and backend failures surface as errors whose
// text is meant for the model, not the operator.
type CourseStore interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) ([]Match, error)
	Outline(ctx context.Context, courseName string) (*Outline, error)
}

// Match is one retrieved passage of course content.
type Match struct {
	Content      string
	CourseTitle  string
	LessonNumber *int
	Link         string
}

// Outline describes a course's structure.
type Outline struct {
	Title   string
	Link    string
	Lessons []LessonRef
}

type LessonRef struct {
	Number int
	Title  string
}

// SearchTool performs semantic search over course content with optional
// course and lesson filters.
type SearchTool struct {
	store CourseStore

	mu      sync.Mutex
	sources []Source
}

func NewSearchTool(store CourseStore) *SearchTool {
	return &SearchTool{store: store}
}

func (t *SearchTool) Definition() llm.Tool {
	return llm.Tool{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		Parameters: toolParams(
			map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			[]string{"query"},
		),
	}
}

func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return "", fmt.Errorf("search_course_content: query argument is required")
	}
	courseName, _ := args["course_name"].(string)
	lessonNumber, err := optionalInt(args, "lesson_number")
	if err != nil {
		return "", fmt.Errorf("search_course_content: %w", err)
	}

	matches, err := t.store.Search(ctx, query, courseName, lessonNumber)
	if err != nil {
		// Collaborator errors are written for the model and returned as the
		// tool result rather than failing the round.
		t.setSources(nil)
		return err.Error(), nil
	}

	if len(matches) == 0 {
		t.setSources(nil)
		var filter strings.Builder
		if courseName != "" {
			fmt.Fprintf(&filter, " in course '%s'", courseName)
		}
		if lessonNumber != nil {
			fmt.Fprintf(&filter, " in lesson %d", *lessonNumber)
		}
		return fmt.Sprintf("No relevant content found%s.", filter.String()), nil
	}

	return t.formatMatches(matches), nil
}

func (t *SearchTool) formatMatches(matches []Match) string {
	formatted := make([]string, 0, len(matches))
	sources := make([]Source, 0, len(matches))
	for _, match := range matches {
		title := match.CourseTitle
		if title == "" {
			title = "unknown"
		}
		header := title
		if match.LessonNumber != nil {
			header = fmt.Sprintf("%s - Lesson %d", title, *match.LessonNumber)
		}
		formatted = append(formatted, fmt.Sprintf("[%s]\n%s", header, match.Content))
		sources = append(sources, Source{Text: header, URL: match.Link})
	}
	t.setSources(sources)
	return strings.Join(formatted, "\n\n")
}

func (t *SearchTool) LastSources() []Source {
	t.mu.Lock()
	defer t.mu.Unlock()
	// Copy so callers cannot alias the recorded state.
	return append([]Source(nil), t.sources...)
}

func (t *SearchTool) ResetSources() {
	t.setSources(nil)
}

func (t *SearchTool) setSources(sources []Source) {
	t.mu.Lock()
	t.sources = sources
	t.mu.Unlock()
}

// optionalInt reads an integer argument that JSON decoding may have produced
// as a float64.
func optionalInt(args map[string]any, key string) (*int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case float64:
		n := int(v)
		return &n, nil
	case int:
		n := v
		return &n, nil
	default:
		return nil, fmt.Errorf("%s must be an integer", key)
	}
}

package tools

import (
	"context"
	"fmt"
	"strings"

	"coursepilot/pkg/llm"
)

// OutlineTool returns a course's title, link and full lesson list. It serves
// structural metadata rather than content, so it records no sources.
type OutlineTool struct {
	store CourseStore
}

func NewOutlineTool(store CourseStore) *OutlineTool {
	return &OutlineTool{store: store}
}

func (t *OutlineTool) Definition() llm.Tool {
	return llm.Tool{
		Name:        "get_course_outline",
		Description: "Get the complete outline of a course: its title, link, and full numbered lesson list",
		Parameters: toolParams(
			map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			[]string{"course_name"},
		),
	}
}

func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	courseName, ok := args["course_name"].(string)
	if !ok || courseName == "" {
		return "", fmt.Errorf("get_course_outline: course_name argument is required")
	}

	outline, err := t.store.Outline(ctx, courseName)
	if err != nil {
		return err.Error(), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course Title: %s\n", outline.Title)
	if outline.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", outline.Link)
	}
	b.WriteString("\nLessons:\n")
	for _, lesson := range outline.Lessons {
		fmt.Fprintf(&b, "%d. %s\n", lesson.Number, lesson.Title)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

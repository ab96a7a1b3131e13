package ingest

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"coursepilot/internal/knowledge"
)

var lessonHeaderRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// Section is one contiguous block of course content. Content before the first
// lesson marker has a nil LessonNumber.
type Section struct {
	LessonNumber *int
	LessonTitle  string
	LessonLink   string
	Content      string
}

// Document is a parsed course document: metadata plus its content sections.
type Document struct {
	Course   knowledge.Course
	Sections []Section
}

// ParseDocument reads a course document of the form
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
//	Lesson 0: <lesson title>
//	Lesson Link: <url>
//	<content>
//
// Header lines are optional; fallbackTitle is used when no Course Title line
// is present.
func ParseDocument(r io.Reader, fallbackTitle string) (*Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := &Document{Course: knowledge.Course{Title: fallbackTitle}}

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		switch {
		case strings.HasPrefix(line, "Course Title:"):
			doc.Course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			doc.Course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			doc.Course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		case line == "":
		default:
			goto body
		}
		i++
	}

body:
	if doc.Course.Title == "" {
		return nil, fmt.Errorf("document has no course title")
	}

	var current *Section
	var buf []string
	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = nil
		if current != nil {
			current.Content = content
			doc.Sections = append(doc.Sections, *current)
			current = nil
			return
		}
		if content != "" {
			doc.Sections = append(doc.Sections, Section{Content: content})
		}
	}

	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if m := lessonHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			number, _ := strconv.Atoi(m[1])
			current = &Section{LessonNumber: &number, LessonTitle: strings.TrimSpace(m[2])}
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if strings.HasPrefix(next, "Lesson Link:") {
					current.LessonLink = strings.TrimSpace(strings.TrimPrefix(next, "Lesson Link:"))
					i++
				}
			}
			continue
		}
		buf = append(buf, lines[i])
	}
	flush()

	for _, section := range doc.Sections {
		if section.LessonNumber == nil {
			continue
		}
		doc.Course.Lessons = append(doc.Course.Lessons, knowledge.Lesson{
			Number: *section.LessonNumber,
			Title:  section.LessonTitle,
			Link:   section.LessonLink,
		})
	}

	return doc, nil
}

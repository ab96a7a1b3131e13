package ingest

import (
	"strings"
	"testing"
)

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("One sentence only.", 800, 100)
	if len(chunks) != 1 || chunks[0] != "One sentence only." {
		t.Fatalf("unexpected chunks %v", chunks)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	if chunks := ChunkText("   ", 800, 100); chunks != nil {
		t.Fatalf("expected nil, got %v", chunks)
	}
}

func TestChunkTextRespectsSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This is a filler sentence used to pad out the text. ")
	}
	chunks := ChunkText(b.String(), 200, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > 200 {
			t.Fatalf("chunk %d exceeds size: %d chars", i, len(chunk))
		}
	}
}

func TestChunkTextOverlap(t *testing.T) {
	text := "Alpha sentence here. Beta sentence here. Gamma sentence here. Delta sentence here."
	chunks := ChunkText(text, 45, 25)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	// Consecutive chunks share a trailing sentence.
	first := strings.Split(chunks[0], ". ")
	last := first[len(first)-1]
	if !strings.Contains(chunks[1], strings.TrimSuffix(last, ".")) {
		t.Fatalf("expected overlap between %q and %q", chunks[0], chunks[1])
	}
}

func TestChunkTextOversizedSentence(t *testing.T) {
	long := strings.Repeat("x", 500) + "."
	chunks := ChunkText(long+" Short one.", 100, 20)
	if len(chunks) != 2 {
		t.Fatalf("expected oversized sentence in its own chunk, got %v", len(chunks))
	}
	if chunks[0] != long {
		t.Fatalf("unexpected first chunk")
	}
}

func TestBuildChunksLessonPrefix(t *testing.T) {
	one := 1
	doc := &Document{}
	doc.Course.Title = "Go Basics"
	doc.Sections = []Section{
		{Content: "Course overview text."},
		{LessonNumber: &one, LessonTitle: "Types", Content: "Numbers and strings."},
	}

	chunks := BuildChunks(doc, 800, 100)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Content != "Course overview text." || chunks[0].LessonNumber != nil {
		t.Fatalf("unexpected course-level chunk %+v", chunks[0])
	}
	want := "Course Go Basics Lesson 1 content: Numbers and strings."
	if chunks[1].Content != want {
		t.Fatalf("lesson chunk = %q, want %q", chunks[1].Content, want)
	}
	if chunks[1].LessonNumber == nil || *chunks[1].LessonNumber != 1 {
		t.Fatalf("unexpected lesson number")
	}
	if chunks[0].ChunkIndex != 0 || chunks[1].ChunkIndex != 1 {
		t.Fatalf("unexpected chunk indexes %d %d", chunks[0].ChunkIndex, chunks[1].ChunkIndex)
	}
}

package ingest

import (
	"fmt"
	"strings"

	"coursepilot/internal/knowledge"
)

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// splitSentences normalizes whitespace and splits text on sentence-ending
// punctuation followed by a space.
func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			end := i + 1
			if end < len(text) && text[end] == ' ' {
				sentences = append(sentences, text[start:end])
				start = end + 1
				i = end
			}
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

// ChunkText splits text into sentence-aligned chunks of at most size
// characters, with consecutive chunks sharing up to overlap characters of
// trailing sentences.
func ChunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = defaultChunkOverlap
	}

	sentences := splitSentences(text)
	var chunks []string
	i := 0
	for i < len(sentences) {
		var parts []string
		length := 0
		j := i
		for j < len(sentences) {
			cost := len(sentences[j])
			if len(parts) > 0 {
				cost++
			}
			if length+cost > size && len(parts) > 0 {
				break
			}
			parts = append(parts, sentences[j])
			length += cost
			j++
		}
		chunks = append(chunks, strings.Join(parts, " "))
		if j >= len(sentences) {
			break
		}

		// Back up over trailing sentences worth up to overlap characters so
		// the next chunk starts with shared context.
		next := j
		overlapLen := 0
		for next > i {
			cost := len(sentences[next-1]) + 1
			if overlapLen+cost > overlap {
				break
			}
			overlapLen += cost
			next--
		}
		if next <= i {
			next = i + 1
		}
		i = next
	}
	return chunks
}

// BuildChunks turns a parsed document into embeddable chunks. Lesson chunks
// carry a course and lesson prefix so embeddings keep their context.
func BuildChunks(doc *Document, size, overlap int) []knowledge.Chunk {
	var out []knowledge.Chunk
	index := 0
	for _, section := range doc.Sections {
		if section.Content == "" {
			continue
		}
		for _, text := range ChunkText(section.Content, size, overlap) {
			chunk := knowledge.Chunk{
				CourseTitle: doc.Course.Title,
				ChunkIndex:  index,
			}
			if section.LessonNumber != nil {
				number := *section.LessonNumber
				chunk.LessonNumber = &number
				chunk.Content = fmt.Sprintf("Course %s Lesson %d content: %s", doc.Course.Title, number, text)
			} else {
				chunk.Content = text
			}
			out = append(out, chunk)
			index++
		}
	}
	return out
}

package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coursepilot/internal/knowledge"
	"coursepilot/pkg/logging"
)

// Store is the persistence surface the processor writes to.
type Store interface {
	CourseTitles(ctx context.Context) ([]string, error)
	AddCourse(ctx context.Context, course *knowledge.Course) error
	AddChunks(ctx context.Context, courseTitle string, chunks []knowledge.Chunk) error
}

// Processor loads course documents from disk into the knowledge store.
type Processor struct {
	store        Store
	chunkSize    int
	chunkOverlap int
	logger       logging.Logger
}

func NewProcessor(store Store, chunkSize, chunkOverlap int, logger logging.Logger) *Processor {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultChunkOverlap
	}
	return &Processor{
		store:        store,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

// ProcessFolder ingests every .txt and .md document in dir, skipping courses
// whose titles are already stored. A document that fails to parse or store is
// logged and skipped. Returns the number of courses and chunks added.
func (p *Processor) ProcessFolder(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read docs folder %q: %w", dir, err)
	}

	existing, err := p.store.CourseTitles(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list existing courses: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, title := range existing {
		seen[title] = true
	}

	coursesAdded, chunksAdded := 0, 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		added, chunks, err := p.processFile(ctx, path, seen)
		if err != nil {
			p.logger.WithError(err).WithField("file", entry.Name()).Warn("Skipping course document")
			continue
		}
		if added {
			coursesAdded++
			chunksAdded += chunks
		}
	}

	p.logger.WithFields(logging.Fields{
		"courses": coursesAdded,
		"chunks":  chunksAdded,
	}).Info("Course folder processed")
	return coursesAdded, chunksAdded, nil
}

// processFile parses and stores one document. Reports whether the course was
// added and how many chunks it produced.
func (p *Processor) processFile(ctx context.Context, path string, seen map[string]bool) (bool, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc, err := ParseDocument(f, fallback)
	if err != nil {
		return false, 0, err
	}
	if seen[doc.Course.Title] {
		p.logger.WithField("course", doc.Course.Title).Debug("Course already stored")
		return false, 0, nil
	}

	chunks := BuildChunks(doc, p.chunkSize, p.chunkOverlap)
	if len(chunks) == 0 {
		return false, 0, fmt.Errorf("document %q has no content", doc.Course.Title)
	}
	if err := p.store.AddCourse(ctx, &doc.Course); err != nil {
		return false, 0, err
	}
	if err := p.store.AddChunks(ctx, doc.Course.Title, chunks); err != nil {
		return false, 0, err
	}

	seen[doc.Course.Title] = true
	p.logger.WithFields(logging.Fields{
		"course": doc.Course.Title,
		"chunks": len(chunks),
	}).Info("Course ingested")
	return true, len(chunks), nil
}

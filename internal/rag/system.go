package rag

import (
	"context"
	"fmt"
	"time"

	"coursepilot/internal/generator"
	"coursepilot/internal/tools"
	"coursepilot/pkg/logging"
)

const credentialsPlaceholder = "I will tell you the answer once I am plugged in (have an API key)."

const queryPrompt = "Answer this question about course materials: %s"

// Engine generates an answer for a query, optionally calling tools.
// Satisfied by generator.Generator.
type Engine interface {
	Generate(ctx context.Context, query, history string, executor generator.ToolExecutor) (string, error)
}

// Toolset is the tool registry surface the system needs: dispatch plus
// source tracking. Satisfied by tools.Registry.
type Toolset interface {
	generator.ToolExecutor
	LastSources() []tools.Source
	ResetSources()
}

// Sessions tracks per-session conversation history.
// Satisfied by session.Manager.
type Sessions interface {
	Create() string
	History(id string) string
	AddExchange(id, question, answer string)
	Clear(id string)
}

// Catalog answers course analytics questions. Satisfied by knowledge.Store.
type Catalog interface {
	CourseCount(ctx context.Context) (int, error)
	CourseTitles(ctx context.Context) ([]string, error)
}

// Ingestor loads course documents from a folder.
// Satisfied by ingest.Processor.
type Ingestor interface {
	ProcessFolder(ctx context.Context, dir string) (int, int, error)
}

// Analytics summarizes the stored course catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System ties the engine, tools, sessions and catalog together behind the
// query API.
type System struct {
	engine         Engine
	toolset        Toolset
	sessions       Sessions
	catalog        Catalog
	ingestor       Ingestor
	hasCredentials bool
	logger         logging.Logger
}

func NewSystem(engine Engine, toolset Toolset, sessions Sessions, catalog Catalog, ingestor Ingestor, hasCredentials bool, logger logging.Logger) *System {
	return &System{
		engine:         engine,
		toolset:        toolset,
		sessions:       sessions,
		catalog:        catalog,
		ingestor:       ingestor,
		hasCredentials: hasCredentials,
		logger:         logger,
	}
}

// Query answers a question about course materials, returning the answer and
// the sources consulted. A blank sessionID disables history and recording.
func (s *System) Query(ctx context.Context, query, sessionID string) (string, []tools.Source, error) {
	start := time.Now()
	defer func() { queryDuration.Observe(time.Since(start).Seconds()) }()

	if !s.hasCredentials {
		queriesTotal.WithLabelValues("unconfigured").Inc()
		return credentialsPlaceholder, nil, nil
	}

	history := ""
	if sessionID != "" {
		history = s.sessions.History(sessionID)
	}

	prompt := fmt.Sprintf(queryPrompt, query)
	answer, err := s.engine.Generate(ctx, prompt, history, s.toolset)

	// Sources are read once per query, then cleared.
	sources := s.toolset.LastSources()
	s.toolset.ResetSources()

	if err != nil {
		queriesTotal.WithLabelValues("error").Inc()
		return "", nil, fmt.Errorf("generate answer: %w", err)
	}
	queriesTotal.WithLabelValues("ok").Inc()

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, query, answer)
	}
	return answer, sources, nil
}

// Analytics reports the stored course count and titles.
func (s *System) Analytics(ctx context.Context) (*Analytics, error) {
	count, err := s.catalog.CourseCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("course analytics: %w", err)
	}
	titles, err := s.catalog.CourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("course analytics: %w", err)
	}
	return &Analytics{TotalCourses: count, CourseTitles: titles}, nil
}

// AddCourseFolder ingests every course document in dir, skipping courses that
// are already stored. Returns courses and chunks added.
func (s *System) AddCourseFolder(ctx context.Context, dir string) (int, int, error) {
	return s.ingestor.ProcessFolder(ctx, dir)
}

package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/learnflow/internal/models"
	"github.com/young1lin/learnflow/pkg/logger"
)

// FallbackExplanation replaces the explanation when a search fails
const FallbackExplanation = "Sorry, we couldn't generate learning content for that topic right now. Please try again in a moment."

var (
	// ErrEmptyQuery is returned for empty or whitespace-only queries
	ErrEmptyQuery = errors.New("query is empty")
	// ErrBusy is returned when a search is submitted while another is in flight
	ErrBusy = errors.New("a search is already in progress")
	// ErrInvalidSelection is returned for an unknown question index or option
	ErrInvalidSelection = errors.New("invalid quiz selection")

	errNoResult = errors.New("generator returned no result")
)

// Phase is the lifecycle position of a session's current search
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetching
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Generator produces a ResultBundle for a query
type Generator interface {
	Generate(ctx context.Context, query string) (*models.ResultBundle, error)
}

// FallbackBundle is installed when a search fails
func FallbackBundle() models.ResultBundle {
	return models.ResultBundle{
		Explanation: FallbackExplanation,
		Videos:      []models.Video{},
		Quiz:        []models.QuizItem{},
	}
}

// State is an immutable snapshot of a session used for rendering
type State struct {
	ID     string
	Phase  Phase
	Query  string
	Bundle models.ResultBundle
	Quiz   QuizState
}

// Session holds the query lifecycle and quiz interaction state of one browser session.
// All transitions go through its methods; the zero value is not usable, see NewSession.
type Session struct {
	mu       sync.Mutex
	id       string
	phase    Phase
	query    string
	bundle   models.ResultBundle
	quiz     QuizState
	lastSeen time.Time
}

// NewSession creates an idle session
func NewSession(id string) *Session {
	return &Session{
		id:       id,
		bundle:   models.ResultBundle{Videos: []models.Video{}, Quiz: []models.QuizItem{}},
		quiz:     newQuizState(),
		lastSeen: time.Now(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// Begin validates the query and moves the session into Fetching.
// The quiz panel is hidden for every new search.
func (s *Session) Begin(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseFetching {
		return "", ErrBusy
	}

	s.phase = PhaseFetching
	s.query = query
	s.quiz.Visible = false
	s.touch()
	return query, nil
}

// Complete installs the outcome of the in-flight search. On error the
// fallback bundle is installed instead. Either way the previous answers and
// feedback are discarded, since their indices refer to the old quiz.
func (s *Session) Complete(bundle *models.ResultBundle, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil || bundle == nil {
		s.bundle = FallbackBundle()
		s.phase = PhaseFailed
	} else {
		s.bundle = bundle.Clone()
		s.phase = PhaseSucceeded
	}
	s.quiz.reset()
	s.touch()
}

// Submit runs one full search cycle: Begin, Generate, Complete.
// The generator is called without holding the session lock. A generation
// failure is logged, installed as the fallback bundle and returned.
func (s *Session) Submit(ctx context.Context, query string, gen Generator) error {
	q, err := s.Begin(query)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx).With(zap.String("session_id", s.id))
	start := time.Now()

	bundle, err := gen.Generate(ctx, q)
	if err == nil && bundle == nil {
		err = errNoResult
	}
	s.Complete(bundle, err)

	if err != nil {
		log.Error("generation failed",
			zap.Int("query_len", len(q)),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Error(err),
		)
		return err
	}

	log.Info("search completed",
		zap.Int("quiz_count", len(bundle.Quiz)),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return nil
}

// ToggleQuiz flips quiz panel visibility
func (s *Session) ToggleQuiz() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quiz.Visible = !s.quiz.Visible
	s.touch()
	return s.quiz.Visible
}

// SelectAnswer records the option chosen for a question.
// Feedback already computed for the question is left as is until the quiz
// is submitted again.
func (s *Session) SelectAnswer(index int, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	return s.quiz.selectAnswer(s.bundle.Quiz, index, option)
}

// SubmitQuiz grades every question of the current quiz
func (s *Session) SubmitQuiz() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.touch()
	s.quiz.grade(s.bundle.Quiz)
	return copyFeedback(s.quiz.Feedback)
}

// Snapshot returns a deep copy of the session state
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		ID:     s.id,
		Phase:  s.phase,
		Query:  s.query,
		Bundle: s.bundle.Clone(),
		Quiz:   s.quiz.clone(),
	}
}

// Phase returns the current phase
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// fetching reports whether a search is in flight; used by the sweeper
func (s *Session) fetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == PhaseFetching
}

// touch must be called with s.mu held
func (s *Session) touch() {
	s.lastSeen = time.Now()
}

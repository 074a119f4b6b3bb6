package view

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/young1lin/learnflow/internal/models"
	"github.com/young1lin/learnflow/internal/render"
	"github.com/young1lin/learnflow/internal/session"
)

func newTestPage(t *testing.T) *Page {
	t.Helper()
	p, err := New(render.New(), "/assets/typeset.js")
	if err != nil {
		t.Fatalf("Failed to create page: %v", err)
	}
	return p
}

func binomialState() session.State {
	return session.State{
		ID:    "s1",
		Phase: session.PhaseSucceeded,
		Query: "binomial theorem",
		Bundle: models.ResultBundle{
			Explanation: "# Binomial\n...",
			Examples:    "Example 1...",
			Videos:      []models.Video{{URL: "https://youtube.com/watch?v=xyz", Title: "T"}},
			Quiz:        []models.QuizItem{{Question: "Q1", Options: []string{"A", "B"}, CorrectAnswer: "A"}},
		},
		Quiz: session.QuizState{Selections: map[int]string{}, Feedback: map[int]bool{}},
	}
}

// findAll collects element nodes matching pred
func findAll(n *html.Node, pred func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && pred(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func renderDoc(t *testing.T, p *Page, st session.State) (*html.Node, string) {
	t.Helper()
	var buf bytes.Buffer
	if err := p.Render(&buf, st, ""); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := buf.String()
	doc, err := html.Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Failed to parse rendered page: %v", err)
	}
	return doc, out
}

func TestRender_EndToEnd(t *testing.T) {
	p := newTestPage(t)
	st := binomialState()

	t.Run("Quiz hidden by default", func(t *testing.T) {
		doc, out := renderDoc(t, p, st)

		if !strings.Contains(out, "Binomial</h1>") {
			t.Errorf("Expected rendered explanation heading")
		}

		iframes := findAll(doc, func(n *html.Node) bool { return n.Data == "iframe" })
		if len(iframes) != 1 {
			t.Fatalf("Expected 1 iframe, got %d", len(iframes))
		}
		src, _ := attr(iframes[0], "src")
		if !strings.HasSuffix(src, "/embed/xyz") {
			t.Errorf("Expected iframe src ending /embed/xyz, got %q", src)
		}

		radios := findAll(doc, func(n *html.Node) bool {
			typ, _ := attr(n, "type")
			return n.Data == "input" && typ == "radio"
		})
		if len(radios) != 0 {
			t.Errorf("Expected no quiz options while hidden, got %d", len(radios))
		}

		toggles := findAll(doc, func(n *html.Node) bool {
			id, _ := attr(n, "id")
			return id == "quiz-toggle"
		})
		if len(toggles) != 1 {
			t.Errorf("Expected quiz toggle button, got %d", len(toggles))
		}
	})

	t.Run("Quiz visible after toggle", func(t *testing.T) {
		visible := st
		visible.Quiz.Visible = true
		doc, _ := renderDoc(t, p, visible)

		fieldsets := findAll(doc, func(n *html.Node) bool { return n.Data == "fieldset" })
		if len(fieldsets) != 1 {
			t.Fatalf("Expected 1 question, got %d", len(fieldsets))
		}

		radios := findAll(doc, func(n *html.Node) bool {
			typ, _ := attr(n, "type")
			return n.Data == "input" && typ == "radio"
		})
		if len(radios) != 2 {
			t.Fatalf("Expected 2 radio options, got %d", len(radios))
		}
		for _, r := range radios {
			if name, _ := attr(r, "name"); name != "q0" {
				t.Errorf("Expected radio name q0, got %q", name)
			}
		}
	})
}

func TestBuild_Feedback(t *testing.T) {
	p := newTestPage(t)

	t.Run("Correct answer", func(t *testing.T) {
		st := binomialState()
		st.Quiz.Visible = true
		st.Quiz.Selections[0] = "A"
		st.Quiz.Feedback[0] = true

		data := p.Build(st)
		q := data.Questions[0]
		if q.Message != "Correct!" {
			t.Errorf("Expected 'Correct!', got %q", q.Message)
		}
		if q.Options[0].Class != "correct" || !q.Options[0].Checked {
			t.Errorf("Expected selected correct option styled correct, got %+v", q.Options[0])
		}
		if q.Options[1].Class != "" {
			t.Errorf("Expected unselected option unstyled, got %q", q.Options[1].Class)
		}
	})

	t.Run("Wrong answer", func(t *testing.T) {
		st := binomialState()
		st.Quiz.Visible = true
		st.Quiz.Selections[0] = "B"
		st.Quiz.Feedback[0] = false

		q := p.Build(st).Questions[0]
		if q.Message != "Incorrect. The correct answer is: A" {
			t.Errorf("Unexpected message %q", q.Message)
		}
		if q.Options[0].Class != "correct" {
			t.Errorf("Expected correct option highlighted, got %q", q.Options[0].Class)
		}
		if q.Options[1].Class != "incorrect" {
			t.Errorf("Expected wrong selection styled incorrect, got %q", q.Options[1].Class)
		}
	})

	t.Run("Unanswered", func(t *testing.T) {
		st := binomialState()
		st.Quiz.Visible = true
		st.Quiz.Feedback[0] = false

		q := p.Build(st).Questions[0]
		if q.Message != "Incorrect. The correct answer is: A" {
			t.Errorf("Unexpected message %q", q.Message)
		}
		if q.Options[1].Class != "" {
			t.Errorf("Expected unselected wrong option unstyled, got %q", q.Options[1].Class)
		}
	})

	t.Run("No feedback before submit", func(t *testing.T) {
		st := binomialState()
		st.Quiz.Visible = true
		st.Quiz.Selections[0] = "B"

		q := p.Build(st).Questions[0]
		if q.Submitted || q.Message != "" {
			t.Errorf("Expected no feedback, got %+v", q)
		}
		for _, o := range q.Options {
			if o.Class != "" {
				t.Errorf("Expected no styling before submit, got %q", o.Class)
			}
		}
	})
}

func TestBuild_Phases(t *testing.T) {
	p := newTestPage(t)

	t.Run("Idle", func(t *testing.T) {
		data := p.Build(session.State{Phase: session.PhaseIdle})
		if data.HasResult || data.Fetching {
			t.Errorf("Expected empty idle page, got %+v", data)
		}
	})

	t.Run("Fetching disables submit", func(t *testing.T) {
		doc, _ := renderDoc(t, p, session.State{Phase: session.PhaseFetching, Query: "q"})
		buttons := findAll(doc, func(n *html.Node) bool {
			id, _ := attr(n, "id")
			return id == "search-submit"
		})
		if len(buttons) != 1 {
			t.Fatalf("Expected search button, got %d", len(buttons))
		}
		if _, disabled := attr(buttons[0], "disabled"); !disabled {
			t.Error("Expected search button to be disabled while fetching")
		}
	})

	t.Run("Failed shows fallback and no quiz", func(t *testing.T) {
		st := session.State{Phase: session.PhaseFailed, Query: "q", Bundle: session.FallbackBundle()}
		st.Quiz.Visible = true

		data := p.Build(st)
		if !strings.Contains(string(data.Explanation), "Sorry") {
			t.Errorf("Expected fallback explanation, got %q", data.Explanation)
		}
		if data.HasQuiz || data.QuizVisible || len(data.Videos) != 0 {
			t.Errorf("Expected no quiz or videos, got %+v", data)
		}
	})

	t.Run("Markup in content is sanitized", func(t *testing.T) {
		st := binomialState()
		st.Bundle.Explanation = "Hi <script>alert(1)</script>"
		st.Bundle.Quiz[0].Question = "<img src=x onerror=alert(1)>"
		st.Quiz.Visible = true

		_, out := renderDoc(t, p, st)
		if strings.Contains(out, "alert(1)</script>") {
			t.Error("Expected explanation script to be removed")
		}
		if strings.Contains(out, "<img src=x") {
			t.Error("Expected quiz question markup to be escaped")
		}
	})
}

// Package view renders session state into the LearnFlow page.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/young1lin/learnflow/internal/embedurl"
	"github.com/young1lin/learnflow/internal/render"
	"github.com/young1lin/learnflow/internal/session"
)

//go:embed templates/page.html
var templateFS embed.FS

// Option classes applied once feedback exists for a question
const (
	classCorrect   = "correct"
	classIncorrect = "incorrect"
)

// PageData is the view model for page.html
type PageData struct {
	Query         string
	Fetching      bool
	Failed        bool
	HasResult     bool
	Explanation   template.HTML
	Examples      template.HTML
	Videos        []VideoView
	HasQuiz       bool
	QuizVisible   bool
	Questions     []QuestionView
	Notice        string
	TypesetScript string
}

// VideoView is one embedded video
type VideoView struct {
	Title    string
	EmbedURL string
}

// QuestionView is one quiz question with its rendered options
type QuestionView struct {
	Index     int
	Number    int
	Question  string
	Options   []OptionView
	Submitted bool
	Correct   bool
	Message   string
}

// OptionView is one radio choice
type OptionView struct {
	Value   string
	Checked bool
	Class   string
}

// Page renders LearnFlow pages
type Page struct {
	tmpl     *template.Template
	renderer *render.Renderer
	typeset  string
}

// New parses the page template. typesetScript is the path the page loads the
// math engine from; empty disables typesetting.
func New(renderer *render.Renderer, typesetScript string) (*Page, error) {
	tmpl, err := template.New("page.html").ParseFS(templateFS, "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	return &Page{tmpl: tmpl, renderer: renderer, typeset: typesetScript}, nil
}

// Build converts a session snapshot into the page view model
func (p *Page) Build(st session.State) PageData {
	data := PageData{
		Query:         st.Query,
		Fetching:      st.Phase == session.PhaseFetching,
		Failed:        st.Phase == session.PhaseFailed,
		HasResult:     st.Phase == session.PhaseSucceeded || st.Phase == session.PhaseFailed,
		TypesetScript: p.typeset,
	}
	if !data.HasResult {
		return data
	}

	// Sanitized before it reaches the template
	data.Explanation = p.renderer.RenderHTML(st.Bundle.Explanation)
	data.Examples = p.renderer.RenderHTML(st.Bundle.Examples)

	for _, v := range st.Bundle.Videos {
		data.Videos = append(data.Videos, VideoView{
			Title:    v.Title,
			EmbedURL: embedurl.Normalize(v.URL),
		})
	}

	data.HasQuiz = len(st.Bundle.Quiz) > 0
	data.QuizVisible = data.HasQuiz && st.Quiz.Visible
	if !data.QuizVisible {
		return data
	}

	for i, item := range st.Bundle.Quiz {
		selected, hasSelection := st.Quiz.Selections[i]
		q := QuestionView{
			Index:     i,
			Number:    i + 1,
			Question:  item.Question,
			Submitted: st.Quiz.Submitted(i),
			Correct:   st.Quiz.Feedback[i],
		}
		if q.Submitted {
			if q.Correct {
				q.Message = "Correct!"
			} else {
				q.Message = "Incorrect. The correct answer is: " + item.CorrectAnswer
			}
		}

		for _, opt := range item.Options {
			o := OptionView{Value: opt, Checked: hasSelection && selected == opt}
			if q.Submitted {
				switch {
				case opt == item.CorrectAnswer:
					o.Class = classCorrect
				case o.Checked:
					o.Class = classIncorrect
				}
			}
			q.Options = append(q.Options, o)
		}
		data.Questions = append(data.Questions, q)
	}

	return data
}

// Render writes the page for st. notice is an optional one-line message.
func (p *Page) Render(w io.Writer, st session.State, notice string) error {
	data := p.Build(st)
	data.Notice = notice
	return p.tmpl.Execute(w, data)
}

package session

import (
	"fmt"

	"github.com/young1lin/learnflow/internal/models"
)

// QuizState tracks the quiz panel and the user's answers for the current bundle
type QuizState struct {
	Visible    bool
	Selections map[int]string // question index -> chosen option
	Feedback   map[int]bool   // question index -> correct, set by a quiz submit
}

func newQuizState() QuizState {
	return QuizState{
		Selections: make(map[int]string),
		Feedback:   make(map[int]bool),
	}
}

// Submitted reports whether feedback exists for the question
func (q QuizState) Submitted(index int) bool {
	_, ok := q.Feedback[index]
	return ok
}

func (q *QuizState) reset() {
	q.Selections = make(map[int]string)
	q.Feedback = make(map[int]bool)
}

func (q *QuizState) selectAnswer(items []models.QuizItem, index int, option string) error {
	if index < 0 || index >= len(items) {
		return fmt.Errorf("%w: question %d out of range (quiz has %d)", ErrInvalidSelection, index, len(items))
	}
	if !items[index].HasOption(option) {
		return fmt.Errorf("%w: %q is not an option of question %d", ErrInvalidSelection, option, index)
	}
	q.Selections[index] = option
	return nil
}

// grade computes feedback for every question. An unanswered question is incorrect.
func (q *QuizState) grade(items []models.QuizItem) {
	q.Feedback = make(map[int]bool, len(items))
	for i, item := range items {
		selected, ok := q.Selections[i]
		q.Feedback[i] = ok && selected == item.CorrectAnswer
	}
}

func (q QuizState) clone() QuizState {
	out := QuizState{
		Visible:    q.Visible,
		Selections: make(map[int]string, len(q.Selections)),
		Feedback:   copyFeedback(q.Feedback),
	}
	for k, v := range q.Selections {
		out.Selections[k] = v
	}
	return out
}

func copyFeedback(in map[int]bool) map[int]bool {
	out := make(map[int]bool, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

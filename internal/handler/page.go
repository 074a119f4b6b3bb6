package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/learnflow/internal/session"
)

// SessionCookie carries the session id between form posts
const SessionCookie = "learnflow_session"

// handleIndex starts a fresh session; nothing carries over a reload
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.handleError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Only GET method is allowed", log)
		return
	}

	if c, err := r.Cookie(SessionCookie); err == nil {
		h.store.Delete(c.Value)
	}

	sess := h.store.Create()
	h.setSessionCookie(w, sess)
	log.Debug("session created", zap.String("session_id", sess.ID()))

	h.renderPage(w, r, sess, http.StatusOK, "", log)
}

// handleSearch runs one search cycle for the session
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	sess, ok := h.formSession(w, r, log)
	if !ok {
		return
	}

	query := r.PostFormValue("query")
	err := sess.Submit(detach(r.Context()), query, h.client)

	switch {
	case errors.Is(err, session.ErrEmptyQuery):
		// Nothing is submitted and the page stays as it was
		h.renderPage(w, r, sess, http.StatusOK, "", log)
	case errors.Is(err, session.ErrBusy):
		h.renderPage(w, r, sess, http.StatusConflict, "A search is already running. Please wait for it to finish.", log)
	default:
		// Generation failures are already installed as the fallback content
		h.renderPage(w, r, sess, http.StatusOK, "", log)
	}
}

// handleQuizToggle shows or hides the quiz panel
func (h *Handler) handleQuizToggle(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	sess, ok := h.formSession(w, r, log)
	if !ok {
		return
	}

	visible := sess.ToggleQuiz()
	log.Debug("quiz toggled", zap.Bool("visible", visible))
	h.renderPage(w, r, sess, http.StatusOK, "", log)
}

// handleQuizAnswer records a single selection, posted by the page as radios change
func (h *Handler) handleQuizAnswer(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	sess, ok := h.formSession(w, r, log)
	if !ok {
		return
	}

	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err == nil {
		err = sess.SelectAnswer(index, r.PostFormValue("option"))
	}
	if err != nil {
		log.Warn("invalid quiz selection", zap.Error(err))
		h.renderPage(w, r, sess, http.StatusBadRequest, "That answer could not be recorded.", log)
		return
	}

	h.renderPage(w, r, sess, http.StatusOK, "", log)
}

// handleQuizSubmit applies the submitted radio values, then grades the quiz
func (h *Handler) handleQuizSubmit(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	sess, ok := h.formSession(w, r, log)
	if !ok {
		return
	}

	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, "q") || len(values) == 0 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimPrefix(key, "q"))
		if err != nil {
			continue
		}
		if err := sess.SelectAnswer(index, values[0]); err != nil {
			log.Warn("ignoring invalid quiz selection", zap.String("field", key), zap.Error(err))
		}
	}

	feedback := sess.SubmitQuiz()
	correct := 0
	for _, right := range feedback {
		if right {
			correct++
		}
	}
	log.Info("quiz submitted",
		zap.String("session_id", sess.ID()),
		zap.Int("correct", correct),
		zap.Int("total", len(feedback)),
	)

	h.renderPage(w, r, sess, http.StatusOK, "", log)
}

// formSession parses a POST form and resolves its session. An unknown or
// missing cookie starts a new session.
func (h *Handler) formSession(w http.ResponseWriter, r *http.Request, log *zap.Logger) (*session.Session, bool) {
	if r.Method != http.MethodPost {
		h.handleError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Only POST method is allowed", log)
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		h.handleError(w, r, http.StatusBadRequest, "parse_error", "Failed to parse form", log)
		return nil, false
	}

	if c, err := r.Cookie(SessionCookie); err == nil {
		if sess, ok := h.store.Get(c.Value); ok {
			// Slide the cookie expiry along with the session's idle timer
			h.setSessionCookie(w, sess)
			return sess, true
		}
		log.Info("unknown session, starting a new one", zap.String("session_id", c.Value))
	}

	sess := h.store.Create()
	h.setSessionCookie(w, sess)
	return sess, true
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.ID(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   h.config.Session.IdleTimeout,
	})
}

// renderPage renders into a buffer first so a template failure does not
// leave a half written page
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, sess *session.Session, status int, notice string, log *zap.Logger) {
	var buf bytes.Buffer
	if err := h.page.Render(&buf, sess.Snapshot(), notice); err != nil {
		log.Error("failed to render page", zap.Error(err))
		http.Error(w, "Template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"flashquiz"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

type Server struct {
	db           *flashquiz.DB
	cookies      sessions.Store
	quizzes      *flashquiz.SessionStore
	templates    map[string]*template.Template
	newGenerator func() *flashquiz.QuizGenerator
	logDir       string

	// quiz session ID -> stored quiz ID
	quizIDs sync.Map
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/quiz/new", s.handleNewQuiz)
	mux.HandleFunc("/quiz", s.handleQuiz)
	mux.HandleFunc("/quiz/submit", s.handleSubmit)
	mux.HandleFunc("/quiz/results", s.handleResults)
	mux.HandleFunc("/quiz/reset", s.handleReset)
	return mux
}

// userKey returns the handle stored in the user's cookie, creating one if needed
func (s *Server) userKey(w http.ResponseWriter, r *http.Request) string {
	session, err := s.cookies.Get(r, cookieName)
	if err != nil {
		// an undecodable cookie still yields a fresh session
		log.Printf("Session decode error: %v", err)
	}
	if key, ok := session.Values["key"].(string); ok && key != "" {
		return key
	}

	key := uuid.New().String()
	session.Values["key"] = key
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	return key
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	if err := s.templates[name].ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}

func (s *Server) renderHome(w http.ResponseWriter, status int, message string) {
	attempts, err := s.db.GetAttempts(10)
	if err != nil {
		log.Printf("Failed to get attempts: %v", err)
	}
	w.WriteHeader(status)
	s.render(w, "home", map[string]interface{}{
		"Error":        message,
		"Attempts":     attempts,
		"MinQuestions": minQuestions,
		"MaxQuestions": maxQuestions,
		"Default":      defaultQuestion,
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.userKey(w, r)
	s.renderHome(w, http.StatusOK, "")
}

func (s *Server) handleNewQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := s.userKey(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.renderHome(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("document")
	if err != nil {
		s.renderHome(w, http.StatusBadRequest, "Please choose a PDF, DOCX or TXT file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.renderHome(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}

	doc := flashquiz.Document{
		Name:   header.Filename,
		Format: flashquiz.DetectFormat(header.Filename, header.Header.Get("Content-Type")),
		Data:   data,
	}
	numQuestions := parseNumQuestions(r.FormValue("num_questions"))

	// each quiz gets its own generator
	generator := s.newGenerator()
	_, points, err := generator.LearningPoints(doc)
	if err != nil {
		s.renderHome(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	quizSession := s.quizzes.Begin(key)
	go s.generate(key, quizSession, generator, doc.Name, points, numQuestions)

	http.Redirect(w, r, "/quiz", http.StatusSeeOther)
}

// generate runs in the background and applies its result only if the user
// has not started another quiz in the meantime.
func (s *Server) generate(key string, quizSession *flashquiz.QuizSession, generator *flashquiz.QuizGenerator, documentName string, points []flashquiz.LearningPoint, numQuestions int) {
	quizID := flashquiz.NewQuizID()

	if s.logDir != "" {
		logger, err := flashquiz.NewLLMLogger(s.logDir, quizID, flashquiz.GenerationRequest{
			DocumentName: documentName,
			NumQuestions: numQuestions,
		}, len(points))
		if err != nil {
			log.Printf("Failed to create logger for quiz %s: %v", quizID, err)
		} else {
			generator.SetLogger(logger)
			defer logger.Close()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := generator.Generate(ctx, points, numQuestions, func(done, total int) {
		if err := s.quizzes.Progress(key, quizSession, done, total); err != nil {
			// the user moved on, stop spending API calls
			cancel()
		}
	})

	if err == nil && len(result.Questions) > 0 {
		quiz := flashquiz.NewQuiz(quizID, documentName, result)
		if err := s.db.SaveQuiz(quiz); err != nil {
			log.Printf("Failed to store quiz %s: %v", quizID, err)
		} else {
			s.quizIDs.Store(quizSession.ID, quizID)
		}
	}

	if err := s.quizzes.Finish(key, quizSession, result, err); err != nil {
		if errors.Is(err, flashquiz.ErrSessionReplaced) {
			log.Printf("Discarding results for replaced session %s", quizSession.ID)
			return
		}
		log.Printf("Failed to start quiz session %s: %v", quizSession.ID, err)
	}
}

type quizView struct {
	Questions []flashquiz.Question
	Answers   map[int]int
	Skipped   []string
	Requested int
	Shortfall int
}

func (s *Server) handleQuiz(w http.ResponseWriter, r *http.Request) {
	key := s.userKey(w, r)

	var (
		view       quizView
		status     flashquiz.QuizStatus
		generation flashquiz.GenerationStatus
	)
	err := s.quizzes.Do(key, func(qs *flashquiz.QuizSession, gen flashquiz.GenerationStatus) error {
		status = qs.Status()
		generation = gen
		view.Questions = qs.Questions()
		view.Answers = qs.Answers()
		for _, skipped := range gen.Skipped {
			view.Skipped = append(view.Skipped, skipped.String())
		}
		view.Requested = gen.Requested
		view.Shortfall = gen.Shortfall
		return nil
	})
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch status {
	case flashquiz.StatusSubmitted:
		http.Redirect(w, r, "/quiz/results", http.StatusSeeOther)
	case flashquiz.StatusInProgress:
		s.render(w, "quiz", view)
	default:
		if generation.Finished && generation.Err != nil {
			s.quizzes.Discard(key)
			s.renderHome(w, http.StatusBadGateway, generation.Err.Error())
			return
		}
		s.render(w, "generating", generation)
	}
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	key := s.userKey(w, r)

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	var (
		report    *flashquiz.ScoreReport
		sessionID string
	)
	err := s.quizzes.Do(key, func(qs *flashquiz.QuizSession, _ flashquiz.GenerationStatus) error {
		if qs.Status() == flashquiz.StatusInProgress {
			answers, err := parseAnswers(r, qs.Questions())
			if err != nil {
				return err
			}
			for i, selected := range answers {
				if err := qs.RecordAnswer(i, selected); err != nil {
					return err
				}
			}
		}

		var err error
		report, err = qs.Submit()
		sessionID = qs.ID
		return err
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if quizID, ok := s.quizIDs.LoadAndDelete(sessionID); ok {
		if err := s.db.SaveAttempt(sessionID, quizID.(string), report); err != nil {
			log.Printf("Failed to store attempt %s: %v", sessionID, err)
		}
	}

	http.Redirect(w, r, "/quiz/results", http.StatusSeeOther)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	key := s.userKey(w, r)

	var report *flashquiz.ScoreReport
	err := s.quizzes.Do(key, func(qs *flashquiz.QuizSession, _ flashquiz.GenerationStatus) error {
		var err error
		report, err = flashquiz.Score(qs)
		return err
	})
	if err != nil {
		http.Redirect(w, r, "/quiz", http.StatusSeeOther)
		return
	}

	s.render(w, "results", report)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.quizzes.Discard(s.userKey(w, r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// parseAnswers reads the q_<index> form fields and checks every one before
// any answer is recorded, so a bad field leaves the session untouched.
func parseAnswers(r *http.Request, questions []flashquiz.Question) (map[int]int, error) {
	answers := make(map[int]int)
	for i, q := range questions {
		value := r.FormValue(fmt.Sprintf("q_%d", i))
		if value == "" {
			continue
		}
		selected, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", flashquiz.ErrInvalidAnswer, value)
		}
		if selected < 0 || selected >= len(q.Options) {
			return nil, fmt.Errorf("%w: option %d does not exist for question %d", flashquiz.ErrInvalidAnswer, selected+1, i+1)
		}
		answers[i] = selected
	}
	return answers, nil
}

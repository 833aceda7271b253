package main

import (
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"

	"flashquiz"

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	cookieName      = "flashquiz-session"
	maxUploadBytes  = 20 << 20
	defaultQuestion = 5
	minQuestions    = 3
	maxQuestions    = 15
)

func main() {
	_ = godotenv.Load()
	flashquiz.SetVerbose(os.Getenv("VERBOSE") != "")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	dbPath := os.Getenv("QUIZ_DB")
	if dbPath == "" {
		dbPath = "./quiz.db"
	}
	db, err := flashquiz.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.CloseDB()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		log.Printf("SESSION_KEY not set, using an insecure development key")
		sessionKey = "flashquiz-development-key"
	}

	templates, err := loadTemplates()
	if err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	server := &Server{
		db:        db,
		cookies:   newCookieStore(sessionKey, os.Getenv("COOKIE_SECURE") != ""),
		quizzes:   flashquiz.NewSessionStore(),
		templates: templates,
		newGenerator: func() *flashquiz.QuizGenerator {
			completer := flashquiz.NewOpenAICompleter(flashquiz.CompleterConfig{
				APIKey:      apiKey,
				BaseURL:     os.Getenv("OPENAI_BASE_URL"),
				Model:       os.Getenv("OPENAI_MODEL"),
				Temperature: 0.7,
			})
			return flashquiz.NewQuizGenerator(flashquiz.NewQuestionMaker(completer, flashquiz.DefaultMaxTokens), flashquiz.Options{})
		},
		logDir: os.Getenv("LLM_LOG_DIR"),
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, server.routes()))
}

// newCookieStore builds the store holding the user's session handle.
// Secure cookies are only sent back over TLS, so they stay off for plain HTTP.
func newCookieStore(key string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(key))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

func loadTemplates() (map[string]*template.Template, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"letter": func(i int) string {
			return string(rune('A' + i))
		},
		"percent": func(done, total int) int {
			if total == 0 {
				return 0
			}
			return done * 100 / total
		},
		"answered": func(answers map[int]int, question, option int) bool {
			selected, ok := answers[question]
			return ok && selected == option
		},
	}

	templates := make(map[string]*template.Template)
	for _, name := range []string{"home", "generating", "quiz", "results"} {
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(templateFS, "templates/base.html", fmt.Sprintf("templates/%s.html", name))
		if err != nil {
			return nil, err
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func parseNumQuestions(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultQuestion
	}
	if n < minQuestions {
		return minQuestions
	}
	if n > maxQuestions {
		return maxQuestions
	}
	return n
}

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"medlearn-service/internal/app"
)

// NewRouter wires every handler into the REST surface.
func NewRouter(
	content *app.ContentService,
	quiz *app.QuizService,
	accounts *app.AccountService,
	generate *app.GenerateService,
) http.Handler {
	contentHandler := NewContentHandler(content)
	quizHandler := NewQuizHandler(quiz)
	accountHandler := NewAccountHandler(accounts)
	wsHandler := NewWSHandler(quiz)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/subjects", func(r chi.Router) {
		r.Get("/", contentHandler.ListSubjects)
		r.Post("/", contentHandler.CreateSubject)
		r.Route("/{subjectID}", func(r chi.Router) {
			r.Get("/", contentHandler.GetSubject)
			r.Put("/", contentHandler.RenameSubject)
			r.Delete("/", contentHandler.DeleteSubject)
			r.Get("/chapters", contentHandler.ListChapters)
			r.Post("/chapters", contentHandler.CreateChapter)
		})
	})

	r.Route("/chapters/{chapterID}", func(r chi.Router) {
		r.Get("/", contentHandler.GetChapter)
		r.Put("/", contentHandler.RenameChapter)
		r.Delete("/", contentHandler.DeleteChapter)
		r.Get("/topics", contentHandler.ListTopics)
		r.Post("/topics", contentHandler.CreateTopic)
	})

	r.Route("/topics/{topicID}", func(r chi.Router) {
		r.Get("/", contentHandler.GetTopic)
		r.Put("/", contentHandler.RenameTopic)
		r.Delete("/", contentHandler.DeleteTopic)

		r.Post("/uploads", contentHandler.UploadSteps)
		r.Delete("/uploads", contentHandler.DeleteUploads)
		r.Get("/content", contentHandler.MergedContent)

		r.Post("/mcqs", quizHandler.UploadMCQs)
		r.Get("/mcqs", quizHandler.ListMCQs)
		r.Post("/answers", quizHandler.SubmitAnswer)
		r.Get("/leaderboard", quizHandler.Leaderboard)
		r.Get("/leaderboard/positional", quizHandler.PositionalLeaderboard)

		if generate != nil {
			generateHandler := NewGenerateHandler(generate)
			r.Post("/generate/steps", generateHandler.GenerateSteps)
			r.Post("/generate/mcqs", generateHandler.GenerateMCQs)
		}
	})

	r.Post("/users", accountHandler.Register)
	r.Get("/users/{userID}/status", accountHandler.Status)
	r.Get("/colleges", accountHandler.Colleges)
	r.Post("/otp/start", accountHandler.StartOTP)
	r.Post("/otp/check", accountHandler.CheckOTP)

	r.Get("/ws/leaderboard", wsHandler.ServeWS)

	return r
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"

	"biozen-backend-go/internal/config"
	"biozen-backend-go/internal/services"
)

type Server struct {
	DB     *sqlx.DB
	Config config.Config
	Tokens services.TokenService
	Mail   services.EmailSender
	OpenAI services.ChatService
}

func NewServer(db *sqlx.DB, cfg config.Config) *Server {
	tokens := services.TokenService{
		Secret:    []byte(cfg.JWTSecret),
		Issuer:    cfg.JWTIssuer,
		AccessTTL: time.Duration(cfg.AccessTTLSeconds) * time.Second,
	}
	mail := services.EmailSender{
		Host:        cfg.SMTPHost,
		Port:        cfg.SMTPPort,
		Username:    cfg.SMTPUsername,
		Password:    cfg.SMTPPassword,
		From:        cfg.MailFrom,
		FromName:    cfg.MailFromName,
		FrontendURL: cfg.FrontendURL,
	}
	chat := services.ChatService{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	}
	return &Server{
		DB:     db,
		Config: cfg,
		Tokens: tokens,
		Mail:   mail,
		OpenAI: chat,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	corsOptions := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(s.Config.CorsOrigins) > 0 {
		corsOptions.AllowedOrigins = s.Config.CorsOrigins
	} else {
		// No explicit allow-list: reflect the caller's origin so dev
		// frontends on any port can talk to the API with credentials.
		corsOptions.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return true
		}
	}
	r.Use(cors.Handler(corsOptions))
	r.Use(RequestLogger)

	authLimit := RateLimitByIP(10, time.Minute)

	r.Route("/api", func(api chi.Router) {
		api.Group(func(pub chi.Router) {
			pub.With(authLimit).Post("/auth/register", s.Register)
			pub.With(authLimit).Post("/auth/login", s.Login)
			pub.With(authLimit).Post("/auth/forgot-password", s.ForgotPassword)
			pub.With(authLimit).Post("/auth/reset-password", s.ResetPassword)

			pub.Get("/blog", s.PublicBlogList)
			pub.Get("/blog/{slug}", s.PublicBlogDetail)
			pub.Get("/files/{filename}", s.ServeFile)
		})

		api.Group(func(authed chi.Router) {
			authed.Use(WithAuth(s.Tokens))
			authed.Use(RequireUser)

			authed.Get("/me", s.Me)
			authed.Put("/me", s.UpdateMe)

			authed.Get("/measurements", s.ListMeasurements)
			authed.Post("/measurements", s.CreateMeasurement)
			authed.Delete("/measurements/{measurementId}", s.DeleteMeasurement)

			authed.Post("/chat", s.Chat)
			authed.Get("/chat/history", s.ChatHistory)

			authed.Route("/todos", func(todos chi.Router) {
				todos.Get("/", s.ListTodos)
				todos.Post("/", s.CreateTodo)
				todos.Put("/{todoId}", s.UpdateTodo)
				todos.Delete("/{todoId}", s.DeleteTodo)
			})
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))
			admin.Use(s.RequireAdmin)

			admin.Route("/users", func(users chi.Router) {
				users.Get("/", s.AdminListUsers)
				users.Get("/stats", s.AdminUserStats)
				users.Get("/{userId}", s.AdminGetUser)
				users.Put("/{userId}", s.AdminUpdateUser)
				users.Put("/{userId}/activate", s.AdminActivateUser)
				users.Put("/{userId}/deactivate", s.AdminDeactivateUser)
				users.Post("/{userId}/reset-password", s.AdminResetPassword)
			})

			admin.Route("/blog", func(blog chi.Router) {
				blog.Get("/", s.AdminListPosts)
				blog.Post("/", s.AdminCreatePost)
				blog.Get("/{postId}", s.AdminGetPost)
				blog.Put("/{postId}", s.AdminUpdatePost)
				blog.Delete("/{postId}", s.AdminDeletePost)
				blog.Put("/{postId}/publish", s.AdminPublishPost)
				blog.Put("/{postId}/unpublish", s.AdminUnpublishPost)
			})

			admin.Post("/upload/image", s.AdminUploadImage)
			admin.Get("/system", s.AdminSystem)
		})
	})

	return r
}

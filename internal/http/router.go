package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/jstarsky/app-marvel-backend/internal/config"
	"github.com/jstarsky/app-marvel-backend/internal/http/handlers"
	"github.com/jstarsky/app-marvel-backend/internal/http/middleware"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
	CORS     config.CORSConfig
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.AuthService, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),            // безопасно ловим паники
		middleware.RequestID(),          // формируем/прокидываем X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger), // кладём request-scoped логгер в контекст и логируем
	)
	if len(opts.CORS.AllowedOrigins) > 0 {
		root.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
			AllowCredentials: opts.CORS.AllowCredentials,
			MaxAge:           300,
		}))
	}
	root.Use(middleware.AuthBearer()) // вынимаем Bearer токен в контекст
	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout)) // общий дедлайн запроса
	}

	h := handlers.New(svc)

	// Регистрация маршрутов.
	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, svc)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, svc)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, svc handlers.AuthService) {
	// открытые маршруты.
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/token/refresh", h.Refresh)

	// logout разбирает Authorization сам: допускается просроченный access.
	r.Post("/logout", h.Logout)

	// защищённые маршруты.
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(svc))

		pr.Post("/change-password", h.ChangePassword)
		pr.Get("/profile", h.GetProfile)
		pr.Put("/profile", h.UpdateProfile)
	})
}

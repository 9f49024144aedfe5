package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"taskManager/internal/auth"
	"taskManager/internal/config"
	"taskManager/internal/email"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/middleware"
	"taskManager/internal/models"
	"taskManager/internal/notify"
	"taskManager/internal/repository"
	"taskManager/internal/repository/inmemory"
	"taskManager/internal/repository/postgres"
	"taskManager/internal/service"
	"taskManager/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	worker    *worker.ReminderWorker
	shutdowns []func() // функции для graceful shutdown, в обратном порядке
}

// repositories - набор хранилищ за интерфейсами; конкретная
// реализация выбирается по repository.type
type repositories struct {
	users         repository.UserRepository
	refreshTokens repository.RefreshTokenRepository
	groups        repository.GroupRepository
	invitations   repository.InvitationRepository
	tasks         repository.TaskRepository
	comments      repository.CommentRepository
	activity      repository.ActivityRepository
	tx            repository.TxManager
	health        handlers.HealthChecker
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repos, err := a.initRepositories(ctx)
	if err != nil {
		return err
	}

	var mail email.Sender
	if a.config.SMTP.Host == "" {
		logger.Warn("App: SMTP не настроен, письма пишутся в лог")
		mail = email.NewLogSender()
	} else {
		smtp, err := email.NewSMTPSender(a.config.SMTP)
		if err != nil {
			return fmt.Errorf("инициализация SMTP: %w", err)
		}
		mail = smtp
	}

	tokens := auth.NewTokenProvider(a.config.Auth.JWTSecret, a.config.Auth.AccessTTL)
	hub := notify.NewHub()

	authService := service.NewAuthService(repos.users, repos.refreshTokens, tokens, a.config.Auth.RefreshTTL)
	groupService := service.NewGroupService(repos.groups, repos.tasks, repos.invitations, repos.tx)
	invitationService := service.NewInvitationService(repos.invitations, groupService, mail, repos.tx)
	activityService := service.NewActivityService(repos.activity)
	taskService := service.NewTaskService(repos.tasks, repos.groups, repos.users, mail, activityService)
	commentService := service.NewCommentService(repos.comments, taskService, activityService, hub)

	a.worker = worker.NewReminderWorker(repos.tasks, repos.users, mail, a.config.Worker.ReminderInterval)

	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	groupHandler := handlers.NewGroupHandler(groupService)
	invitationHandler := handlers.NewInvitationHandler(invitationService)
	commentHandler := handlers.NewCommentHandler(commentService, hub)
	activityHandler := handlers.NewActivityHandler(activityService, taskService)
	adminHandler := handlers.NewAdminHandler(a.worker)
	healthHandler := handlers.NewHealthHandler(repos.health)

	router := a.initRouter(
		tokens, authService,
		&authHandler, &taskHandler, &groupHandler,
		&invitationHandler, &commentHandler, &activityHandler,
		&adminHandler, &healthHandler,
	)

	a.server = &http.Server{
		Addr:        a.config.GetServerAddr(),
		Handler:     router,
		ReadTimeout: a.config.Server.RequestTimeout,
		IdleTimeout: 2 * a.config.Server.RequestTimeout,
	}

	return nil
}

func (a *App) initRepositories(ctx context.Context) (*repositories, error) {
	switch a.config.Repository.Type {
	case "inmemory":
		logger.Info("App: Используется inmemory-хранилище")
		storage := inmemory.NewStorage()
		return &repositories{
			users:         inmemory.NewUserRepo(storage),
			refreshTokens: inmemory.NewRefreshTokenRepo(storage),
			groups:        inmemory.NewGroupRepo(storage),
			invitations:   inmemory.NewInvitationRepo(storage),
			tasks:         inmemory.NewTaskRepo(storage),
			comments:      inmemory.NewCommentRepo(storage),
			activity:      inmemory.NewActivityRepo(storage),
			tx:            storage,
			health:        storage,
		}, nil

	case "postgres", "":
		if err := postgres.Migrate(a.config.Database.URL); err != nil {
			return nil, fmt.Errorf("миграции: %w", err)
		}

		storage, err := postgres.New(ctx, a.config.Database)
		if err != nil {
			return nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		a.shutdowns = append(a.shutdowns, func() {
			logger.Info("Закрытие пула соединений...")
			storage.Close()
		})

		return &repositories{
			users:         postgres.NewUserRepo(storage),
			refreshTokens: postgres.NewRefreshTokenRepo(storage),
			groups:        postgres.NewGroupRepo(storage),
			invitations:   postgres.NewInvitationRepo(storage),
			tasks:         postgres.NewTaskRepo(storage),
			comments:      postgres.NewCommentRepo(storage),
			activity:      postgres.NewActivityRepo(storage),
			tx:            storage,
			health:        storage,
		}, nil

	default:
		return nil, fmt.Errorf("неизвестный тип хранилища: %s", a.config.Repository.Type)
	}
}

func (a *App) initRouter(
	tokens *auth.TokenProvider,
	resolver middleware.UserResolver,
	authHandler *handlers.AuthHandler,
	taskHandler *handlers.TaskHandler,
	groupHandler *handlers.GroupHandler,
	invitationHandler *handlers.InvitationHandler,
	commentHandler *handlers.CommentHandler,
	activityHandler *handlers.ActivityHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	r.Use(middleware.RateLimit(a.config.Server.RateLimitRPM))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register) // POST /api/auth/register
			r.Post("/login", authHandler.Login)       // POST /api/auth/login
			r.Post("/refresh-token", authHandler.Refresh) // POST /api/auth/refresh-token
			r.Post("/refresh", authHandler.Refresh)       // краткий синоним
			r.Post("/logout", authHandler.Logout)         // POST /api/auth/logout
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens, resolver))

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", taskHandler.PostTask)   // POST /api/tasks
				r.Get("/", taskHandler.GetAllTasks) // GET /api/tasks

				r.Get("/sorted-by-date", taskHandler.GetTasksSorted)         // GET /api/tasks/sorted-by-date
				r.Get("/status/{status}", taskHandler.GetTasksByStatus)      // GET /api/tasks/status/{status}
				r.Get("/filter/today", taskHandler.GetTasksCreatedToday)     // GET /api/tasks/filter/today
				r.Get("/filter/this-week", taskHandler.GetTasksCreatedThisWeek) // GET /api/tasks/filter/this-week
				r.Get("/filter/by-date", taskHandler.GetTasksBetweenDates)   // GET /api/tasks/filter/by-date?fromDate=&toDate=
				r.Get("/filter/by-month", taskHandler.GetTasksByMonth)       // GET /api/tasks/filter/by-month?month=&year=
				r.Get("/paginated", taskHandler.GetTasksPaginated)           // GET /api/tasks/paginated?page=&size=&sortBy=&sortDir=
				r.Get("/search", taskHandler.SearchTasks)                    // GET /api/tasks/search?title=
				r.Get("/group/{groupId}", taskHandler.GetTasksByGroup)       // GET /api/tasks/group/{groupId}

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", taskHandler.GetTaskByID)       // GET /api/tasks/{id}
					r.Put("/", taskHandler.UpdateTaskByID)    // PUT /api/tasks/{id}
					r.Delete("/", taskHandler.DeleteTaskByID) // DELETE /api/tasks/{id}
					r.Post("/unassign", taskHandler.UnassignTask)

					r.Route("/comments", func(r chi.Router) {
						r.Post("/", commentHandler.PostComment)              // POST /api/tasks/{id}/comments
						r.Get("/", commentHandler.GetComments)               // GET /api/tasks/{id}/comments
						r.Get("/events", commentHandler.StreamCommentEvents) // SSE
					})

					r.Get("/activity", activityHandler.GetTaskActivity) // GET /api/tasks/{id}/activity
				})
			})

			r.Route("/groups", func(r chi.Router) {
				r.Post("/", groupHandler.PostGroup)           // POST /api/groups
				r.Get("/", groupHandler.GetMyGroups)          // GET /api/groups
				r.Get("/my-groups", groupHandler.GetMyGroups) // GET /api/groups/my-groups

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", groupHandler.GetGroupByID)   // GET /api/groups/{id}
					r.Delete("/", groupHandler.DeleteGroup) // DELETE /api/groups/{id}
					r.Post("/leave", groupHandler.LeaveGroup)
					r.Get("/members", groupHandler.GetMembers)
					r.Post("/invitations", invitationHandler.PostInvitation)
				})
			})

			r.Route("/invitations", func(r chi.Router) {
				r.Post("/invite", invitationHandler.PostInvite)          // POST /api/invitations/invite
				r.Get("/my-pending", invitationHandler.GetMyInvitations) // GET /api/invitations/my-pending
				r.Get("/my", invitationHandler.GetMyInvitations)         // краткий синоним
				r.Post("/{id}/accept", invitationHandler.AcceptInvitation)
				r.Post("/{id}/decline", invitationHandler.DeclineInvitation)
			})

			r.Route("/activities", func(r chi.Router) {
				r.Get("/", activityHandler.GetMyActivity)            // GET /api/activities
				r.Get("/task/{id}", activityHandler.GetTaskActivity) // GET /api/activities/task/{id}
			})
			r.Get("/activity", activityHandler.GetMyActivity) // краткий синоним

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Post("/reminders/run", adminHandler.RunReminders)
			})
		})
	})

	return r
}

// Run блокируется до отмены контекста, затем гасит сервер и ресурсы
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go a.worker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.runShutdowns()
		return fmt.Errorf("сервер: %w", err)
	case <-ctx.Done():
	}

	logger.Info("App: Получен сигнал остановки")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("App: Ошибка остановки сервера", err)
	}

	a.runShutdowns()
	return nil
}

func (a *App) runShutdowns() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
}

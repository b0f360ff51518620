package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"taskflow/internal/ai"
	"taskflow/internal/config"
	"taskflow/internal/handlers"
	"taskflow/internal/logger"
	"taskflow/internal/middleware"
	"taskflow/internal/service"
	"taskflow/internal/store"
	"taskflow/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	store     *store.TaskStore
	service   *service.TaskService
	worker    *worker.OverdueWorker
	shutdowns []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

// InitService поднимает хранилище, стор и синтезатор без HTTP-части
func (a *App) InitService(ctx context.Context) (*service.TaskService, error) {
	slot, err := OpenSlot(ctx, a.config)
	if err != nil {
		return nil, err
	}
	a.shutdowns = append(a.shutdowns, func() {
		if err := slot.Close(); err != nil {
			logger.Warn("App: Ошибка закрытия хранилища", zap.Error(err))
		}
	})

	a.store = store.New(slot, store.WithKey(a.config.Storage.Key))
	if err := a.store.Init(ctx); err != nil {
		return nil, fmt.Errorf("инициализация стора: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		if err := a.store.Teardown(context.Background()); err != nil {
			logger.Warn("App: Ошибка завершения стора", zap.Error(err))
		}
	})

	client := ai.NewGroqClient(ai.GroqConfig{
		APIKey:      a.config.AI.APIKey,
		BaseURL:     a.config.AI.BaseURL,
		Model:       a.config.AI.Model,
		Temperature: a.config.AI.Temperature,
		MaxTokens:   a.config.AI.MaxTokens,
		Timeout:     a.config.AI.Timeout,
	})
	if !client.Configured() {
		logger.Warn("App: Ключ AI не задан, генерация задач недоступна")
	}

	a.service = service.NewTaskService(a.store, ai.NewSynthesizer(client))
	return a.service, nil
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	if _, err := a.InitService(ctx); err != nil {
		return err
	}

	a.router = a.newRouter(handlers.NewTaskHandler(a.service))
	a.server = &http.Server{
		Addr:         a.config.GetServerAddr(),
		Handler:      otelhttp.NewHandler(a.router, "taskflow"),
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}

	if a.config.Worker.Enabled {
		a.worker = worker.NewOverdueWorker(a.store, &a.config.Worker.Interval, &a.config.Worker.BatchSize)
	}
	return nil
}

func (a *App) newRouter(h *handlers.TaskHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:         300,
	}))
	if a.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	}
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))

	h.Register(r)
	return r
}

// Handler - готовый HTTP-обработчик, доступен после Init
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run блокируется до отмены ctx или падения сервера
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("App: Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("App: Остановка сервера")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("остановка сервера: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Start(gctx)
		})
	}

	return g.Wait()
}

func (a *App) Close() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}

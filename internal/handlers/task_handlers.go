package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"taskflow/internal/handlers/dto"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	"taskflow/internal/stats"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// тело запроса больше этого не читаем
const maxBodyBytes = 1 << 20

type TaskHandler struct {
	TaskService TaskService
	now         func() time.Time
}

func NewTaskHandler(taskService TaskService) *TaskHandler {
	return &TaskHandler{
		TaskService: taskService,
		now:         time.Now,
	}
}

// Register вешает маршруты задач и AI на роутер
func (h *TaskHandler) Register(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.GetActiveTasks)    // GET /tasks
		r.Post("/", h.PostTask)         // POST /tasks
		r.Get("/all", h.GetAllTasks)    // GET /tasks/all
		r.Get("/overdue", h.GetOverdue) // GET /tasks/overdue
		r.Get("/stats", h.GetStats)     // GET /tasks/stats

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetTaskByID)       // GET /tasks/{id}
			r.Patch("/", h.UpdateTaskByID)  // PATCH /tasks/{id}
			r.Delete("/", h.DeleteTaskByID) // DELETE /tasks/{id}
		})
	})

	r.Post("/ai/suggest", h.SuggestTask)
	r.Get("/health", h.HealthCheck)
}

func (h *TaskHandler) GetActiveTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tasks := h.TaskService.ListActive(r.Context())

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := task.ParseStatus(raw)
		if !ok {
			logger.Warn("HTTP: Неверное значение параметра",
				zap.String("query", "status"),
				zap.String("value", raw),
				zap.String("client_ip", r.RemoteAddr))
			responseWithError(w, http.StatusBadRequest, "неверное значение status: "+raw)
			return
		}
		tasks = stats.FilterByStatus(tasks, status)
	}
	tasks = stats.SortByCreatedDesc(tasks)

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	h.respondList(w, tasks)
}

func (h *TaskHandler) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, h.TaskService.ListAll(r.Context()))
}

func (h *TaskHandler) GetOverdue(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, stats.SortByCreatedDesc(h.TaskService.Overdue(r.Context())))
}

func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("stats", h.TaskService.Stats(r.Context())))
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !requireJSON(w, r) {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeBody(w, r, &request) {
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	created, err := h.TaskService.Create(r.Context(), request.ToDraft())
	if err != nil {
		handleError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithJSON(w, http.StatusCreated, toPayload("task", dto.FromTask(created, h.now())))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	t, err := h.TaskService.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err, "get_task")
		return
	}

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(t, h.now())))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := taskID(w, r)
	if !ok {
		return
	}
	if !requireJSON(w, r) {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if field := request.NullField(); field != "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", field),
			zap.String("error", "null_value"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "поле "+field+" не может быть null")
		return
	}

	logger.Info("HTTP: Запрос к сервису обновления задачи", zap.String("task_id", id))
	updated, err := h.TaskService.Update(r.Context(), id, request.Options()...)
	if err != nil {
		handleError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("task", dto.FromTask(updated, h.now())))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.TaskService.SoftDelete(r.Context(), id); err != nil {
		handleError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) SuggestTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if !requireJSON(w, r) {
		return
	}

	var request dto.SuggestRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if !request.Create {
		suggestion, err := h.TaskService.Synthesize(r.Context(), request.Prompt)
		if err != nil {
			handleError(w, r, err, "suggest_task")
			return
		}

		logger.Info("HTTP_OUT: Черновик задачи готов",
			zap.Bool("fallback", suggestion.Fallback),
			zap.Duration("ms", time.Since(start)))

		responseWithJSON(w, http.StatusOK, toPayload("suggestion", dto.FromSuggestion(suggestion)))
		return
	}

	created, suggestion, err := h.TaskService.CreateFromPrompt(r.Context(), request.Prompt)
	if err != nil {
		handleError(w, r, err, "suggest_and_create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана по запросу к AI",
		zap.String("task_id", created.ID),
		zap.Duration("ms", time.Since(start)))

	responseWithJSON(w, http.StatusCreated,
		toPayload("suggestion", dto.FromSuggestion(suggestion)),
		toPayload("task", dto.FromTask(created, h.now())))
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	err := h.TaskService.HealthCheck(r.Context())
	if err != nil {
		logger.Warn("HTTP: Хранилище недоступно", zap.Error(err))
	}
	healthCheck(w, err)
}

func (h *TaskHandler) respondList(w http.ResponseWriter, tasks []*task.Task) {
	responseWithJSON(w, http.StatusOK,
		toPayload("tasks", dto.FromTaskList(tasks, h.now())),
		toPayload("count", len(tasks)))
}

func taskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		logger.Warn("HTTP: Неверное значение id",
			zap.String("error", "empty id"),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "id не может быть пустым")
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		logger.Warn("HTTP: Ошибка чтения JSON",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "неверное тело запроса: "+err.Error())
		return false
	}
	return true
}

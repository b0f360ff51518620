package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	repo "taskflow/internal/repository"

	"go.uber.org/zap"
)

// TaskStore - единственный владелец коллекции задач.
// Держит копию коллекции в памяти и целиком переписывает слот при каждой мутации.
// Записи внутри процесса сериализуются мьютексом; между процессами,
// работающими с одним слотом, побеждает последний писатель.
type TaskStore struct {
	slot  repo.Slot
	key   string
	now   func() time.Time
	newID func() string

	mtx   sync.RWMutex
	tasks []*task.Task
	index map[string]int
}

func New(slot repo.Slot, opts ...Option) *TaskStore {
	s := &TaskStore{
		slot:  slot,
		key:   DefaultKey,
		now:   time.Now,
		newID: defaultID,
		tasks: []*task.Task{},
		index: map[string]int{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init загружает слот в память. Повреждённый или отсутствующий слот
// означает "данных ещё нет" и ошибкой не считается.
func (s *TaskStore) Init(ctx context.Context) error {
	s.Reload(ctx)
	return nil
}

// Teardown ничего не сбрасывает: каждая мутация уже записана в слот.
// Недоступный к моменту остановки слот возвращается ошибкой.
func (s *TaskStore) Teardown(ctx context.Context) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	logger.Info("Store: Завершение работы", zap.String("slot", s.key), zap.Int("tasks", len(s.tasks)))
	if err := s.slot.HealthCheck(ctx); err != nil {
		return fmt.Errorf("слот недоступен при остановке: %w", err)
	}
	return nil
}

// Reload перечитывает слот, заменяя кэш. Чтение идёт под той же блокировкой,
// что и мутации: иначе запись, сделанная между чтением и заменой, пропала бы из кэша.
func (s *TaskStore) Reload(ctx context.Context) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	tasks := s.load(ctx)
	s.tasks = tasks
	s.index = buildIndex(tasks)
}

func (s *TaskStore) load(ctx context.Context) []*task.Task {
	data, err := s.slot.Load(ctx, s.key)
	if err != nil {
		if errors.Is(err, repo.ErrSlotEmpty) {
			logger.Info("Store: Слот пуст, начинаем с пустой коллекции", zap.String("slot", s.key))
		} else {
			logger.Warn("Store: Не удалось прочитать слот, считаем его пустым",
				zap.String("slot", s.key), zap.Error(err))
		}
		return []*task.Task{}
	}

	tasks, err := Decode(data)
	if err != nil {
		logger.Warn("Store: Слот повреждён, считаем его пустым",
			zap.String("slot", s.key), zap.Error(err))
		return []*task.Task{}
	}

	logger.Info("Store: Коллекция загружена", zap.String("slot", s.key), zap.Int("tasks", len(tasks)))
	return tasks
}

// ListAll - все записи, включая мягко удалённые, в порядке хранения
func (s *TaskStore) ListAll(ctx context.Context) []*task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		res = append(res, t.Clone())
	}
	return res
}

// ListActive - записи без deleted_at, порядок как у ListAll
func (s *TaskStore) ListActive(ctx context.Context) []*task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if t.IsDeleted() {
			continue
		}
		res = append(res, t.Clone())
	}
	return res
}

func (s *TaskStore) Get(ctx context.Context, id string) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.tasks[i].Clone(), nil
}

func (s *TaskStore) Create(ctx context.Context, draft task.Draft) (*task.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, &ValidationError{Field: "title", Reason: "не может быть пустым"}
	}

	status := task.StatusTodo
	if draft.Status != nil {
		status = *draft.Status
	}
	priority := task.PriorityMedium
	if draft.Priority != nil {
		priority = *draft.Priority
	}

	created := &task.Task{
		ProjectID:   task.LocalProject,
		Title:       title,
		Description: draft.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     draft.DueDate,
	}
	if err := validate(created); err != nil {
		return nil, err
	}
	// отвязываемся от указателей вызывающего
	created = created.Clone()

	s.mtx.Lock()
	defer s.mtx.Unlock()

	created.ID = s.uniqueID()
	created.CreatedAt = s.now().UTC()

	next := make([]*task.Task, len(s.tasks), len(s.tasks)+1)
	copy(next, s.tasks)
	next = append(next, created)

	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.tasks = next
	s.index[created.ID] = len(next) - 1

	logger.Info("Store: Задача создана", zap.String("task_id", created.ID))
	return created.Clone(), nil
}

// Update применяет опции поверх существующей записи.
// id, project_id, created_at и deleted_at опциями не меняются.
func (s *TaskStore) Update(ctx context.Context, id string, opts ...task.Option) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, ErrNotFound
	}

	current := s.tasks[i]
	updated := current.Clone()
	for _, opt := range opts {
		if opt != nil {
			opt(updated)
		}
	}

	// на случай опций, написанных в обход пакета task
	updated.ID = current.ID
	updated.ProjectID = current.ProjectID
	updated.CreatedAt = current.CreatedAt
	updated.DeletedAt = current.DeletedAt
	updated.Title = strings.TrimSpace(updated.Title)

	if err := validate(updated); err != nil {
		return nil, err
	}

	next := make([]*task.Task, len(s.tasks))
	copy(next, s.tasks)
	next[i] = updated

	if err := s.persist(ctx, next); err != nil {
		return nil, err
	}
	s.tasks = next

	logger.Info("Store: Задача обновлена", zap.String("task_id", id))
	return updated.Clone(), nil
}

// SoftDelete проставляет deleted_at. Повторный вызов ничего не меняет.
func (s *TaskStore) SoftDelete(ctx context.Context, id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	i, ok := s.index[id]
	if !ok {
		return ErrNotFound
	}

	current := s.tasks[i]
	if current.IsDeleted() {
		logger.Debug("Store: Задача уже удалена", zap.String("task_id", id))
		return nil
	}

	deleted := current.Clone()
	now := s.now().UTC()
	deleted.DeletedAt = &now

	next := make([]*task.Task, len(s.tasks))
	copy(next, s.tasks)
	next[i] = deleted

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.tasks = next

	logger.Info("Store: Задача мягко удалена", zap.String("task_id", id))
	return nil
}

func (s *TaskStore) HealthCheck(ctx context.Context) error {
	if err := s.slot.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка слота: %w", err)
	}
	return nil
}

// persist вызывается под s.mtx; при ошибке кэш остаётся прежним
func (s *TaskStore) persist(ctx context.Context, tasks []*task.Task) error {
	data, err := Encode(tasks)
	if err != nil {
		logger.Error("Store: Ошибка сериализации коллекции", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	if err := s.slot.Save(ctx, s.key, data); err != nil {
		logger.Error("Store: Ошибка записи слота", err, zap.String("slot", s.key))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *TaskStore) uniqueID() string {
	for {
		id := s.newID()
		if _, taken := s.index[id]; !taken && id != "" {
			return id
		}
	}
}

func validate(t *task.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return &ValidationError{Field: "title", Reason: "не может быть пустым"}
	}
	if !t.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("недопустимый статус %q", t.Status)}
	}
	if !t.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("недопустимый приоритет %q", t.Priority)}
	}
	return nil
}

func buildIndex(tasks []*task.Task) map[string]int {
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
	}
	return index
}

// Encode сериализует коллекцию в формат слота: JSON-массив задач
func Encode(tasks []*task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []*task.Task{}
	}
	return json.Marshal(tasks)
}

// Decode разбирает содержимое слота. Записи без id или с повторяющимся id
// делают весь слот повреждённым; неизвестные статус и приоритет
// заменяются значениями по умолчанию.
func Decode(data []byte) ([]*task.Task, error) {
	var tasks []*task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptStorage, err)
	}

	seen := make(map[string]struct{}, len(tasks))
	res := make([]*task.Task, 0, len(tasks))
	for i, t := range tasks {
		if t == nil || t.ID == "" {
			return nil, fmt.Errorf("%w: запись %d без id", ErrCorruptStorage, i)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("%w: повторяющийся id %s", ErrCorruptStorage, t.ID)
		}
		seen[t.ID] = struct{}{}

		if !t.Status.Valid() {
			logger.Warn("Store: Неизвестный статус заменён на todo",
				zap.String("task_id", t.ID), zap.String("status", string(t.Status)))
			t.Status = task.StatusTodo
		}
		if !t.Priority.Valid() {
			logger.Warn("Store: Неизвестный приоритет заменён на medium",
				zap.String("task_id", t.ID), zap.String("priority", string(t.Priority)))
			t.Priority = task.PriorityMedium
		}
		if t.ProjectID == "" {
			t.ProjectID = task.LocalProject
		}
		res = append(res, t)
	}
	return res, nil
}

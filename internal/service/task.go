package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BuzzLyutic/task-cli/internal/model"
	"github.com/BuzzLyutic/task-cli/internal/repo"
)

var (
	ErrValidation = errors.New("validation error")
)

type Option func(*TaskService)

// WithClock подменяет источник времени (нужно для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) {
		s.now = now
	}
}

type TaskService struct {
	repo repo.TaskRepository
	now  func() time.Time
}

func NewTaskService(repo repo.TaskRepository, opts ...Option) *TaskService {
	s := &TaskService{
		repo: repo,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add создает задачу со статусом todo. Описание может быть пустым.
func (s *TaskService) Add(ctx context.Context, description string) (model.Task, error) {
	return s.repo.Create(ctx, model.NewTask(description, s.now()))
}

func (s *TaskService) Get(ctx context.Context, id int64) (model.Task, error) {
	if err := s.validateID(id); err != nil {
		return model.Task{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *TaskService) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrValidation, model.ErrInvalidStatus)
	}
	return s.repo.List(ctx, filter)
}

// Update меняет только описание и updatedAt
func (s *TaskService) Update(ctx context.Context, id int64, description string) (model.Task, error) {
	if err := s.validateID(id); err != nil {
		return model.Task{}, err
	}
	now := s.now()
	return s.repo.Update(ctx, id, func(t *model.Task) {
		t.Description = description
		t.Touch(now)
	})
}

func (s *TaskService) Delete(ctx context.Context, id int64) error {
	if err := s.validateID(id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// SetStatus допускает только in-progress и done: вернуть задачу в todo нельзя
func (s *TaskService) SetStatus(ctx context.Context, id int64, status model.Status) (model.Task, error) {
	if err := s.validateID(id); err != nil {
		return model.Task{}, err
	}
	if status != model.StatusInProgress && status != model.StatusDone {
		return model.Task{}, fmt.Errorf("%w: status %s cannot be set", ErrValidation, status)
	}
	now := s.now()
	return s.repo.Update(ctx, id, func(t *model.Task) {
		t.Status = status
		t.Touch(now)
	})
}

func (s *TaskService) MarkInProgress(ctx context.Context, id int64) (model.Task, error) {
	return s.SetStatus(ctx, id, model.StatusInProgress)
}

func (s *TaskService) MarkDone(ctx context.Context, id int64) (model.Task, error) {
	return s.SetStatus(ctx, id, model.StatusDone)
}

func (s *TaskService) validateID(id int64) error {
	if id < 1 {
		return fmt.Errorf("%w: task id must be positive, got %d", ErrValidation, id)
	}
	return nil
}

package repo

import (
	"context"

	"github.com/BuzzLyutic/task-cli/internal/model"
)

// TaskRepository определяет интерфейс для работы с задачами
type TaskRepository interface {
	Create(ctx context.Context, t model.Task) (model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error)
	Update(ctx context.Context, id int64, apply func(*model.Task)) (model.Task, error)
	Delete(ctx context.Context, id int64) error
}

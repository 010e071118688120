package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/model"
)

var (
	ErrorNotFound = errors.New("no such task")
	ErrorCorrupt  = errors.New("corrupt task store")
	ErrorIO       = errors.New("task store i/o")

	// ErrorIDsExhausted - в хранилище уже есть задача с максимальным id
	ErrorIDsExhausted = errors.New("task ids exhausted")
)

const DefaultPath = "tasks.json"

// FileTaskRepo хранит все задачи в одном JSON-файле.
// Каждая операция: прочитать файл целиком -> изменить -> записать целиком.
// Между вызовами ничего не кэшируется.
type FileTaskRepo struct {
	path   string
	logger *zap.Logger
	mu     sync.Mutex // сериализует read-modify-write внутри процесса
}

func NewFileTaskRepo(path string, logger *zap.Logger) (*FileTaskRepo, error) {
	if path == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &FileTaskRepo{
		path:   path,
		logger: logger,
	}
	if err := EnsureExists(path); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileTaskRepo) Path() string {
	return r.path
}

// EnsureExists создает файл с пустым объектом {}, если его нет. Существующий файл не трогает.
func EnsureExists(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrorIO, path, err)
	}
	if _, err := f.Write([]byte("{}\n")); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrorIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrorIO, path, err)
	}
	return nil
}

func (r *FileTaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return t, err
	}

	id, err := doc.nextID()
	if err != nil {
		return t, err
	}
	t.ID = id
	doc[t.ID] = t

	if err := r.save(doc); err != nil {
		return t, err
	}
	return t, nil
}

func (r *FileTaskRepo) Get(ctx context.Context, id int64) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return model.Task{}, err
	}
	t, ok := doc[id]
	if !ok {
		return model.Task{}, ErrorNotFound
	}
	return t, nil
}

// List возвращает задачи по возрастанию id; каждый вызов перечитывает файл
func (r *FileTaskRepo) List(ctx context.Context, filter model.TaskFilter) ([]model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(doc))
	for _, id := range doc.ids() {
		if t := doc[id]; filter.Match(t) {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// Update применяет apply к задаче и сохраняет файл. ID задачи изменить нельзя.
func (r *FileTaskRepo) Update(ctx context.Context, id int64, apply func(*model.Task)) (model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return model.Task{}, err
	}
	t, ok := doc[id]
	if !ok {
		return model.Task{}, ErrorNotFound
	}

	apply(&t)
	t.ID = id
	doc[id] = t

	if err := r.save(doc); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *FileTaskRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc[id]; !ok {
		return ErrorNotFound
	}

	delete(doc, id)
	return r.save(doc)
}

func (r *FileTaskRepo) load(ctx context.Context) (document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := EnsureExists(r.path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrorIO, r.path, err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		r.logger.Error("task store is corrupt", zap.String("path", r.path), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrorCorrupt, r.path, err)
	}

	r.logger.Debug("task store loaded", zap.String("path", r.path), zap.Int("tasks", len(doc)))
	return doc, nil
}

func (r *FileTaskRepo) save(doc document) error {
	data, err := doc.encode()
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrorIO, r.path, err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrorIO, r.path, err)
	}

	r.logger.Debug("task store saved", zap.String("path", r.path), zap.Int("tasks", len(doc)))
	return nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/model"
	"github.com/BuzzLyutic/task-cli/internal/repo"
	"github.com/BuzzLyutic/task-cli/internal/service"
)

type harness struct {
	d      *Dispatcher
	path   string
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func setupDispatcher(t *testing.T, opts ...Option) *harness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasks.json")

	r, err := repo.NewFileTaskRepo(path, zap.NewNop())
	require.NoError(t, err)

	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)
	svc := service.NewTaskService(r, service.WithClock(func() time.Time { return now }))

	h := &harness{path: path, out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	h.d = New(svc, zap.NewNop(), append([]Option{WithOutput(h.out, h.errOut)}, opts...)...)
	return h
}

func (h *harness) run(t *testing.T, args ...string) int {
	t.Helper()
	h.out.Reset()
	h.errOut.Reset()
	return h.d.Run(context.Background(), args)
}

func (h *harness) stored(t *testing.T) map[string]model.Task {
	t.Helper()
	data, err := os.ReadFile(h.path)
	require.NoError(t, err)

	var out map[string]model.Task
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestDispatcher_Add(t *testing.T) {
	h := setupDispatcher(t)

	code := h.run(t, "add", "buy milk")

	assert.Equal(t, 0, code)
	assert.Equal(t, "Task added successfully (ID: 1)\n", h.out.String())
	stored := h.stored(t)
	require.Contains(t, stored, "1")
	assert.Equal(t, "buy milk", stored["1"].Description)
	assert.Equal(t, model.StatusTodo, stored["1"].Status)
}

func TestDispatcher_AddJoinsWords(t *testing.T) {
	h := setupDispatcher(t)

	require.Equal(t, 0, h.run(t, "add", "buy", "oat", "milk"))
	assert.Equal(t, "buy oat milk", h.stored(t)["1"].Description)
}

func TestDispatcher_AddEmptyDescription(t *testing.T) {
	h := setupDispatcher(t)

	require.Equal(t, 0, h.run(t, "add", ""))
	assert.Equal(t, "", h.stored(t)["1"].Description)
}

func TestDispatcher_Commands(t *testing.T) {
	h := setupDispatcher(t)
	require.Equal(t, 0, h.run(t, "add", "first"))
	require.Equal(t, 0, h.run(t, "add", "second"))

	tests := []struct {
		name    string
		args    []string
		wantOut string
	}{
		{name: "update", args: []string{"update", "1", "first, edited"}, wantOut: "Task updated successfully (ID: 1)\n"},
		{name: "mark-in-progress", args: []string{"mark-in-progress", "1"}, wantOut: "Task marked as in-progress successfully (ID: 1)\n"},
		{name: "mark-done", args: []string{"mark-done", "2"}, wantOut: "Task marked as done successfully (ID: 2)\n"},
		{name: "delete", args: []string{"delete", "2"}, wantOut: "Task deleted successfully (ID: 2)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 0, h.run(t, tt.args...))
			assert.Equal(t, tt.wantOut, h.out.String())
			assert.Empty(t, h.errOut.String())
		})
	}

	stored := h.stored(t)
	assert.Len(t, stored, 1)
	assert.Equal(t, "first, edited", stored["1"].Description)
	assert.Equal(t, model.StatusInProgress, stored["1"].Status)
}

func TestDispatcher_NoSuchTask(t *testing.T) {
	h := setupDispatcher(t)
	require.Equal(t, 0, h.run(t, "add", "only"))
	before, err := os.ReadFile(h.path)
	require.NoError(t, err)

	for _, args := range [][]string{
		{"update", "99", "x"},
		{"delete", "99"},
		{"mark-in-progress", "99"},
		{"mark-done", "99"},
	} {
		t.Run(args[0], func(t *testing.T) {
			assert.Equal(t, 1, h.run(t, args...))
			assert.Equal(t, "No such task\n", h.errOut.String())
			assert.Empty(t, h.out.String())
		})
	}

	after, err := os.ReadFile(h.path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDispatcher_InvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no command", args: nil},
		{name: "unknown command", args: []string{"frobnicate"}},
		{name: "add without description", args: []string{"add"}},
		{name: "update without description", args: []string{"update", "1"}},
		{name: "non-numeric id", args: []string{"delete", "abc"}},
		{name: "zero id", args: []string{"mark-done", "0"}},
		{name: "negative id", args: []string{"mark-done", "-3"}},
		{name: "extra id", args: []string{"delete", "1", "2"}},
		{name: "unknown list flag", args: []string{"list", "--blocked"}},
		{name: "list positional", args: []string{"list", "done"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := setupDispatcher(t)

			assert.Equal(t, 1, h.run(t, tt.args...))
			assert.Contains(t, h.errOut.String(), "Error: invalid arguments")
			assert.Empty(t, h.stored(t), "store must not be touched")
		})
	}
}

func TestDispatcher_List(t *testing.T) {
	h := setupDispatcher(t)
	for _, d := range []string{"alpha", "beta", "gamma"} {
		require.Equal(t, 0, h.run(t, "add", d))
	}
	require.Equal(t, 0, h.run(t, "mark-done", "2"))
	require.Equal(t, 0, h.run(t, "mark-in-progress", "3"))

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{name: "all", args: []string{"list"}, want: []string{"alpha", "beta", "gamma"}},
		{name: "done", args: []string{"list", "--done"}, want: []string{"beta", "[done]"}, notWant: []string{"alpha", "gamma"}},
		{name: "todo short", args: []string{"list", "-t"}, want: []string{"alpha", "[todo]"}, notWant: []string{"beta", "gamma"}},
		{name: "in-progress", args: []string{"list", "--in-progress"}, want: []string{"gamma", "[in-progress]"}, notWant: []string{"alpha", "beta"}},
		{name: "done wins over todo", args: []string{"list", "--todo", "--done"}, want: []string{"beta"}, notWant: []string{"alpha"}},
		{name: "legacy todo shorthand", args: []string{"list", "-td"}, want: []string{"alpha", "[todo]"}, notWant: []string{"beta", "gamma"}},
		{name: "legacy in-progress shorthand", args: []string{"list", "-ip"}, want: []string{"gamma", "[in-progress]"}, notWant: []string{"alpha", "beta"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, 0, h.run(t, tt.args...))
			for _, s := range tt.want {
				assert.Contains(t, h.out.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, h.out.String(), s)
			}
		})
	}
}

func TestDispatcher_ListOrderAndTimestamps(t *testing.T) {
	h := setupDispatcher(t)
	require.Equal(t, 0, h.run(t, "add", "first"))
	require.Equal(t, 0, h.run(t, "add", "second"))

	require.Equal(t, 0, h.run(t, "list"))
	out := h.out.String()

	assert.Less(t, bytes.Index([]byte(out), []byte("first")), bytes.Index([]byte(out), []byte("second")))
	assert.Contains(t, out, "(created 05.03.2024 14:07:09, updated 05.03.2024 14:07:09)")
}

func TestDispatcher_ListEmpty(t *testing.T) {
	h := setupDispatcher(t)

	require.Equal(t, 0, h.run(t, "list", "--done"))
	assert.Equal(t, "No tasks found\n", h.out.String())
}

func TestDispatcher_ListJSON(t *testing.T) {
	h := setupDispatcher(t)
	require.Equal(t, 0, h.run(t, "add", "a & b"))

	require.Equal(t, 0, h.run(t, "list", "--json"))
	assert.JSONEq(t, `[{
		"id": 1,
		"description": "a & b",
		"status": "todo",
		"createdAt": "05.03.2024 14:07:09",
		"updatedAt": "05.03.2024 14:07:09"
	}]`, h.out.String())

	require.Equal(t, 0, h.run(t, "list", "--json", "--done"))
	assert.JSONEq(t, `[]`, h.out.String())
}

func TestDispatcher_CorruptStore(t *testing.T) {
	h := setupDispatcher(t)
	require.NoError(t, os.WriteFile(h.path, []byte(`{"1": `), 0o644))

	assert.Equal(t, 1, h.run(t, "list"))
	assert.Contains(t, h.errOut.String(), "task store is not valid")
}

func TestDispatcher_Help(t *testing.T) {
	h := setupDispatcher(t)

	require.Equal(t, 0, h.run(t, "help"))
	for _, name := range []string{"add", "update", "delete", "mark-in-progress", "mark-done", "list"} {
		assert.Contains(t, h.out.String(), name)
	}
	assert.NotContains(t, h.out.String(), "serve")

	require.Equal(t, 0, h.run(t, "list", "--help"))
	assert.Contains(t, h.out.String(), "Usage: task-cli list")

	require.Equal(t, 0, h.run(t, "help", "mark-done"))
	assert.Contains(t, h.out.String(), "Usage: task-cli mark-done <id>")

	assert.Equal(t, 1, h.run(t, "help", "nope"))
}

func TestDispatcher_Serve(t *testing.T) {
	var gotAddr string
	serve := func(ctx context.Context, addr string) error {
		gotAddr = addr
		return nil
	}
	h := setupDispatcher(t, WithServe(serve, ":8080"))

	require.Equal(t, 0, h.run(t, "serve"))
	assert.Equal(t, ":8080", gotAddr)

	require.Equal(t, 0, h.run(t, "serve", "--addr", "127.0.0.1:9999"))
	assert.Equal(t, "127.0.0.1:9999", gotAddr)

	require.Equal(t, 0, h.run(t, "help"))
	assert.Contains(t, h.out.String(), "serve")
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/model"
	"github.com/BuzzLyutic/task-cli/internal/repo"
	"github.com/BuzzLyutic/task-cli/internal/service"
)

// ErrUsage - некорректный ввод команды; до хранилища дело не доходит
var ErrUsage = errors.New("invalid arguments")

// ServeFunc запускает HTTP-интерфейс и блокируется до отмены ctx
type ServeFunc func(ctx context.Context, addr string) error

type command struct {
	name    string
	usage   string
	summary string
	run     func(ctx context.Context, args []string) error
}

type Dispatcher struct {
	service     *service.TaskService
	logger      *zap.Logger
	out         io.Writer
	errOut      io.Writer
	view        *view
	serve       ServeFunc
	defaultAddr string
	interactive bool
	commands    []*command
}

type Option func(*Dispatcher)

func WithOutput(out, errOut io.Writer) Option {
	return func(d *Dispatcher) {
		d.out = out
		d.errOut = errOut
	}
}

func WithServe(fn ServeFunc, defaultAddr string) Option {
	return func(d *Dispatcher) {
		d.serve = fn
		d.defaultAddr = defaultAddr
	}
}

func New(svc *service.TaskService, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		service: svc,
		logger:  logger,
		out:     os.Stdout,
		errOut:  os.Stderr,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.view = newView(d.out)

	d.commands = []*command{
		{name: "add", usage: "add <description>", summary: "Adds the task to task list", run: d.add},
		{name: "update", usage: "update <id> <description>", summary: "Updates the task", run: d.update},
		{name: "delete", usage: "delete <id>", summary: "Deletes task by its id", run: d.delete},
		{name: "mark-in-progress", usage: "mark-in-progress <id>", summary: "Sets task's status as 'in-progress'", run: d.markInProgress},
		{name: "mark-done", usage: "mark-done <id>", summary: "Sets task's status as 'done'", run: d.markDone},
		{name: "list", usage: "list [--done|-d] [--todo|-t] [--in-progress|-p] [--json]", summary: "Lists tasks, optionally by status", run: d.list},
		{name: "help", usage: "help [command]", summary: "Shows help", run: d.help},
	}
	if d.serve != nil {
		d.commands = append(d.commands, &command{
			name: "serve", usage: "serve [--addr host:port]", summary: "Serves the task store over HTTP", run: d.serveHTTP,
		})
	}
	return d
}

// Run выполняет одну команду и возвращает код выхода процесса
func (d *Dispatcher) Run(ctx context.Context, args []string) int {
	if err := d.Execute(ctx, args); err != nil {
		d.handleError(err)
		return 1
	}
	return 0
}

func (d *Dispatcher) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	name, rest := args[0], args[1:]
	if name == "-h" || name == "--help" {
		return d.help(ctx, rest)
	}

	cmd := d.lookup(name)
	if cmd == nil {
		return fmt.Errorf("%w: unknown command %q", ErrUsage, name)
	}
	if len(rest) > 0 && (rest[0] == "-h" || rest[0] == "--help") {
		d.printCommandHelp(cmd)
		return nil
	}

	d.logger.Debug("dispatching command", zap.String("command", name), zap.Int("args", len(rest)))
	return cmd.run(ctx, rest)
}

func (d *Dispatcher) lookup(name string) *command {
	for _, cmd := range d.commands {
		if cmd.name == name {
			return cmd
		}
	}
	return nil
}

func (d *Dispatcher) add(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: add requires a description", ErrUsage)
	}

	task, err := d.service.Add(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Task added successfully (ID: %d)\n", task.ID)
	return nil
}

func (d *Dispatcher) update(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: update requires an id and a description", ErrUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}

	if _, err := d.service.Update(ctx, id, strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Task updated successfully (ID: %d)\n", id)
	return nil
}

func (d *Dispatcher) delete(ctx context.Context, args []string) error {
	id, err := singleID("delete", args)
	if err != nil {
		return err
	}

	if err := d.service.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Task deleted successfully (ID: %d)\n", id)
	return nil
}

func (d *Dispatcher) markInProgress(ctx context.Context, args []string) error {
	id, err := singleID("mark-in-progress", args)
	if err != nil {
		return err
	}

	if _, err := d.service.MarkInProgress(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Task marked as in-progress successfully (ID: %d)\n", id)
	return nil
}

func (d *Dispatcher) markDone(ctx context.Context, args []string) error {
	id, err := singleID("mark-done", args)
	if err != nil {
		return err
	}

	if _, err := d.service.MarkDone(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Task marked as done successfully (ID: %d)\n", id)
	return nil
}

func (d *Dispatcher) list(ctx context.Context, args []string) error {
	var done, todo, inProgress, asJSON bool

	fs := newFlagSet("list")
	fs.BoolVarP(&done, "done", "d", false, "list tasks with 'done' status")
	fs.BoolVarP(&todo, "todo", "t", false, "list tasks with 'todo' status")
	fs.BoolVarP(&inProgress, "in-progress", "p", false, "list tasks with 'in-progress' status")
	fs.BoolVar(&asJSON, "json", false, "print tasks as JSON")
	if err := parseFlags(fs, legacyListFlags(args)); err != nil {
		return err
	}

	// приоритет как у исходной утилиты: done, in-progress, todo
	var filter model.TaskFilter
	switch {
	case done:
		filter.Status = statusPtr(model.StatusDone)
	case inProgress:
		filter.Status = statusPtr(model.StatusInProgress)
	case todo:
		filter.Status = statusPtr(model.StatusTodo)
	}

	tasks, err := d.service.List(ctx, filter)
	if err != nil {
		return err
	}

	if asJSON {
		return d.view.tasksJSON(tasks)
	}
	return d.view.tasks(tasks)
}

// legacyListFlags переводит короткие флаги исходной утилиты (-td, -ip) в длинные:
// pflag иначе разобрал бы -td как -t -d
func legacyListFlags(args []string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		switch arg {
		case "-td":
			out[i] = "--todo"
		case "-ip":
			out[i] = "--in-progress"
		default:
			out[i] = arg
		}
	}
	return out
}

func (d *Dispatcher) serveHTTP(ctx context.Context, args []string) error {
	if d.interactive {
		return fmt.Errorf("%w: serve is only available as a one-shot command", ErrUsage)
	}

	addr := d.defaultAddr
	fs := newFlagSet("serve")
	fs.StringVar(&addr, "addr", addr, "listen address")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	return d.serve(ctx, addr)
}

func (d *Dispatcher) help(_ context.Context, args []string) error {
	if len(args) > 0 {
		cmd := d.lookup(args[0])
		if cmd == nil {
			return fmt.Errorf("%w: unknown command %q", ErrUsage, args[0])
		}
		d.printCommandHelp(cmd)
		return nil
	}
	d.view.help(d.commands)
	return nil
}

func (d *Dispatcher) printCommandHelp(cmd *command) {
	fmt.Fprintf(d.out, "Usage: task-cli %s\n\n%s\n", cmd.usage, cmd.summary)
}

// handleError переводит ошибку в сообщение для пользователя
func (d *Dispatcher) handleError(err error) {
	switch {
	case errors.Is(err, repo.ErrorNotFound):
		fmt.Fprintln(d.errOut, "No such task")
	case errors.Is(err, ErrUsage), errors.Is(err, service.ErrValidation):
		fmt.Fprintf(d.errOut, "Error: %v\nRun 'help' for usage.\n", err)
	case errors.Is(err, repo.ErrorCorrupt):
		d.logger.Error("task store is corrupt", zap.Error(err))
		fmt.Fprintf(d.errOut, "Error: task store is not valid: %v\n", err)
	case errors.Is(err, repo.ErrorIO):
		d.logger.Error("task store i/o failed", zap.Error(err))
		fmt.Fprintf(d.errOut, "Error: %v\n", err)
	default:
		d.logger.Error("command failed", zap.Error(err))
		fmt.Fprintf(d.errOut, "Error: %v\n", err)
	}
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", ErrUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: task id must be a positive integer, got %q", ErrUsage, s)
	}
	return id, nil
}

func singleID(name string, args []string) (int64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%w: %s requires exactly one task id", ErrUsage, name)
	}
	return parseID(args[0])
}

func statusPtr(s model.Status) *model.Status {
	return &s
}

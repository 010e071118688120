package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/task-cli/internal/cli"
	"github.com/BuzzLyutic/task-cli/internal/config"
	"github.com/BuzzLyutic/task-cli/internal/handler"
	"github.com/BuzzLyutic/task-cli/internal/repo"
	"github.com/BuzzLyutic/task-cli/internal/service"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	// Загрузка конфигурации: окружение, поверх него флаги
	cfg := config.Load()

	fs := pflag.NewFlagSet("task-cli", pflag.ContinueOnError)
	fs.SetInterspersed(false) // все после имени команды принадлежит команде
	fs.SetOutput(io.Discard)
	cfg.BindFlags(fs)

	helpRequested := false
	if err := fs.Parse(args); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(errOut, "Error: %v\nRun 'task-cli help' for usage.\n", err)
			return 2
		}
		helpRequested = true
	}

	// Подключаем логгер
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 2
	}
	defer logger.Sync()

	// Файл задач создается при первом обращении
	taskRepo, err := repo.NewFileTaskRepo(cfg.TaskFile, logger)
	if err != nil {
		logger.Error("failed to open task store", zap.String("path", cfg.TaskFile), zap.Error(err))
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	taskService := service.NewTaskService(taskRepo)

	serve := func(ctx context.Context, addr string) error {
		taskHandler := handler.NewTaskHandler(taskService, logger)
		fmt.Fprintf(out, "Serving %s on %s\n", taskRepo.Path(), addr)
		return handler.Serve(ctx, addr, handler.NewRouter(taskHandler, logger), logger)
	}

	dispatcher := cli.New(taskService, logger,
		cli.WithOutput(out, errOut),
		cli.WithServe(serve, cfg.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case helpRequested:
		return dispatcher.Run(ctx, []string{"help"})
	case fs.NArg() > 0:
		return dispatcher.Run(ctx, fs.Args())
	}

	logger.Debug("starting interactive mode", zap.String("path", taskRepo.Path()))
	if err := dispatcher.Interactive(ctx, in); err != nil {
		logger.Error("interactive input failed", zap.Error(err))
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}

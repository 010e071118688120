package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

const (
	prompt     = ">> "
	programTag = "task-cli"
)

// Interactive читает команды построчно до EOF, exit/quit или отмены ctx (SIGINT).
// Начатая команда всегда доводится до конца: отмена проверяется только между строками.
//
// Чтение идет в отдельной горутине. После возврата по отмене или exit она может
// остаться заблокированной в Read на in до следующей строки или EOF: прервать
// блокирующий Read у io.Reader нельзя. Поэтому Interactive забирает in себе до
// конца процесса, и вызывающий код не должен читать из него после возврата.
func (d *Dispatcher) Interactive(ctx context.Context, in io.Reader) error {
	d.interactive = true
	defer func() { d.interactive = false }()

	quit := make(chan struct{})
	defer close(quit)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			case <-quit:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	cmdCtx := context.WithoutCancel(ctx)
	for {
		fmt.Fprint(d.out, prompt)

		select {
		case <-ctx.Done():
			fmt.Fprintln(d.out, "\nEnd of program")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(d.out, "\nEnd of program")
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if stop := d.handleLine(cmdCtx, line); stop {
				fmt.Fprintln(d.out, "End of program")
				return nil
			}
		}
	}
}

func (d *Dispatcher) handleLine(ctx context.Context, line string) (stop bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	args, err := Split(line)
	if err != nil {
		d.handleError(err)
		return false
	}
	// исходная грамматика требовала префикс "task-cli"
	if len(args) > 0 && args[0] == programTag {
		args = args[1:]
	}
	if len(args) == 0 {
		return false
	}

	switch args[0] {
	case "exit", "quit":
		return true
	}

	if err := d.Execute(ctx, args); err != nil {
		d.logger.Debug("interactive command failed", zap.String("line", line), zap.Error(err))
		d.handleError(err)
	}
	return false
}

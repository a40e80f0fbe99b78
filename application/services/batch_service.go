package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/carlosrabelo/swctl/domain/entities"
	"github.com/carlosrabelo/swctl/domain/ports"
	"github.com/carlosrabelo/swctl/domain/services"
)

// RunnerFactory builds the command runner of one target.
type RunnerFactory func(target string) (ports.CommandRunner, error)

// BatchService runs a command list against one or more switches, one
// switch at a time, and prints captured output.
type BatchService struct {
	newRunner RunnerFactory
	out       io.Writer
	log       logrus.FieldLogger
}

// NewBatchService creates a batch runner writing captured output to out.
func NewBatchService(factory RunnerFactory, out io.Writer, log logrus.FieldLogger) *BatchService {
	return &BatchService{newRunner: factory, out: out, log: log}
}

// Run executes commands on every target in order. A failed command does
// not stop the batch; a lost connection skips the rest of that target.
// Every failure is returned in a *services.BatchError.
func (b *BatchService) Run(ctx context.Context, targets, commands []string) error {
	var failures []error
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			if len(failures) == 0 {
				failures = append(failures, err)
			}
			break
		}
		if len(targets) > 1 {
			fmt.Fprintf(b.out, "==> %s <==\n", target)
		}
		failures = append(failures, b.runTarget(ctx, target, commands)...)
	}
	if len(failures) == 0 {
		return nil
	}
	return &services.BatchError{Failures: failures}
}

func (b *BatchService) runTarget(ctx context.Context, target string, commands []string) (failures []error) {
	runner, err := b.newRunner(target)
	if err != nil {
		b.log.WithField("host", target).Errorf("Cannot prepare session: %v", err)
		return []error{err}
	}
	log := b.log.WithField("host", runner.Target())
	defer func() {
		if err := runner.Close(); err != nil {
			log.Warnf("Close failed: %v", err)
			failures = append(failures, err)
		}
	}()

	if err := runner.Connect(ctx); err != nil {
		log.Errorf("Connection failed: %v", err)
		return []error{err}
	}

	for i, line := range commands {
		cmd := entities.NewCommand(line)
		output, err := runner.Run(ctx, cmd.Text)
		if cmd.Captures() && (err == nil || output != "") {
			fmt.Fprintln(b.out, output)
		}
		if err == nil {
			continue
		}

		failures = append(failures, err)
		var connErr *services.ConnectionError
		switch {
		case ctx.Err() != nil:
			log.Warnf("Interrupted, %d command(s) not sent", len(commands)-i-1)
			return failures
		case errors.As(err, &connErr):
			log.Errorf("Aborting remaining %d command(s): %v", len(commands)-i-1, err)
			return failures
		default:
			log.Errorf("Command failed: %v", err)
		}
	}
	return failures
}

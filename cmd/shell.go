package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"pennybid/config"

	log "github.com/sirupsen/logrus"
)

const shellPrompt = "pennybid> "

// Shell runs an interactive session against a live app with workers running
func Shell(ctx context.Context, in io.Reader, out io.Writer) error {
	cfg := config.Get()

	app, err := NewApp(ctx, cfg, EventsLive)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.Close()

	app.StartWorkers(ctx)

	fmt.Fprintln(out, "Pennybid shell. Type 'help' for commands, 'exit' to quit.")
	return RunShell(ctx, NewSession(app, out), in)
}

// RunShell reads commands from in until EOF, exit or cancellation
func RunShell(ctx context.Context, session *Session, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(session.Out, shellPrompt)
		if !scanner.Scan() {
			fmt.Fprintln(session.Out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		args, err := splitArgs(scanner.Text())
		if err != nil {
			fmt.Fprintf(session.Out, "Error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}

		name := strings.ToLower(args[0])
		if name == "exit" || name == "quit" {
			return nil
		}

		if err := session.Execute(ctx, name, args[1:]); err != nil {
			log.WithFields(log.Fields{
				"command": name,
				"error":   err,
			}).Debug("Shell command failed")
			fmt.Fprintf(session.Out, "Error: %v\n", err)
		}
	}
}

// splitArgs splits a command line on spaces, keeping double-quoted runs together
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case (r == ' ' || r == '\t') && !quoted:
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("unterminated quote")
	}
	if started {
		args = append(args, current.String())
	}
	return args, nil
}

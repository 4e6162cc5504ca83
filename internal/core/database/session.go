package database

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/RichardKnop/rowstore/internal/core/parser"
	"github.com/RichardKnop/rowstore/internal/core/rowstore"
)

const (
	prompt = "db > "

	// Longest input line the session accepts
	maxLineSize = 1 << 20
)

var metaCommandHelp = map[string]string{
	"exit":      "Flush the database and exit",
	"constants": "Print the on-disk layout constants",
	"btree":     "Print the structure of the tree",
	"help":      "Show available commands",
}

// Session reads commands line by line, runs them against the table and
// prints the results.
type Session struct {
	table  Table
	out    io.Writer
	logger *zap.Logger
}

func NewSession(logger *zap.Logger, aTable Table, out io.Writer) *Session {
	return &Session{
		table:  aTable,
		out:    out,
		logger: logger,
	}
}

// Run is the read-eval-print loop. It returns when the exit meta command is
// entered, when the input ends or when ctx is cancelled.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		lines   = make(chan string)
		readErr = make(chan error, 1)
	)
	// The reader exits once ctx is cancelled, unless it is blocked in Scan.
	// After exit it stays parked on stdin until the process ends.
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, rowstore.PageSize), maxLineSize)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		s.printPrompt()

		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			s.logger.Info("session interrupted")
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("read input: %w", err)
					}
				default:
				}
				return nil
			}
			if exit, _ := s.Execute(ctx, line); exit {
				return nil
			}
		}
	}
}

func (s *Session) printPrompt() {
	fmt.Fprint(s.out, prompt)
}

// Execute runs a single line and prints its result. The returned error has
// already been printed, exit reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	aCommand, err := parser.Parse(line)
	if err == nil {
		err = s.execute(ctx, aCommand)
	}
	if err != nil {
		s.logger.Sugar().With(
			"line", line,
			"error", err,
		).Warn("command failed")
		fmt.Fprintln(s.out, renderError(line, err))
		return false, err
	}
	return aCommand.Kind == parser.MetaExit, nil
}

func (s *Session) execute(ctx context.Context, aCommand parser.Command) error {
	switch aCommand.Kind {
	case parser.MetaExit:
		return nil
	case parser.MetaConstants:
		fmt.Fprintln(s.out, "Constants:")
		for _, aConstant := range rowstore.Constants() {
			fmt.Fprintf(s.out, "%s: %d\n", aConstant.Name, aConstant.Value)
		}
		return nil
	case parser.MetaBTree:
		fmt.Fprintln(s.out, "Tree:")
		return s.table.Describe(ctx, s.out)
	case parser.MetaHelp:
		for _, name := range parser.MetaCommandNames {
			fmt.Fprintf(s.out, "%s%-10s - %s\n", aCommand.Prefix, name, metaCommandHelp[name])
		}
		return nil
	case parser.Insert:
		if err := s.table.Insert(ctx, aCommand.Row); err != nil {
			return err
		}
	case parser.Select:
		if err := s.selectAll(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported command kind %d", aCommand.Kind)
	}

	fmt.Fprintln(s.out, "Executed!")
	return nil
}

func (s *Session) selectAll(ctx context.Context) error {
	aRows, err := s.table.Select(ctx)
	if err != nil {
		return err
	}
	for {
		aRow, err := aRows.FetchRow(ctx)
		if err != nil {
			if errors.Is(err, rowstore.ErrNoMoreRows) {
				return nil
			}
			return err
		}
		fmt.Fprintln(s.out, aRow.String())
	}
}

func renderError(line string, err error) string {
	switch {
	case errors.Is(err, rowstore.ErrStringTooLong):
		return "Your strings are coming on a little too long"
	case errors.Is(err, rowstore.ErrNegativeID):
		return "I like my IDs like I like my attitudes: positive"
	case errors.Is(err, rowstore.ErrDuplicateKey):
		return "Error: I don't like seconds"
	case errors.Is(err, rowstore.ErrTableFull):
		return "Error: Table full."
	case errors.Is(err, parser.ErrSyntax):
		return "Syntax error. Could not parse statement."
	case errors.Is(err, parser.ErrUnrecognizedStatement):
		return fmt.Sprintf("Unrecognized keyword at start of '%s'.", line)
	case errors.Is(err, parser.ErrUnrecognizedCommand):
		return fmt.Sprintf("Unrecognized command '%s'", line)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

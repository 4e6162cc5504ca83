package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/RichardKnop/rowstore/internal/core/rowstore"
)

var (
	ErrSyntax                = errors.New("syntax error")
	ErrUnrecognizedStatement = errors.New("unrecognized statement")
	ErrUnrecognizedCommand   = errors.New("unrecognized meta command")
)

type Kind int

const (
	MetaExit Kind = iota + 1
	MetaConstants
	MetaBTree
	MetaHelp
	Insert
	Select
)

func (k Kind) String() string {
	switch k {
	case MetaExit:
		return "exit"
	case MetaConstants:
		return "constants"
	case MetaBTree:
		return "btree"
	case MetaHelp:
		return "help"
	case Insert:
		return "insert"
	case Select:
		return "select"
	default:
		return "unknown"
	}
}

func (k Kind) IsMeta() bool {
	return k >= MetaExit && k <= MetaHelp
}

// Command is a parsed input line. Row is only set for Insert, Prefix only
// for meta commands.
type Command struct {
	Kind   Kind
	Row    rowstore.Row
	Prefix string
}

// Meta commands may start with either of these prefixes.
var metaPrefixes = []string{".", "mk_"}

var metaCommands = map[string]Kind{
	"exit":      MetaExit,
	"constants": MetaConstants,
	"btree":     MetaBTree,
	"help":      MetaHelp,
}

// MetaCommandNames lists meta commands in the order help prints them.
var MetaCommandNames = []string{"exit", "constants", "btree", "help"}

// Parse turns one line of input into a command.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)

	for _, prefix := range metaPrefixes {
		if strings.HasPrefix(strings.ToLower(line), prefix) {
			return parseMeta(line, prefix)
		}
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnrecognizedStatement
	}

	switch strings.ToLower(fields[0]) {
	case "insert":
		return parseInsert(fields)
	case "select":
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%w: select takes no arguments", ErrSyntax)
		}
		return Command{Kind: Select}, nil
	default:
		return Command{}, fmt.Errorf("%w: %s", ErrUnrecognizedStatement, fields[0])
	}
}

func parseMeta(line, prefix string) (Command, error) {
	name := strings.ToLower(line[len(prefix):])
	kind, ok := metaCommands[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnrecognizedCommand, line)
	}
	return Command{Kind: kind, Prefix: prefix}, nil
}

// insert <id> <username> <email>
func parseInsert(fields []string) (Command, error) {
	if len(fields) != 4 {
		return Command{}, fmt.Errorf("%w: insert expects 3 arguments, got %d", ErrSyntax, len(fields)-1)
	}

	id, err := strconv.ParseInt(fields[1], 10, 32)
	if err != nil {
		return Command{}, fmt.Errorf("%w: invalid id %q", ErrSyntax, fields[1])
	}

	aRow := rowstore.Row{
		ID:       int32(id),
		Username: fields[2],
		Email:    fields[3],
	}
	if err := aRow.Validate(); err != nil {
		return Command{}, err
	}

	return Command{Kind: Insert, Row: aRow}, nil
}

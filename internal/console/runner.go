package console

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(ctx context.Context, api API, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		PrintHelp(errOut)
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp(out)
		return 0

	case "ls":
		return exit(out, errOut, listTodos(ctx, api))

	case "add":
		if len(a) == 0 || len(a) > 2 {
			printResult(out, errOut, fail("usage: todo add <title> [description]"))
			return 2
		}
		if strings.TrimSpace(a[0]) == "" {
			printResult(out, errOut, emptyTitle())
			return 2
		}
		description := ""
		if len(a) == 2 {
			description = a[1]
		}
		return exit(out, errOut, addTodo(ctx, api, a[0], description))

	case "get", "done", "undo", "rm":
		if len(a) != 1 {
			printResult(out, errOut, fail(fmt.Sprintf("usage: todo %s <id>", cmd)))
			return 2
		}
		id, valid := parseID(a[0])
		if !valid {
			printResult(out, errOut, invalidID())
			return 2
		}
		switch cmd {
		case "get":
			return exit(out, errOut, showTodo(ctx, api, id))
		case "done":
			return exit(out, errOut, setCompleted(ctx, api, id, true))
		case "undo":
			return exit(out, errOut, setCompleted(ctx, api, id, false))
		default:
			return exit(out, errOut, removeTodo(ctx, api, id))
		}
	}

	printResult(out, errOut, fail("unknown subcommand: "+cmd))
	fmt.Fprintln(errOut)
	PrintHelp(errOut)
	return 2
}

func exit(out, errOut io.Writer, r result) int {
	printResult(out, errOut, r)
	if r.failed {
		return 1
	}
	return 0
}

func PrintHelp(w io.Writer) {
	fmt.Fprint(w, `todo - console client for the todo API

Usage:
  todo [flags]                  Start the interactive menu
  todo [flags] <subcommand> [args]

Subcommands:
  add <title> [description]     Add a new to-do
  ls                            List all to-dos
  get <id>                      Show one to-do
  done <id>                     Mark a to-do as complete
  undo <id>                     Mark a to-do as pending
  rm <id>                       Remove a to-do

Flags:
  -api <url>                    API base URL (default http://127.0.0.1:8080, env TODO_API_URL)
  -v                            Verbose logging

Examples:
  todo add "Buy milk" "2 liters"
  todo ls
  todo done 2
  todo rm 3
`)
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
)

// printlnFn and printFn are test seams for REPL output.
var (
	printlnFn = fmt.Println
	printFn   = fmt.Print
)

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Me(ctx context.Context) error
	Whoami(ctx context.Context) error
	Get(ctx context.Context, path string) error
	Post(ctx context.Context, path, body string) error
	Upload(ctx context.Context, paths []string) error
	Health(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
// Commands:
//
//	help                   show available commands
//	login                  prompt for email and password
//	logout                 end the session
//	me                     fetch the current user
//	whoami                 decode the stored credential
//	get <path>             GET path and print the JSON answer
//	post <path> [json]     POST json (prompted when omitted)
//	upload <file>...       upload images through the media backend
//	health                 gRPC health check
//	exit | quit            leave the program
//
// Handlers print their own failures, so returned errors are dropped here.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printFn(fmt.Sprintf("cms%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			printlnFn()
			return
		}

		cmd, rest := splitCommand(line)
		if cmd == "" {
			continue
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, whoami, get, post, upload, health, logout, exit")
			} else {
				printlnFn("Available commands: login, whoami, get, post, health, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "me":
			_ = a.Me(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "get":
			_ = a.Get(ctx, rest)

		case "post":
			path, body := splitCommand(rest)
			_ = a.Post(ctx, path, body)

		case "upload":
			_ = a.Upload(ctx, strings.Fields(rest))

		case "health":
			_ = a.Health(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

// splitCommand cuts the first word off line. The remainder keeps its inner
// spacing so JSON arguments survive.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Edit(ctx context.Context) error
	Avatar(ctx context.Context, args []string) error
	Post(ctx context.Context, args []string) error
	Feed(ctx context.Context) error
	Mine(ctx context.Context) error
	Retry(ctx context.Context) error
}

// runREPL reads a line, treats the first token as the command and the rest
// as its arguments, and dispatches to a. Command errors are printed and the
// loop goes on. It exits on end of input or on "exit"/"quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "lc (%s)> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: whoami, edit, avatar [path], post [text], feed, mine, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, retry, logout, exit")
			}
		case "register":
			cmdErr = a.Register(ctx)
		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.WhoAmI(ctx)
		case "edit":
			cmdErr = a.Edit(ctx)
		case "avatar":
			cmdErr = a.Avatar(ctx, args)
		case "post":
			cmdErr = a.Post(ctx, args)
		case "feed":
			cmdErr = a.Feed(ctx)
		case "mine":
			cmdErr = a.Mine(ctx)
		case "retry":
			cmdErr = a.Retry(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", describeError(cmdErr))
		}
		if err != nil {
			return
		}
	}
}

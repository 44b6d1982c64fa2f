package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	Login(ctx context.Context) error
	Google(ctx context.Context) error
	Callback(ctx context.Context, rawURL string) error
	Name(ctx context.Context) error

	Home(ctx context.Context) error
	More(ctx context.Context, list string) error
	Face(ctx context.Context, faceID int64) error
	Rename(ctx context.Context, faceID int64, name string) error
	DeleteFace(ctx context.Context, faceID int64) error
	DeletePhoto(ctx context.Context, photoID int64) error
	Download(ctx context.Context, photoID int64) error
	Link(ctx context.Context, photoID int64) error
	Toggle(ctx context.Context, faceID int64) error
	Upload(ctx context.Context, paths []string) error

	Status(ctx context.Context) error
	Lang(ctx context.Context, code string) error
	Logout(ctx context.Context, allDevices bool) error
	DeleteAccount(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: login, google, callback <url>, status, lang [code], exit"
	helpSignedIn  = "Available commands: home, refresh, more faces|photos, face <id>, rename <id> <name>, " +
		"deleteface <id>, delete <photo id>, download <photo id>, link <photo id>, toggle <face id>, " +
		"upload <file>..., name, status, lang [code], logout [all], deleteaccount, exit"
)

// runREPL starts a simple read–eval–print loop for the whatbmphotos CLI.
//
// It reads a line from the provided reader, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// Malformed arguments print a usage line; unknown commands are reported back
// to the user. The loop exits on EOF or when the user types "exit"
// or "quit".
//
// Commands that prompt for more input read from the same reader. Any errors
// returned by command handlers are ignored here; handlers report their own
// failures through the notifier.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("wb %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "login":
			_ = a.Login(ctx)

		case "google":
			_ = a.Google(ctx)

		case "callback":
			if len(args) != 1 {
				printlnFn("Usage: callback <url>")
				continue
			}
			_ = a.Callback(ctx, args[0])

		case "name":
			_ = a.Name(ctx)

		case "home", "refresh":
			_ = a.Home(ctx)

		case "more":
			if len(args) != 1 || (args[0] != "faces" && args[0] != "photos") {
				printlnFn("Usage: more faces|photos")
				continue
			}
			_ = a.More(ctx, args[0])

		case "face":
			if id, ok := idArg(cmd, args, 1); ok {
				_ = a.Face(ctx, id)
			}

		case "rename":
			if len(args) < 2 {
				printlnFn("Usage: rename <id> <name>")
				continue
			}
			if id, ok := idArg(cmd, args, 0); ok {
				_ = a.Rename(ctx, id, strings.Join(args[1:], " "))
			}

		case "deleteface":
			if id, ok := idArg(cmd, args, 1); ok {
				_ = a.DeleteFace(ctx, id)
			}

		case "delete":
			if id, ok := idArg(cmd, args, 1); ok {
				_ = a.DeletePhoto(ctx, id)
			}

		case "download":
			if id, ok := idArg(cmd, args, 1); ok {
				_ = a.Download(ctx, id)
			}

		case "link":
			if id, ok := idArg(cmd, args, 1); ok {
				_ = a.Link(ctx, id)
			}

		case "toggle":
			if id, ok := idArg(cmd, args, 1); ok {
				_ = a.Toggle(ctx, id)
			}

		case "upload":
			if len(args) == 0 {
				printlnFn("Usage: upload <file>...")
				continue
			}
			_ = a.Upload(ctx, args)

		case "status":
			_ = a.Status(ctx)

		case "lang":
			code := ""
			if len(args) > 0 {
				code = args[0]
			}
			_ = a.Lang(ctx, code)

		case "logout":
			_ = a.Logout(ctx, len(args) > 0 && args[0] == "all")

		case "deleteaccount":
			_ = a.DeleteAccount(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

// idArg parses the numeric id of cmd. want is the exact number of
// arguments, or 0 when the id is only the first of several.
func idArg(cmd string, args []string, want int) (int64, bool) {
	if len(args) == 0 || (want > 0 && len(args) != want) {
		printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		printlnFn(fmt.Sprintf("Invalid id: %q", args[0]))
		return 0, false
	}
	return id, true
}

// ABOUTME: Terminal chat client driving the conversation core end to end
// ABOUTME: Wires identity, dual-mode persistence, quota, directory, and the stream controller

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/hartlabs/chatcore/internal/chat"
	"github.com/hartlabs/chatcore/internal/identity"
	"github.com/hartlabs/chatcore/internal/localstore"
	"github.com/hartlabs/chatcore/internal/quota"
	"github.com/hartlabs/chatcore/internal/remote"
	"github.com/hartlabs/chatcore/internal/session"
	"github.com/hartlabs/chatcore/internal/store"
)

// getDataPath returns the client data directory.
// Priority: XDG_DATA_HOME/chatcore > ~/.local/share/chatcore
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "chatcore")
}

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "session API base URL")
	token := flag.String("token", os.Getenv("CHATCORE_TOKEN"), "identity token (empty for anonymous)")
	dataDir := flag.String("data-dir", getDataPath(), "directory for anonymous local state")
	limit := flag.Int("limit", quota.DefaultLimit, "anonymous free-query limit")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*serverURL, *token, *dataDir, *limit, logger); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func run(serverURL, token, dataDir string, limit int, logger *slog.Logger) error {
	id := identity.Anonymous
	if token != "" {
		userID, err := identity.SubjectUnverified(token)
		if err != nil {
			return fmt.Errorf("reading token: %w", err)
		}
		id = identity.Authenticated(userID)
	}

	storage, err := localstore.OpenFile(filepath.Join(dataDir, "local.json"))
	if err != nil {
		return fmt.Errorf("opening local storage: %w", err)
	}

	client := remote.NewClient(serverURL, token, logger)
	local := store.NewLocalStore(storage, logger)
	dual := store.NewDualStore(id, client, local, logger)
	dir := session.NewDirectory(dual, id, logger)
	tracker := quota.NewTracker(storage, limit, logger)
	controller := chat.New(dir, client, tracker, id, chat.Config{}, logger)

	ctx := context.Background()

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	if err := dir.Refresh(ctx); err != nil {
		return fmt.Errorf("loading sessions: %w", err)
	}

	if id.IsAuthenticated() {
		// First sign-in with no history gets a session up front.
		if _, err := dir.EnsureSession(ctx); err != nil {
			return fmt.Errorf("preparing session: %w", err)
		}
		green.Printf("Signed in as %s\n", id.UserID)
		printActive(dir)
	} else {
		state := tracker.State()
		yellow.Printf("Anonymous mode: %d of %d free queries remaining. Sign in for unlimited access.\n",
			state.Remaining(), state.Limit)
	}
	fmt.Println(`Type a message, or /help for commands.`)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, dir, tracker, line); quit {
				break
			}
			continue
		}

		events, err := controller.Send(ctx, line)
		if err != nil {
			printSendError(err)
			continue
		}

		cyan.Print("assistant: ")
		for ev := range events {
			switch ev.Type {
			case chat.EventChunk:
				fmt.Print(ev.Chunk)
			case chat.EventCommitted:
				fmt.Println()
				if ev.Quota != nil {
					printQuotaNotice(*ev.Quota)
				}
			case chat.EventFailed:
				fmt.Println()
				color.Red("Failed to send message: %v", ev.Err)
			}
		}
	}

	return scanner.Err()
}

// runCommand handles slash commands. Returns true when the client should exit.
func runCommand(ctx context.Context, dir *session.Directory, tracker *quota.Tracker, line string) bool {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /new [title]    Create a session and select it")
		fmt.Println("  /list           List sessions")
		fmt.Println("  /select N       Select the Nth listed session")
		fmt.Println("  /rename TITLE   Rename the selected session")
		fmt.Println("  /delete         Delete the selected session")
		fmt.Println("  /quota          Show remaining free queries")
		fmt.Println("  /quit           Exit")

	case "/new":
		if _, err := dir.CreateSession(ctx, rest); err != nil {
			color.Red("Error: %v", err)
			break
		}
		printActive(dir)

	case "/list":
		if err := dir.Refresh(ctx); err != nil {
			color.Red("Error: %v", err)
			break
		}
		sessions := dir.Sessions()
		if len(sessions) == 0 {
			fmt.Println("No sessions yet. Use /new to start one.")
			break
		}
		for i, s := range sessions {
			preview := ""
			if latest := s.LatestMessage(); latest != nil {
				preview = latest.Content
				if len(preview) > 40 {
					preview = preview[:40] + "..."
				}
			}
			fmt.Printf("%2d. %s  %s  %s\n", i+1, s.CreatedAt.Local().Format("Jan 02 15:04"), s.Title, preview)
		}

	case "/select":
		n, err := strconv.Atoi(rest)
		sessions := dir.Sessions()
		if err != nil || n < 1 || n > len(sessions) {
			color.Red("Usage: /select N (run /list first)")
			break
		}
		if err := dir.SelectSession(ctx, sessions[n-1].ID); err != nil {
			color.Red("Error: %v", err)
			break
		}
		printActive(dir)

	case "/rename":
		active := dir.Active()
		if active == nil {
			color.Red("No session selected")
			break
		}
		if _, err := dir.RenameSession(ctx, active.ID, rest); err != nil {
			color.Red("Error: %v", err)
			break
		}
		printActive(dir)

	case "/delete":
		active := dir.Active()
		if active == nil {
			color.Red("No session selected")
			break
		}
		if err := dir.DeleteSession(ctx, active.ID); err != nil {
			color.Red("Error: %v", err)
			break
		}
		fmt.Println("Session deleted. Use /new or /select before sending.")

	case "/quota":
		printQuotaNotice(tracker.State())

	default:
		color.Red("Unknown command %s (try /help)", cmd)
	}

	return false
}

// printActive shows the current selection.
func printActive(dir *session.Directory) {
	if active := dir.Active(); active != nil {
		color.New(color.FgGreen).Printf("Now chatting in %q\n", active.Title)
	}
}

// printSendError renders pre-flight rejections.
func printSendError(err error) {
	switch {
	case errors.Is(err, chat.ErrBusy):
		color.Yellow("Still waiting on the previous reply.")
	case errors.Is(err, chat.ErrQuotaExceeded):
		color.Red("Query limit reached. Please sign in to continue using the assistant.")
	case errors.Is(err, chat.ErrNoSession):
		color.Red("Select or create a session to start chatting (/new).")
	default:
		color.Red("Error: %v", err)
	}
}

// printQuotaNotice mirrors the product's limit warnings.
func printQuotaNotice(state quota.State) {
	switch {
	case state.LimitReached():
		color.Red("Query limit reached. Please sign in to continue using the assistant.")
	case state.Warning():
		color.Yellow("You have %d free %s remaining. Sign in to get unlimited access.",
			state.Remaining(), pluralQueries(state.Remaining()))
	default:
		fmt.Printf("%d of %d free queries remaining.\n", state.Remaining(), state.Limit)
	}
}

func pluralQueries(n int) string {
	if n == 1 {
		return "query"
	}
	return "queries"
}

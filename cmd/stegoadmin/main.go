package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"stego-server/internal/database"
)

const (
	// Default timeout for database operations
	defaultTimeout = 30 * time.Second
	// Default database directory path
	defaultDatabaseDir = "/data/db"

	minPasswordLength = 6
	maxPasswordLength = 72
)

// readPassword reads a line from the terminal without echo.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(syscall.Stdin))
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	databaseDir := os.Getenv("DATABASE_DIR")
	if databaseDir == "" {
		databaseDir = defaultDatabaseDir
	}
	dbPath := filepath.Join(databaseDir, "stego.db")

	db, err := database.New(ctx, dbPath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure DATABASE_DIR is set correctly (current: %s)\n", databaseDir)
		os.Exit(1)
	}

	code := run(ctx, db, os.Args[1:], os.Stdout, os.Stderr)
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, db *database.Database, args []string, stdout, stderr io.Writer) int {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	switch args[0] {
	case "list":
		return listUsers(ctx, db, stdout, stderr)
	case "reset":
		if len(args) != 2 {
			fmt.Fprintln(stderr, "Usage: stegoadmin reset <email>")
			return 1
		}
		return resetPassword(ctx, db, args[1], stdout, stderr)
	case "status":
		return showStatus(ctx, db, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(args[0]))
		printUsage(stderr)
		return 1
	}
}

// sanitizeCommand replaces any character outside [a-zA-Z0-9_-] with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Stego Server Account Management")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: stegoadmin <command> [args]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  list            - List registered accounts")
	fmt.Fprintln(w, "  reset <email>   - Reset an account password")
	fmt.Fprintln(w, "  status          - Show account and artifact counts")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  DATABASE_DIR - Path to database directory (default: %s)\n", defaultDatabaseDir)
}

func listUsers(ctx context.Context, db *database.Database, stdout, stderr io.Writer) int {
	users, err := db.ListUsers(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to list accounts: %v\n", err)
		return 1
	}
	if len(users) == 0 {
		fmt.Fprintln(stdout, "No accounts registered.")
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCREATED")
	for _, u := range users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.CreatedAt.Format(time.RFC3339))
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// checkPasswords returns a message describing why the pair is rejected, or
// "" when it is acceptable.
func checkPasswords(password, confirm []byte) string {
	switch {
	case !bytes.Equal(password, confirm):
		return "Passwords do not match"
	case len(password) < minPasswordLength:
		return fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	case len(password) > maxPasswordLength:
		return fmt.Sprintf("Password must be at most %d bytes", maxPasswordLength)
	}
	return ""
}

func resetPassword(ctx context.Context, db *database.Database, email string, stdout, stderr io.Writer) int {
	if _, err := db.GetUserByEmail(ctx, email); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			fmt.Fprintf(stderr, "Error: No account for %s\n", email)
		} else {
			fmt.Fprintf(stderr, "Error: Failed to look up account: %v\n", err)
		}
		return 1
	}

	fmt.Fprint(stdout, "New Password: ")
	password, err := readPassword()
	fmt.Fprintln(stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading password: %v\n", err)
		return 1
	}

	fmt.Fprint(stdout, "Confirm Password: ")
	confirm, err := readPassword()
	fmt.Fprintln(stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error reading password: %v\n", err)
		return 1
	}

	if msg := checkPasswords(password, confirm); msg != "" {
		fmt.Fprintf(stderr, "Error: %s\n", msg)
		return 1
	}

	if err := db.UpdatePassword(ctx, email, string(password)); err != nil {
		fmt.Fprintf(stderr, "Error: Failed to update password: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "Password updated successfully.")
	fmt.Fprintln(stdout, "All existing sessions for this account have been invalidated.")
	return 0
}

func showStatus(ctx context.Context, db *database.Database, stdout, stderr io.Writer) int {
	if err := db.Ping(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: Database unreachable: %v\n", err)
		return 1
	}
	stats, err := db.GetStats()
	if err != nil {
		fmt.Fprintf(stderr, "Error: Failed to read stats: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Database:        %s\n", db.Path())
	fmt.Fprintf(stdout, "Accounts:        %d\n", stats.Users)
	fmt.Fprintf(stdout, "Active sessions: %d\n", stats.ActiveSessions)
	fmt.Fprintf(stdout, "Image results:   %d\n", stats.ImageArtifacts)
	fmt.Fprintf(stdout, "Video results:   %d\n", stats.VideoArtifacts)
	if stats.Users == 0 {
		fmt.Fprintln(stdout, "No accounts yet; sign up through the web interface.")
	}
	return 0
}

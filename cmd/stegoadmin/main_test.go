package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"stego-server/internal/database"
)

func setupTestDB(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"),
		&database.Options{BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("failed to close database: %v", err)
		}
	})
	return db
}

// stubPasswords makes readPassword return each input in turn.
func stubPasswords(t *testing.T, inputs ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	i := 0
	readPassword = func() ([]byte, error) {
		if i >= len(inputs) {
			return nil, errors.New("no more input")
		}
		p := inputs[i]
		i++
		return []byte(p), nil
	}
}

func TestPrintUsage(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for _, want := range []string{"list", "reset <email>", "status", "DATABASE_DIR"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("usage missing %q", want)
		}
	}
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"status", "status"},
		{"re-set_2", "re-set_2"},
		{"rm -rf", "rm_-rf"},
		{"a\nb", "a_b"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeCommand(tt.in); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckPasswords(t *testing.T) {
	tests := []struct {
		name     string
		password string
		confirm  string
		wantOK   bool
	}{
		{"valid", "validpass123", "validpass123", true},
		{"minimum length", "123456", "123456", true},
		{"too short", "12345", "12345", false},
		{"empty", "", "", false},
		{"mismatch", "password123", "password456", false},
		{"too long", strings.Repeat("x", 73), strings.Repeat("x", 73), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := checkPasswords([]byte(tt.password), []byte(tt.confirm))
			if (msg == "") != tt.wantOK {
				t.Errorf("checkPasswords() = %q, wantOK %v", msg, tt.wantOK)
			}
		})
	}
}

func TestRunUnknownCommand(t *testing.T) {
	db := setupTestDB(t)
	var stdout, stderr bytes.Buffer

	if code := run(context.Background(), db, []string{"bogus;ls"}, &stdout, &stderr); code != 1 {
		t.Errorf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "Unknown command: bogus_ls") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestListUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	var stdout, stderr bytes.Buffer

	if code := run(ctx, db, []string{"list"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run(list) = %d, stderr %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "No accounts registered") {
		t.Errorf("stdout = %q", stdout.String())
	}

	if _, err := db.CreateUser(ctx, "Ada", "ada@example.com", "secret123"); err != nil {
		t.Fatal(err)
	}
	stdout.Reset()
	if code := run(ctx, db, []string{"list"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run(list) = %d", code)
	}
	if !strings.Contains(stdout.String(), "ada@example.com") || !strings.Contains(stdout.String(), "Ada") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestResetPassword(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user, err := db.CreateUser(ctx, "Ada", "ada@example.com", "secret123")
	if err != nil {
		t.Fatal(err)
	}
	session, err := db.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	stubPasswords(t, "newsecret", "newsecret")
	var stdout, stderr bytes.Buffer
	if code := run(ctx, db, []string{"reset", "ada@example.com"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run(reset) = %d, stderr %q", code, stderr.String())
	}

	if _, err := db.ValidateCredentials(ctx, "ada@example.com", "newsecret"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}
	if _, err := db.ValidateCredentials(ctx, "ada@example.com", "secret123"); err == nil {
		t.Error("old password still accepted")
	}
	if _, err := db.ValidateSession(ctx, session.Token); err == nil {
		t.Error("existing session should be invalidated")
	}
}

func TestResetPasswordFailures(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		inputs    []string
		wantInErr string
	}{
		{"missing email", []string{"reset"}, nil, "Usage"},
		{"unknown account", []string{"reset", "nobody@example.com"}, nil, "No account"},
		{"mismatch", []string{"reset", "ada@example.com"}, []string{"newsecret", "other123"}, "do not match"},
		{"too short", []string{"reset", "ada@example.com"}, []string{"abc", "abc"}, "at least"},
		{"read error", []string{"reset", "ada@example.com"}, nil, "reading password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			ctx := context.Background()
			if _, err := db.CreateUser(ctx, "Ada", "ada@example.com", "secret123"); err != nil {
				t.Fatal(err)
			}
			stubPasswords(t, tt.inputs...)

			var stdout, stderr bytes.Buffer
			if code := run(ctx, db, tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("run() = %d, want 1", code)
			}
			if !strings.Contains(stderr.String(), tt.wantInErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tt.wantInErr)
			}
			if _, err := db.ValidateCredentials(ctx, "ada@example.com", "secret123"); err != nil {
				t.Errorf("original password should still work: %v", err)
			}
		})
	}
}

func TestShowStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	var stdout, stderr bytes.Buffer
	if code := run(ctx, db, []string{"status"}, &stdout, &stderr); code != 0 {
		t.Fatalf("run(status) = %d, stderr %q", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Accounts:        0") {
		t.Errorf("stdout = %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "sign up") {
		t.Errorf("stdout should hint at signup: %q", stdout.String())
	}

	if _, err := db.CreateUser(ctx, "Ada", "ada@example.com", "secret123"); err != nil {
		t.Fatal(err)
	}
	stdout.Reset()
	run(ctx, db, []string{"status"}, &stdout, &stderr)
	if !strings.Contains(stdout.String(), "Accounts:        1") {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestShowStatusClosedDatabase(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), db, []string{"status"}, &stdout, &stderr); code != 1 {
		t.Errorf("run(status) on closed db = %d, want 1", code)
	}
}

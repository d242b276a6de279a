package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/assistant"
	"fintrack/internal/session"
)

type fakeChat struct {
	turns   []string
	history []session.Entry
}

func (f *fakeChat) HandleQuery(_ context.Context, _ int64, text string) assistant.Response {
	f.turns = append(f.turns, text)
	f.history = append(f.history,
		session.Entry{Role: session.RoleUser, Text: text, Timestamp: time.Now()},
		session.Entry{Role: session.RoleAssistant, Text: "echo " + text, Timestamp: time.Now()})
	resp := assistant.Response{Text: "echo " + text, Status: assistant.StatusOK}
	if text == "summary" {
		resp.ChartData = map[string]float64{"Food": 50, "Bills": 200}
	}
	return resp
}

func (f *fakeChat) ChatHistory(int64) []session.Entry { return f.history }

func TestChatLoop(t *testing.T) {
	chat := &fakeChat{}
	in := strings.NewReader("hello\n\n/history\nsummary\n/quit\nnever sent\n")
	var out bytes.Buffer

	if err := chatLoop(context.Background(), in, &out, chat, 7); err != nil {
		t.Fatalf("chatLoop: %v", err)
	}

	if got := strings.Join(chat.turns, "|"); got != "hello|summary" {
		t.Fatalf("turns = %q", got)
	}
	text := out.String()
	for _, want := range []string{"echo hello", "user: hello", "Spending by category:"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "Bills") > strings.Index(text, "Food") {
		t.Errorf("chart not sorted largest first:\n%s", text)
	}
}

func TestChatLoopEOF(t *testing.T) {
	var out bytes.Buffer
	if err := chatLoop(context.Background(), strings.NewReader("hi"), &out, &fakeChat{}, 1); err != nil {
		t.Fatalf("chatLoop: %v", err)
	}
	if !strings.Contains(out.String(), "echo hi") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestMigrateCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ctl.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)

	run := func(args ...string) string {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&out)
		rootCmd.SetArgs(args)
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("%v: %v\n%s", args, err, out.String())
		}
		return out.String()
	}

	if got := run("migrate", "up"); !strings.Contains(got, "schema version 1 (dirty=false)") {
		t.Fatalf("up output = %q", got)
	}
	if got := run("migrate", "down", "--steps", "1"); !strings.Contains(got, "schema version 0") {
		t.Fatalf("down output = %q", got)
	}
}

func TestSignupCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "users.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"signup", "--name", "asha", "--email", "asha@example.com", "--password", "pw"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("signup: %v\n%s", err, out.String())
	}
	if !strings.Contains(out.String(), "Signup successful!") {
		t.Fatalf("output = %q", out.String())
	}
}

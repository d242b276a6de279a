package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"fintrack/internal/assistant"
	"fintrack/internal/cli"
	"fintrack/internal/session"
)

var chatUserID int64

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the finance assistant",
	Long: `Start an interactive chat with the assistant against the configured ledger.

Lines starting with a slash are local commands:
  /history  print the conversation so far
  /quit     leave (Ctrl-D works too)

Example:
  fintrackctl chat --user-id 1`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().Int64Var(&chatUserID, "user-id", 1, "ledger user to chat as")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	app, err := cli.BuildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	return chatLoop(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), app.Assistant, chatUserID)
}

type chatter interface {
	HandleQuery(ctx context.Context, userID int64, text string) assistant.Response
	ChatHistory(userID int64) []session.Entry
}

// chatLoop reads one turn per line until EOF, /quit or ctx is done.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, chat chatter, userID int64) error {
	sc := bufio.NewScanner(in)
	fmt.Fprintln(out, "fintrack chat. Type /quit to leave.")

	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/history":
			printHistory(out, chat.ChatHistory(userID))
			continue
		}

		resp := chat.HandleQuery(ctx, userID, line)
		fmt.Fprintln(out, resp.Text)
		printChart(out, resp.ChartData)
	}
}

func printHistory(out io.Writer, entries []session.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "(no history)")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(out, "[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.Role, e.Text)
	}
}

// printChart lists chart data largest first.
func printChart(out io.Writer, data map[string]float64) {
	if len(data) == 0 {
		return
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		switch {
		case data[a] > data[b]:
			return -1
		case data[a] < data[b]:
			return 1
		}
		return strings.Compare(a, b)
	})
	fmt.Fprintln(out, "Spending by category:")
	for _, name := range names {
		fmt.Fprintf(out, "  %-16s %10.2f\n", name, data[name])
	}
}

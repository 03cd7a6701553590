package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"promptd/internal/manager"
)

// statusPrinter renders notifications as one-line status messages.
func statusPrinter(w io.Writer) manager.EventPublisher {
	return manager.PublisherFunc(func(e manager.Event) {
		fmt.Fprintf(w, "[%s] %s\n", e.Level, e.Message)
	})
}

func newChatCmd(opts *options) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive prompt/reply loop on the terminal",
		Long: "Reads one prompt per line from stdin and prints the reply with its latency.\n" +
			"Type /model <id> to switch models and /quit to exit.",
		Example: "  promptd chat --model gpt2\n  echo 'Hello' | promptd chat --dry-run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			log = log.Level(maxLevel(log.GetLevel()))
			out := cmd.OutOrStdout()
			mgr, err := buildManager(cfg, log, statusPrinter(out))
			if err != nil {
				return err
			}
			defer mgr.Close()
			return runChat(cmd, mgr, model, cmd.InOrStdin(), out)
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model id from the allow-list (default model if empty or unknown)")
	return cmd
}

// runChat drives the loop until EOF or /quit.
func runChat(cmd *cobra.Command, mgr *manager.Manager, choice string, in io.Reader, out io.Writer) error {
	ctx := cmd.Context()
	id := mgr.Select(choice)
	if choice != "" && id != strings.TrimSpace(choice) {
		fmt.Fprintf(out, "[info] %q is not in the model list, using %q\n", choice, id)
	}
	h, _ := mgr.Load(ctx, id)

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		fields := strings.Fields(line)
		switch {
		case len(fields) == 0:
			continue
		case fields[0] == "/quit" || fields[0] == "/exit":
			return nil
		case fields[0] == "/model":
			id = mgr.Select(strings.Join(fields[1:], " "))
			h, _ = mgr.Load(ctx, id)
			continue
		}
		res := mgr.Generate(ctx, h, line)
		fmt.Fprintln(out, res.Reply)
		if res.OK() {
			fmt.Fprintf(out, "(%s, %.2fs)\n", res.ModelID, res.LatencySeconds())
		}
	}
}

// maxLevel raises info to warn so the log does not repeat the status lines.
func maxLevel(l zerolog.Level) zerolog.Level {
	if l == zerolog.InfoLevel {
		return zerolog.WarnLevel
	}
	return l
}

package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"stockroom/internal/chat"
)

func (c *cli) chatCmd() *cobra.Command {
	var readOnly bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat assistant (ajuda, adicionar produto, estoque, vender)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rl, err := readline.NewEx(&readline.Config{
				Prompt:            "\033[1;36mvocê>\033[0m ",
				HistoryFile:       historyFile(),
				InterruptPrompt:   "^C",
				EOFPrompt:         "sair",
				HistorySearchFold: true,
			})
			if err != nil {
				return fmt.Errorf("failed to initialize readline: %w", err)
			}
			defer rl.Close()

			return runChat(cmd.Context(), c.app.Bot, rl, rl.Stdout(), readOnly)
		},
	}
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "only allow stock queries")
	return cmd
}

type lineReader interface {
	Readline() (string, error)
}

// runChat feeds each line to the bot until EOF, ^C or "sair".
func runChat(ctx context.Context, bot *chat.Bot, in lineReader, out io.Writer, readOnly bool) error {
	session := chat.NewSession()
	fmt.Fprintln(out, chat.Greeting)

	for {
		line, err := in.Readline()
		if err != nil {
			if stderrors.Is(err, io.EOF) || stderrors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch strings.ToLower(line) {
		case "":
			continue
		case "sair", "exit", "quit":
			return nil
		}

		var reply string
		session, reply = bot.Handle(ctx, session, chat.Message{Text: line, ReadOnly: readOnly})
		fmt.Fprintln(out, strings.TrimRight(reply, "\n"))
	}
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".stockctl_history")
}

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/jonathan/resume-site/internal/chat"
	"github.com/jonathan/resume-site/internal/prompts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	chatURL     string
	chatPrompt  string
	chatVariant string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a running resume site from the terminal",
	Long: `Open a chat session against a running server. Answers stream as they arrive.
Ctrl-C cancels an answer in flight; /quit or Ctrl-D exits.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatURL, "url", "http://localhost:8080", "Base URL of the resume site")
	chatCmd.Flags().StringVar(&chatPrompt, "prompt", "", "Prompt to submit once on start")
	chatCmd.Flags().StringVar(&chatVariant, "variant", "", "Variant whose chat context to use")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	out := cmd.OutOrStdout()
	session := chat.NewSession(
		&chat.HTTPTransport{BaseURL: chatURL, Variant: chatVariant},
		chat.WithLogger(logger),
		chat.WithListener(terminalListener(out, logger)),
	)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-interrupts:
				if session.State() == chat.Idle {
					fmt.Fprintln(out)
					cancel()
					return
				}
				session.Cancel()
			}
		}
	}()

	fmt.Fprintf(out, "assistant> %s\n\n", prompts.MustGet(prompts.ChatFile, "welcome"))
	return chatLoop(ctx, session, cmd.InOrStdin(), out, chatPrompt)
}

// chatLoop mounts the session with the initial prompt and submits one line at a time until
// input ends, /quit is entered or ctx is done.
func chatLoop(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer, initialPrompt string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if initialPrompt != "" {
		fmt.Fprintf(out, "you> %s\n", initialPrompt)
	}
	if err := session.Mount(ctx, initialPrompt); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprint(out, "you> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if line == "/quit" || line == "/exit" {
			return nil
		}
		err := session.Submit(ctx, line)
		switch {
		case errors.Is(err, chat.ErrEmptyMessage):
			continue
		case err != nil:
			fmt.Fprintf(out, "(%v)\n", err)
		}
	}
}

// terminalListener prints streamed answers as they grow
func terminalListener(out io.Writer, log *zap.Logger) chat.Listener {
	answering := false
	return func(e chat.Event) {
		switch e.Type {
		case chat.EventStateChange:
			switch {
			case e.State == chat.Streaming:
				answering = true
				fmt.Fprint(out, "assistant> ")
			case e.State == chat.Idle && answering:
				// cancelled mid-answer
				answering = false
				fmt.Fprintln(out)
			}
		case chat.EventAssistantDelta:
			fmt.Fprint(out, e.Delta)
		case chat.EventAssistantDone:
			answering = false
			fmt.Fprintln(out)
		case chat.EventFailure:
			if answering {
				fmt.Fprintln(out)
			}
			answering = false
			fmt.Fprintf(out, "assistant> %s\n", e.Message.Content)
			log.Debug("chat turn failed", zap.Error(e.Err))
		}
	}
}

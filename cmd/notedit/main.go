// Command notedit edits one note stored behind the note API from the
// terminal.
package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"notedit/pkg/client"
	"notedit/pkg/config"
	"notedit/pkg/editor"
	"notedit/pkg/errors"
)

const defaultWidth = 72

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errors.UserMessage(err))
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
		cols    int
	)

	cmd := &cobra.Command{
		Use:           "notedit <note-id>",
		Short:         "Edit a note's title and content blocks",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
			}
			if cmd.Flags().Changed("timeout") {
				cfg.RequestTimeout = config.Duration{Duration: timeout}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			c, err := client.New(client.Config{
				BaseURL: cfg.APIURL,
				Timeout: cfg.RequestTimeout.Duration,
			})
			if err != nil {
				return err
			}
			defer c.Close()

			out := cmd.OutOrStdout()
			s := newSession(bufio.NewScanner(cmd.InOrStdin()), out, cols)

			fmt.Fprintln(out, "Loading...")
			ed, err := editor.Open(ctx, c, args[0], c,
				editor.WithNavigator(s.navigator()),
				editor.WithStateObserver(s.observer()),
				editor.WithSaveTimeout(cfg.RequestTimeout.Duration))
			if err != nil {
				return err
			}

			s.ed = ed
			return s.run(ctx)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", config.DefaultAPIURL, "root URL of the note API")
	cmd.Flags().DurationVar(&timeout, "timeout", config.DefaultRequestTimeout, "timeout for loading and saving")
	cmd.Flags().IntVar(&cols, "width", defaultWidth, "display width used to wrap text")
	return cmd
}

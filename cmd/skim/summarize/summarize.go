// Package summarizecmder provides the summarize command, a streaming client
// for a running skim server.
package summarizecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/papercomputeco/skim/pkg/cliui"
	"github.com/papercomputeco/skim/pkg/client"
	"github.com/papercomputeco/skim/pkg/config"
	"github.com/papercomputeco/skim/pkg/logger"
	"github.com/papercomputeco/skim/pkg/stream"
)

type summarizeCommander struct {
	flags config.FlagSet

	target     string
	file       string
	transcript string
	raw        bool
	batch      bool
	watch      bool
	debug      bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	viper  *viper.Viper
	logger *slog.Logger
}

var summarizeFlags = config.FlagSet{
	config.FlagTarget: {Name: "target", Shorthand: "t", ViperKey: "client.target", Description: "Skim server URL"},
}

const summarizeLongDesc string = `Stream a summary of text from a running skim server.

Text is taken from the arguments, from --file, or from stdin when it is
piped. The summary is printed as it streams in. When stdout is a terminal
the progress goes to stderr and the finished summary is rendered as
markdown on stdout; --raw prints the plain markdown instead.

If the stream fails part way, the partial text is labeled incomplete and
the command exits non-zero.

With --batch every argument is a file; files are summarized concurrently
and each summary is written next to its source as <file>.summary.md.

With --watch the file given by --file is summarized again each time it is
saved. A newer request always replaces an older one still streaming.

Examples:
  skim summarize "Long text to summarize ..."
  skim summarize --file notes.md
  cat report.txt | skim summarize --raw > summary.md
  skim summarize --batch chapter1.txt chapter2.txt chapter3.txt
  skim summarize --file draft.md --watch
  skim summarize --file notes.md --transcript notes.sse`

const summarizeShortDesc string = "Stream a summary from a skim server"

func NewSummarizeCmd() *cobra.Command {
	cmder := &summarizeCommander{flags: summarizeFlags}

	cmd := &cobra.Command{
		Use:           "summarize [text...]",
		Short:         summarizeShortDesc,
		Long:          summarizeLongDesc,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.debug, _ = cmd.Flags().GetBool("debug")
			cmder.in = cmd.InOrStdin()
			cmder.out = cmd.OutOrStdout()
			cmder.errOut = cmd.ErrOrStderr()

			err := cmder.loadConfig(cmd)
			if err == nil {
				err = cmder.run(cmd.Context(), args)
			}
			if err != nil && !errors.Is(err, errReported) {
				fmt.Fprintf(cmder.errOut, "  %s %v\n", cliui.FailMark, err)
			}
			return err
		},
	}

	config.AddStringFlag(cmd, cmder.flags, config.FlagTarget, &cmder.target)
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Read the text to summarize from this file")
	cmd.Flags().StringVar(&cmder.transcript, "transcript", "", "Write the raw event stream to this file")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print plain markdown instead of rendering it")
	cmd.Flags().BoolVar(&cmder.batch, "batch", false, "Summarize every file argument concurrently")
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Summarize --file again whenever it changes")

	return cmd
}

// loadConfig resolves the server target: flag > env > config file > default.
func (c *summarizeCommander) loadConfig(cmd *cobra.Command) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	v, err := config.InitViper(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	config.BindRegisteredFlags(v, cmd, c.flags, []string{config.FlagTarget})
	c.viper = v
	return nil
}

// errReported marks a failure that has already been shown to the user.
var errReported = errors.New("summary failed")

func (c *summarizeCommander) run(ctx context.Context, args []string) error {
	if err := c.validateFlags(args); err != nil {
		return err
	}

	// Client diagnostics only show with --debug; they would interleave
	// with the streamed summary otherwise.
	c.logger = logger.Nop()
	if c.debug {
		c.logger = logger.New(
			logger.WithDebug(true),
			logger.WithFormat(logger.FormatPretty),
			logger.WithComponent("client"),
			logger.WithOutput(c.errOut),
		)
	}

	target := c.target
	if c.viper != nil {
		target = c.viper.GetString("client.target")
	}
	cl, err := client.New(client.Config{Target: target, Logger: c.logger})
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case c.batch:
		return c.runBatch(ctx, cl, args)
	case c.watch:
		return c.runWatch(ctx, cl)
	}

	text, err := c.readInput(args)
	if err != nil {
		return err
	}
	return c.runOnce(ctx, cl, text)
}

func (c *summarizeCommander) validateFlags(args []string) error {
	switch {
	case c.batch && (c.watch || c.file != ""):
		return errors.New("--batch takes files as arguments and cannot be combined with --file or --watch")
	case c.batch && len(args) == 0:
		return errors.New("--batch needs at least one file")
	case c.watch && c.file == "":
		return errors.New("--watch needs --file")
	case c.file != "" && len(args) > 0:
		return errors.New("pass text as arguments or with --file, not both")
	case c.transcript != "" && (c.batch || c.watch):
		return errors.New("--transcript records a single summary and cannot be combined with --batch or --watch")
	}
	return nil
}

func (c *summarizeCommander) readInput(args []string) (string, error) {
	switch {
	case c.file != "":
		data, err := os.ReadFile(c.file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", c.file, err)
		}
		return string(data), nil

	case len(args) > 0:
		return strings.Join(args, " "), nil

	case !isTerminal(c.in):
		data, err := io.ReadAll(c.in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil

	default:
		return "", errors.New("no text to summarize: pass it as arguments, with --file, or on stdin")
	}
}

// render reports whether the finished summary is rendered as markdown. When
// it is, streaming progress goes to stderr so stdout holds only the result.
func (c *summarizeCommander) render() bool {
	return !c.raw && isTerminal(c.out)
}

func (c *summarizeCommander) liveWriter() io.Writer {
	if c.render() {
		return c.errOut
	}
	return c.out
}

func (c *summarizeCommander) runOnce(ctx context.Context, cl *client.Client, text string) error {
	var opts []stream.Option
	if c.transcript != "" {
		f, err := os.Create(c.transcript)
		if err != nil {
			return fmt.Errorf("creating transcript: %w", err)
		}
		defer f.Close()
		opts = append(opts, stream.WithTee(f))
	}

	live := cliui.NewLivePrinter(c.liveWriter())
	start := time.Now()

	// On a terminal the spinner holds the line until text arrives.
	clearWaiting := func() {}
	if c.render() {
		spinner := cliui.StartSpinner(c.errOut, "waiting for the first frame")
		clearWaiting = spinner.Clear
	}

	session, err := cl.Summarize(ctx, text, client.HandlerFuncs{
		Progress: func(_ uuid.UUID, text string) {
			clearWaiting()
			_ = live.Update(text)
		},
	}, opts...)
	clearWaiting()
	_ = live.Finish()

	if session == nil {
		return c.reportOpenError(err)
	}
	return c.reportSession(session, err, time.Since(start))
}

// reportOpenError explains a request that never produced a stream.
func (c *summarizeCommander) reportOpenError(err error) error {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		fmt.Fprintf(c.errOut, "  %s %s %s\n",
			cliui.FailMark,
			statusErr.Detail,
			cliui.DimStyle.Render(fmt.Sprintf("(HTTP %d)", statusErr.StatusCode)),
		)
		return errReported
	}
	return err
}

// failureDetail is the one-line description of a failed summary.
func failureDetail(err error) string {
	var statusErr *client.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Detail + " " + cliui.DimStyle.Render(fmt.Sprintf("(HTTP %d)", statusErr.StatusCode))
	}
	return stream.UserMessage(err)
}

// reportSession prints the outcome of a finished session.
func (c *summarizeCommander) reportSession(session *stream.Session, err error, elapsed time.Duration) error {
	if err != nil {
		fmt.Fprintf(c.errOut, "  %s %s\n", cliui.FailMark, stream.UserMessage(err))
		if session.Text() != "" {
			fmt.Fprintf(c.errOut, "  %s %s\n",
				cliui.WarnStyle.Render("incomplete:"),
				cliui.DimStyle.Render("the text above is a partial summary"),
			)
		}
		return errReported
	}

	if c.render() {
		rendered, renderErr := cliui.RenderMarkdown(session.Text())
		if renderErr != nil {
			c.logger.Debug("markdown render failed", "error", renderErr)
		}
		fmt.Fprint(c.out, rendered)
	}

	fmt.Fprintf(c.errOut, "  %s %s\n",
		cliui.SuccessMark,
		cliui.StepStyle.Render(fmt.Sprintf("summary complete (%d frames, %s)", session.Frames(), cliui.FormatDuration(elapsed))),
	)
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

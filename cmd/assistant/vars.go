package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ardiustech/eng-ai-assistant/internal/config"
	"github.com/ardiustech/eng-ai-assistant/internal/errdefs"
	"github.com/ardiustech/eng-ai-assistant/internal/logging"
	"github.com/ardiustech/eng-ai-assistant/internal/notify"
)

// Shared CLI flags (used across multiple command files)
var (
	cfgFile   string
	verbose   bool
	noColor   bool
	portFlag  int
	outputDir string
	notifyOn  bool
)

// stdin is the command input; jira login reads the token from it.
var stdin io.Reader = os.Stdin

// AppConfig holds the loaded configuration (set by main)
var AppConfig *config.Config

// SetupRootCmd configures the root command with all subcommands and flags
func SetupRootCmd(c *config.Config) *cobra.Command {
	AppConfig = c

	rootCmd := &cobra.Command{
		Use:   "assistant",
		Short: "Engineering assistant for Google Docs, Slack and Jira",
		Long: `assistant drives your own logged-in browser to read Google Docs and Slack
threads and to post Slack messages, and reads your Jira tickets over REST.

The browser is attached over the DevTools protocol on the debug port. If none
is running, one is launched with a dedicated profile; log in to Google and
Slack in that window once and later runs reuse the session.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return prepare(cmd)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML file merged over the built-in defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "browser remote debugging port (default 9222)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "directory for saved artifacts")
	rootCmd.PersistentFlags().BoolVar(&notifyOn, "notify", false, "show a desktop notification when the command finishes")

	// Add commands
	rootCmd.AddCommand(BrowserCmd())
	rootCmd.AddCommand(DocsCmd())
	rootCmd.AddCommand(SlackCmd())
	rootCmd.AddCommand(JiraCmd())

	return rootCmd
}

// prepare finishes configuration once flags are parsed: the --config file
// is merged over the defaults, then the environment, then flags.
func prepare(cmd *cobra.Command) error {
	logging.Setup(logging.Options{Verbose: verbose, NoColor: noColor, Writer: cmd.ErrOrStderr()})

	if cfgFile != "" {
		if err := config.LoadFile(AppConfig, cfgFile); err != nil {
			return err
		}
	}
	if err := config.ApplyEnv(AppConfig); err != nil {
		return err
	}
	if portFlag != 0 {
		if portFlag < 0 || portFlag > 65535 {
			return fmt.Errorf("invalid --port %d", portFlag)
		}
		AppConfig.Browser.Port = portFlag
	}
	if outputDir != "" {
		AppConfig.Output.Dir = outputDir
	}
	return nil
}

// Execute runs the command line and returns the process exit status.
func Execute(c *config.Config) int {
	return run(c, os.Args[1:], os.Stdout, os.Stderr)
}

func run(c *config.Config, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := SetupRootCmd(c)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err != nil {
		printError(stderr, err)
	}
	if notifyOn && cmd != nil && cmd != root {
		if err != nil {
			notify.Send(cmd.CommandPath()+" failed", err.Error())
		} else {
			notify.Send(cmd.CommandPath(), "Done")
		}
	}
	return errdefs.ExitCode(err)
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", paint("31", "✗"), err)
	if hint := errdefs.Hint(err); hint != "" {
		fmt.Fprintf(w, "  %s\n", hint)
	}
}

func paint(code, s string) string {
	if noColor {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func ok(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("32", "✓"), fmt.Sprintf(format, args...))
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/config"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var configFile string
var notionToken string
var databaseID string
var vaultPath string
var logLevel string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notionsync",
	Short: "Sync a Notion database into a Markdown vault",
	Long: "notionsync copies the pages of a Notion database into Markdown files " +
		"with a YAML metadata header, one file per page. Unchanged pages are " +
		"skipped using a local cache, so repeated runs only fetch what changed.",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
// It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Config file (YAML, TOML or JSON). Defaults to notionsync.yaml in the "+
			"working directory or $HOME/.config/notionsync.")
	rootCmd.PersistentFlags().StringVar(&notionToken, "token", "",
		"Notion integration token that will be used for fetching Notion objects "+
			"from Notion API. Alternatively, one can set Notion integration token "+
			"as environment variable 'NTN_TOKEN'.")
	rootCmd.PersistentFlags().StringVar(&databaseID, "database", "",
		"UUID of the Notion database to sync")
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", "",
		"Vault directory the Markdown files are written to")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Level of logging. (Log levels: info, debug, trace)")
}

type timeHook struct{}

func (t timeHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	e.Time("time", time.Now())
}

func getLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return zerolog.Logger{}, errors.Wrapf(err, "Couldn't parse log level")
	}

	out := os.Stderr
	writer := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC822,
	}

	if !term.IsTerminal(int(out.Fd())) {
		writer.NoColor = true
	}
	log := zerolog.New(writer).
		Hook(timeHook{}).
		Level(level)

	return log, nil
}

// setup returns a context carrying the logger, cancelled on interrupt, and
// the configuration from the config file, the environment and the flags, in
// increasing precedence
func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *config.Config, error) {
	log, err := getLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return nil, nil, nil, err
	}
	ctx, cancel := signal.NotifyContext(log.WithContext(context.Background()),
		os.Interrupt, syscall.SIGTERM)

	v, err := config.NewViper(ctx, configFile)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	flags := cmd.Flags()
	bindings := map[string]string{
		"notion.token":       "token",
		"notion.database_id": "database",
		"vault.path":         "vault",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			cancel()
			return nil, nil, nil, err
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	log.Debug().Str(logging.DatabaseID, cfg.Notion.DatabaseID).
		Str(logging.Path, cfg.Vault.Path).Msg(logging.ConfigLoaded)
	return ctx, cancel, cfg, nil
}

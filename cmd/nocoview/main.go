// nocoview is a terminal viewer for NocoDB tables: it fetches all records
// through the paginated REST API, shows them in an interactive table, and can
// filter them with plain substring search or natural language queries.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nocoview/cmd/nocoview/ui"
	"nocoview/cmd/nocoview/viewer"
	"nocoview/internal/cache"
	"nocoview/internal/config"
	"nocoview/internal/export"
	"nocoview/internal/filter"
	"nocoview/internal/logging"
	"nocoview/internal/nocodb"
	"nocoview/internal/table"
	"nocoview/internal/translate"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	logger  *zap.Logger
	verbose bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "nocoview",
	Short: "Terminal viewer for NocoDB tables",
	Long: `nocoview fetches every record from a NocoDB table and opens an
interactive viewer with substring search, per-column filters, and natural
language queries translated into filter expressions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if dir, err := config.ConfigDir(); err == nil {
			logging.Initialize(dir)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		logger.Debug("starting viewer",
			zap.String("base_url", cfg.BaseURL),
			zap.Int("page_size", cfg.PageSize),
			zap.String("query_mode", cfg.QueryMode))
		client, store, translator := buildApp()
		model := viewer.New(&cfg, client, store, translator)
		p := tea.NewProgram(model, tea.WithAltScreen())
		_, err := p.Run()
		return err
	},
}

// newLogger builds the process logger for the CLI surface; verbose lowers the
// level to debug.
func newLogger(verbose bool) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if verbose {
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zapCfg.Build()
}

// logSubcommand records the outcome of a one-shot subcommand.
func logSubcommand(l *zap.Logger, name string, rows int, elapsed time.Duration, fields ...zap.Field) {
	if l == nil {
		return
	}
	all := append([]zap.Field{
		zap.Int("rows", rows),
		zap.Duration("elapsed", elapsed),
	}, fields...)
	l.Info(name, all...)
}

// buildApp wires the fetch client, cache and translator from the loaded
// config. The translator is nil-safe to construct even when queries are
// disabled; the viewer gates on QueryMode before using it.
func buildApp() (*nocodb.Client, *cache.Cache, *translate.Translator) {
	client := nocodb.NewClient(nocodb.Config{
		BaseURL:  cfg.BaseURL,
		APIToken: cfg.APIToken,
		PageSize: cfg.PageSize,
	})
	store := cache.New(cfg.CacheTTL())
	gcfg := translate.DefaultGeminiConfig(cfg.GeminiAPIKey)
	gcfg.Model = cfg.Model
	gemini := translate.NewGeminiClientWithConfig(gcfg)
	translator := translate.New(gemini, cfg.QueryMode == config.QueryModeFuzzy)
	return client, store, translator
}

// fetchTable loads the full table through the cache and applies the generic
// header heuristic, the same path the viewer takes.
func fetchTable(ctx context.Context, client *nocodb.Client, store *cache.Cache) (*table.Table, error) {
	key := cache.Key{BaseURL: client.BaseURL(), PageSize: client.PageSize()}
	t, _, err := store.GetOrFetch(ctx, key, client.FetchAll)
	if err != nil {
		return nil, err
	}
	return t.HeuristicRenameColumns(), nil
}

var fetchFormat string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch all records and print them to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		start := time.Now()
		client, store, _ := buildApp()
		t, err := fetchTable(cmd.Context(), client, store)
		if err != nil {
			return err
		}
		logSubcommand(logger, "fetch", t.Len(), time.Since(start),
			zap.String("format", fetchFormat))

		switch strings.ToLower(fetchFormat) {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(t.Rows())
		case "csv":
			w := csv.NewWriter(os.Stdout)
			cols := t.Columns()
			if err := w.Write(cols); err != nil {
				return err
			}
			for i := 0; i < t.Len(); i++ {
				rec := make([]string, len(cols))
				for j, col := range cols {
					rec[j] = table.CellString(t.Value(i, col))
				}
				if err := w.Write(rec); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		default:
			return fmt.Errorf("unknown format %q (want json or csv)", fetchFormat)
		}
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Run one natural language query and print the matching rows",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.QueryMode == config.QueryModeOff {
			return fmt.Errorf("natural language queries are disabled (query_mode is %q)", cfg.QueryMode)
		}

		start := time.Now()
		client, store, translator := buildApp()
		t, err := fetchTable(cmd.Context(), client, store)
		if err != nil {
			return err
		}

		queryText := strings.Join(args, " ")
		directive, err := translator.Translate(cmd.Context(), queryText, t.Columns())
		if err != nil {
			return err
		}
		if directive == nil {
			return fmt.Errorf("empty query")
		}

		result, err := filter.Apply(t, directive.FilterCode, cfg.FuzzyThreshold)
		logSubcommand(logger, "query", result.Len(), time.Since(start),
			zap.Int("total_rows", t.Len()),
			zap.String("filter_code", directive.FilterCode))
		styles := ui.NewStyles(ui.ThemeByName(cfg.Theme))

		fmt.Println(styles.Title.Render("Filter"))
		fmt.Println("  " + directive.FilterCode)
		fmt.Println(styles.Title.Render("Reasoning"))
		fmt.Println("  " + directive.Reasoning)
		fmt.Println()
		if err != nil {
			fmt.Println(styles.Error.Render(err.Error()))
		}
		fmt.Println(styles.Info.Render(table.CountMessage(result.Len(), t.Len())))
		fmt.Println()
		fmt.Print(ui.NewGrid(result).View(styles))
		return nil
	},
}

var exportTableName string

var exportCmd = &cobra.Command{
	Use:   "export <file.db>",
	Short: "Fetch all records and write them to a SQLite database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		start := time.Now()
		client, store, _ := buildApp()
		t, err := fetchTable(cmd.Context(), client, store)
		if err != nil {
			return err
		}
		if err := export.ToSQLite(cmd.Context(), args[0], exportTableName, t); err != nil {
			return err
		}
		logSubcommand(logger, "export", t.Len(), time.Since(start),
			zap.String("path", args[0]),
			zap.String("table", exportTableName))
		fmt.Printf("wrote %d records to %s\n", t.Len(), args[0])
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nocoview %s\n", version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration file path and contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigFile()
		if err != nil {
			return err
		}
		fmt.Println(path)
		redacted := cfg
		if redacted.APIToken != "" {
			redacted.APIToken = "<set>"
		}
		if redacted.GeminiAPIKey != "" {
			redacted.GeminiAPIKey = "<set>"
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(redacted)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	fetchCmd.Flags().StringVar(&fetchFormat, "format", "json", "output format: json or csv")
	exportCmd.Flags().StringVar(&exportTableName, "table", export.DefaultTableName, "destination table name")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

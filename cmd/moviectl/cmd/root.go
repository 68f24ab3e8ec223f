package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/catalog"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/matcher"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/lexicon"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/pkg/postgres"
)

var (
	configPath    string
	catalogPath   string
	lexiconFormat string
	lexiconPath   string
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:          "moviectl",
	Short:        "Query a movie catalog from the command line",
	Long:         "moviectl loads the movie catalog and synonym lexicon configured for moviesvc and answers the same queries locally. Every command prints JSON.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(logger.New(os.Stderr, logLevel, "text"))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a moviesvc config file")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "catalog CSV path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&lexiconFormat, "lexicon-format", "", "wordnet, yaml or none (overrides config)")
	rootCmd.PersistentFlags().StringVar(&lexiconPath, "lexicon", "", "lexicon path (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level written to stderr")

	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(categoryCmd)
	rootCmd.AddCommand(findCmd)
	rootCmd.AddCommand(synonymsCmd)
	rootCmd.AddCommand(tokenizeCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if catalogPath != "" {
		cfg.Catalog.Source = config.SourceCSV
		cfg.Catalog.Path = catalogPath
	}
	if lexiconFormat != "" {
		cfg.Lexicon.Format = lexiconFormat
	}
	if lexiconPath != "" {
		cfg.Lexicon.Path = lexiconPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func loadCatalog(ctx context.Context, cfg *config.Config) (*catalog.Store, error) {
	if cfg.Catalog.Source != config.SourcePostgres {
		return catalog.LoadCSV(cfg.Catalog.Path)
	}
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return catalog.LoadPostgres(ctx, db, cfg.Catalog.Table)
}

func loadResolver(cfg *config.Config) (*lexicon.Resolver, error) {
	lex, err := lexicon.Open(cfg.Lexicon)
	if err != nil {
		return nil, err
	}
	return lexicon.NewResolver(lex), nil
}

func newMatcher(cfg *config.Config, resolver *lexicon.Resolver) *matcher.Matcher {
	return matcher.New(tokenizer.Tokenize, resolver, matcher.Options{
		DropPunctuation: cfg.Chatbot.DropPunctuation,
	})
}

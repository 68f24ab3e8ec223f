package cmd

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/internal/chatbot/tokenizer"
)

var matchCmd = &cobra.Command{
	Use:   "match <query...>",
	Short: "Run a chatbot query against the catalog",
	Long:  "Tokenizes the query, expands every token with its synonyms and prints the tokens, keywords and matching movies.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := loadCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	resolver, err := loadResolver(cfg)
	if err != nil {
		return err
	}
	result := newMatcher(cfg, resolver).Match(strings.Join(args, " "), store)
	return printJSON(cmd.OutOrStdout(), result)
}

var categoryCmd = &cobra.Command{
	Use:   "category <category>",
	Short: "List movies whose category contains the argument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := loadCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), store.FilterByCategory(args[0]))
	},
}

var findCmd = &cobra.Command{
	Use:   "find <id>",
	Short: "Print one movie by id",
	Long:  "Prints the movie with the given id. Exits non-zero when no movie has that id.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := loadCatalog(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		movie, err := store.Find(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), movie)
	},
}

var synonymsCmd = &cobra.Command{
	Use:   "synonyms <word>",
	Short: "Print the synonym set of a word",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		resolver, err := loadResolver(cfg)
		if err != nil {
			return err
		}
		set := resolver.Synonyms(args[0])
		words := make([]string, 0, len(set))
		for w := range set {
			words = append(words, w)
		}
		sort.Strings(words)
		return printJSON(cmd.OutOrStdout(), words)
	},
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <text...>",
	Short: "Print the tokens the chatbot sees for a text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printJSON(cmd.OutOrStdout(), tokenizer.Tokenize(strings.Join(args, " ")))
	},
}

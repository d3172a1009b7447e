package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/libgate/filter"
	"github.com/s0up4200/libgate/model"
)

var (
	filterExpr string
	preset     string
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search the catalog by title",
	Long: `Search the OPAC catalog by title keyword. Results can be narrowed with a
filter expression, e.g. --filter 'available() && titleHas("go")'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

// bookCmd represents the book command
var bookCmd = &cobra.Command{
	Use:   "book <id>",
	Short: "Show every holding of a catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runBook,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(bookCmd)

	searchCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "filter expression")
	searchCmd.Flags().StringVarP(&preset, "preset", "p", "", "use a named filter from config")
}

func runSearch(cmd *cobra.Command, args []string) error {
	expr, err := getFilterExpression()
	if err != nil {
		return err
	}

	var f filter.Filter
	if expr != "" {
		compiled, err := filter.Compile(expr)
		if err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
		f = compiled
	}

	keyword := strings.Join(args, " ")
	logger.Info().Str("keyword", keyword).Str("filter", expr).Msg("Searching catalog")

	books, err := service.Search(cmd.Context(), keyword)
	if err != nil {
		return err
	}
	books = filter.Apply(f, books)

	if len(books) == 0 {
		fmt.Println("No books found.")
		return nil
	}

	fmt.Printf("\nFound %d books:\n", len(books))
	fmt.Println(strings.Repeat("-", 80))
	for _, b := range books {
		printBook(b)
	}

	return nil
}

func runBook(cmd *cobra.Command, args []string) error {
	detail, err := service.GetBook(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if len(detail.Books) == 0 {
		fmt.Println("No holdings registered for this book.")
		return nil
	}

	fmt.Printf("\n%d holdings:\n", len(detail.Books))
	fmt.Println(strings.Repeat("-", 80))
	for _, b := range detail.Books {
		printBook(b)
	}

	return nil
}

func printBook(b model.BookRecord) {
	fmt.Printf("• %s", b.Title)
	if b.Author != "" {
		fmt.Printf(" / %s", b.Author)
	}
	fmt.Printf(" [%s]\n", b.Status)
	fmt.Printf("  ID: %s", b.ID)
	if b.CallNumber != "" {
		fmt.Printf("  Call no: %s", b.CallNumber)
	}
	if b.Location != "" {
		fmt.Printf("  Place: %s", b.Location)
	}
	fmt.Println()
}

// getFilterExpression determines the filter expression to use
func getFilterExpression() (string, error) {
	// Priority: command line filter > preset
	if filterExpr != "" {
		return filterExpr, nil
	}

	if preset != "" {
		if expression, ok := cfg.Filter[strings.ToLower(preset)]; ok {
			return expression, nil
		}
		return "", fmt.Errorf("preset '%s' not found in config", preset)
	}

	return "", nil
}

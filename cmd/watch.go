package cmd

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/libgate/model"
	"github.com/s0up4200/libgate/watchlist"
)

var (
	watchBarcode string
	watchTitle   string
	watchAuthor  string
)

// watchCmd groups the watch list commands
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Manage a student's watch list",
}

var watchAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Watch a catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatchAdd,
}

var watchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List watched books with live availability",
	RunE:  runWatchList,
}

var watchRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Stop watching a catalog entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatchRemove,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.AddCommand(watchAddCmd, watchListCmd, watchRemoveCmd)

	watchAddCmd.Flags().StringVar(&watchBarcode, "bid", "", "call number or barcode")
	watchAddCmd.Flags().StringVar(&watchTitle, "title", "", "book title (looked up when empty)")
	watchAddCmd.Flags().StringVar(&watchAuthor, "author", "", "book author")
}

func runWatchAdd(cmd *cobra.Command, args []string) error {
	student, err := readStudentID()
	if err != nil {
		return err
	}

	entry := model.WatchEntry{
		StudentID: student,
		BookID:    args[0],
		Barcode:   watchBarcode,
		Title:     watchTitle,
		Author:    watchAuthor,
	}

	// Fill missing details from the first holding
	if entry.Title == "" || entry.Barcode == "" {
		detail, err := service.GetBook(cmd.Context(), entry.BookID)
		if err != nil {
			return err
		}
		if len(detail.Books) == 0 {
			return fmt.Errorf("no holdings for book %s", entry.BookID)
		}
		first := detail.Books[0]
		entry.Title = cmp.Or(entry.Title, first.Title)
		entry.Author = cmp.Or(entry.Author, first.Author)
		entry.Barcode = cmp.Or(entry.Barcode, first.CallNumber, first.Barcode)
	}

	store, err := watchlist.Open(cfg.Watchlist.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open watch list: %w", err)
	}
	defer store.Close()

	if _, err := store.Add(cmd.Context(), entry); err != nil {
		return err
	}

	fmt.Printf("✓ Watching %s\n", entry.Title)
	return nil
}

func runWatchList(cmd *cobra.Command, args []string) error {
	student, err := readStudentID()
	if err != nil {
		return err
	}

	store, err := watchlist.Open(cfg.Watchlist.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open watch list: %w", err)
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), student)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Watch list is empty.")
		return nil
	}

	views, err := watchlist.Decorate(cmd.Context(), entries, service.Availability, cfg.API.WatchConcurrency, logger)
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("-", 80))
	for _, v := range views {
		mark := " "
		if v.Available {
			mark = "✓"
		}
		fmt.Printf("%s %s / %s (%s)\n", mark, v.Title, v.Author, v.BookID)
	}

	return nil
}

func runWatchRemove(cmd *cobra.Command, args []string) error {
	student, err := readStudentID()
	if err != nil {
		return err
	}

	store, err := watchlist.Open(cfg.Watchlist.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open watch list: %w", err)
	}
	defer store.Close()

	if err := store.Remove(cmd.Context(), student, args[0]); err != nil {
		return err
	}

	fmt.Println("✓ Removed")
	return nil
}

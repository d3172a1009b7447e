package cmd

import (
	"bufio"
	"cmp"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/s0up4200/libgate/model"
)

var renewCheck string

// loansCmd represents the loans command
var loansCmd = &cobra.Command{
	Use:   "loans",
	Short: "List the books a student has checked out",
	RunE:  runLoans,
}

// renewCmd represents the renew command
var renewCmd = &cobra.Command{
	Use:   "renew <barcode>",
	Short: "Renew a checked out book",
	Long: `Renew a loan by barcode. Without --check the token is looked up from the
student's current loans.`,
	Args: cobra.ExactArgs(1),
	RunE: runRenew,
}

func init() {
	rootCmd.AddCommand(loansCmd)
	rootCmd.AddCommand(renewCmd)

	renewCmd.Flags().StringVar(&renewCheck, "check", "", "renewal check token")
}

func runLoans(cmd *cobra.Command, args []string) error {
	creds, err := readCredentials()
	if err != nil {
		return err
	}

	loans, err := service.ListLoans(cmd.Context(), creds)
	if err != nil {
		return err
	}

	if len(loans) == 0 {
		fmt.Println("No books checked out.")
		return nil
	}

	fmt.Printf("\n%d books checked out:\n", len(loans))
	fmt.Println(strings.Repeat("━", 85))
	fmt.Printf("%-14s %-44s %-12s %s\n", "BARCODE", "TITLE", "DUE", "RENEWALS")
	fmt.Println(strings.Repeat("━", 85))
	for _, l := range loans {
		title := l.Title
		if len([]rune(title)) > 42 {
			title = string([]rune(title)[:39]) + "..."
		}
		fmt.Printf("%-14s %-44s %-12s %d\n", l.Barcode, title, l.DueAt.Format("2006-01-02"), l.Renewals)
	}
	fmt.Println(strings.Repeat("━", 85))

	return nil
}

func runRenew(cmd *cobra.Command, args []string) error {
	creds, err := readCredentials()
	if err != nil {
		return err
	}

	barcode := args[0]
	check := renewCheck
	if check == "" {
		loans, err := service.ListLoans(cmd.Context(), creds)
		if err != nil {
			return err
		}
		for _, l := range loans {
			if l.Barcode == barcode {
				check = l.Check
				break
			}
		}
		if check == "" {
			return fmt.Errorf("no loan with barcode %s", barcode)
		}
	}

	outcome, err := service.Renew(cmd.Context(), creds, barcode, check)
	if err != nil {
		return err
	}

	if !outcome.Renewed {
		fmt.Printf("✗ Renewal rejected: %s\n", outcome.Reason)
		return nil
	}
	fmt.Println("✓ Renewed")
	return nil
}

// readStudentID takes the student id from --student or LIBGATE_STUDENT,
// prompting when neither is set
func readStudentID() (model.StudentID, error) {
	id := cmp.Or(studentID, os.Getenv("LIBGATE_STUDENT"))
	if id == "" {
		fmt.Fprint(os.Stderr, "Student ID: ")
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("failed to read student id: %w", err)
			}
			return "", model.ErrMissingCredentials
		}
		id = strings.TrimSpace(scanner.Text())
	}
	if id == "" {
		return "", model.ErrMissingCredentials
	}
	return model.StudentID(id), nil
}

// readCredentials adds the password from LIBGATE_PASSWORD or a hidden prompt
func readCredentials() (model.Credentials, error) {
	id, err := readStudentID()
	if err != nil {
		return model.Credentials{}, err
	}

	password := os.Getenv("LIBGATE_PASSWORD")
	if password == "" {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return model.Credentials{}, fmt.Errorf("LIBGATE_PASSWORD is required when stdin is not a terminal")
		}
		fmt.Fprint(os.Stderr, "Password: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return model.Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
		password = string(raw)
	}

	creds := model.Credentials{StudentID: id, Password: password}
	return creds, creds.Validate()
}

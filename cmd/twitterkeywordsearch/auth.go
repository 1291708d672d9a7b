package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"twitterkeywordsearch/pkg/auth"
	"twitterkeywordsearch/pkg/ui"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Twitter API credentials",
	Long: `Manage stored Twitter API credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN and
    TWITTER_TOKEN_SECRET (read only)`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a set of API keys",
	Long: `Store the consumer key pair and access token pair of a Twitter app
under a name. All four values are shown on the app's "Keys and tokens"
page in the developer portal.`,
	Example: `  twitterkeywordsearch auth login research`,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <name>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts with masked keys",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)
	name := auth.DefaultAccount
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Account '%s' already exists. Replace it? (y/N): ", name)
		answer, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(answer)), "y") {
			return nil
		}
	}

	ui.PrintHint("Values are hidden as you type.")
	account := &auth.Account{Name: name}
	for _, field := range []struct {
		prompt string
		dst    *string
	}{
		{"API key", &account.APIKey},
		{"API key secret", &account.APISecret},
		{"Access token", &account.AccessToken},
		{"Access token secret", &account.TokenSecret},
	} {
		fmt.Printf("%s: ", field.prompt)
		v, err := readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(field.prompt), err)
		}
		*field.dst = v
	}

	if err := manager.Store(account); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Credentials stored as '%s'", name))
	ui.PrintHint("Use them with --account " + name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess(fmt.Sprintf("Credentials for '%s' removed", args[0]))
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintWarning("No stored credentials")
		ui.PrintHint("Run 'twitterkeywordsearch auth login' to add some.")
		return nil
	}

	for _, a := range accounts {
		s := auth.SanitizeAccount(a)
		ui.PrintSummary(s.Name, []ui.Stat{
			{Label: "API key", Value: s.APIKey},
			{Label: "Access token", Value: s.AccessToken},
			{Label: "Modified", Value: s.LastModified.Format("2006-01-02 15:04")},
		})
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

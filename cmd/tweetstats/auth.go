package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tweetstats/pkg/auth"
	"tweetstats/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage stored Twitter API credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (TWEETSTATS_BEARER_TOKEN)

Never share your bearer token or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [label]",
	Short: "Store an API bearer token securely",
	Long: `Store a Twitter API bearer token in the system keychain or encrypted file.

You will be prompted for:
  - A label for the credential (if not provided; "default" works fine)
  - The bearer token itself (hidden as you type)

Bearer tokens come from the app settings in the Twitter developer portal.`,
	Example: `  # Interactive login, stored under the "default" label
  tweetstats auth login

  # Store a token under a named label
  tweetstats auth login work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [label]",
	Short: "Remove a stored credential",
	Long: `Remove a stored API credential.

If no label is provided, you will be shown the stored credentials
to choose from.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored credentials",
	Long:  `List all stored credentials with their tokens masked.`,
	Run:   runAuthList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	reader := bufio.NewReader(os.Stdin)

	label := "default"
	if len(args) > 0 {
		label = strings.TrimSpace(args[0])
	}

	// Check if the label is already taken
	if existing, _ := manager.Retrieve(label); existing != nil {
		fmt.Printf("Credential '%s' already exists. Replace it? (y/N): ", label)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	var token string
	for {
		fmt.Print("Bearer token (input is hidden): ")
		token, err = readSecret()
		if err != nil {
			ui.PrintError("Failed to read bearer token", err.Error())
			os.Exit(1)
		}

		if len(token) < 20 {
			fmt.Println("\nThat doesn't look like a bearer token; they are much longer.")
			fmt.Print("Try again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	account := &auth.Account{
		Label:        label,
		BearerToken:  token,
		LastModified: time.Now(),
	}

	if err := manager.Store(account); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Credential stored: " + label)
	fmt.Println("\nCollect statistics with:")
	fmt.Println("  tweetstats collect <username>")
	if label != "default" {
		fmt.Printf("  tweetstats collect <username> --account %s\n", label)
	}
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) > 0 {
		label := args[0]
		if err := manager.Delete(label); err != nil {
			ui.PrintError("Failed to remove credential", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Credential removed: " + label)
		return
	}

	accounts, err := manager.List()
	if err != nil || len(accounts) == 0 {
		ui.PrintError("No stored credentials found", "")
		return
	}

	reader := bufio.NewReader(os.Stdin)

	if len(accounts) == 1 {
		account := accounts[0]
		fmt.Printf("Remove credential '%s'? (y/N): ", account.Label)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}

		if err := manager.Delete(account.Label); err != nil {
			ui.PrintError("Failed to remove credential", err.Error())
			os.Exit(1)
		}
		ui.PrintSuccess("Credential removed: " + account.Label)
		return
	}

	fmt.Println("Select credential to remove:")
	for i, account := range accounts {
		fmt.Printf("  %d. %s\n", i+1, account.Label)
	}
	fmt.Printf("  0. Cancel\n\n")

	fmt.Print("Choice: ")
	input, _ := reader.ReadString('\n')

	var choice int
	fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

	if choice < 1 || choice > len(accounts) {
		return
	}

	account := accounts[choice-1]
	if err := manager.Delete(account.Label); err != nil {
		ui.PrintError("Failed to remove credential", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Credential removed: " + account.Label)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	accounts, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list credentials", err.Error())
		os.Exit(1)
	}

	if len(accounts) == 0 {
		ui.PrintInfo("No stored credentials", "Use 'tweetstats auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Credentials")
	fmt.Println()

	for i, account := range accounts {
		fmt.Printf("%d. Label: %s\n", i+1, account.Label)
		fmt.Printf("   Bearer Token: %s\n", maskToken(account.BearerToken))
		fmt.Printf("   Last Modified: %s\n", account.LastModified.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

// maskToken keeps just enough of the token to recognize it
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

// readSecret reads a secret from stdin without echoing
func readSecret() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

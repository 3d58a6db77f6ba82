package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/scribe/cli/keystore"
	"github.com/petal-labs/scribe/providers"
)

func (a *App) newKeysCommand() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys",
		Long: `Manage API keys for providers. Keys are stored encrypted in ~/.scribe/keys.enc.

Set ` + keystore.PassphraseEnv + ` to encrypt with a passphrase instead of the
machine identity. Environment variables such as OPENAI_API_KEY take
precedence over stored keys.`,
	}

	keysSetCmd := &cobra.Command{
		Use:   "set <provider>",
		Short: "Set API key for a provider",
		Long:  `Set the API key for a provider. The key will be prompted without echo for security.`,
		Args:  cobra.ExactArgs(1),
		RunE:  a.runKeysSet,
	}

	keysListCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored API keys",
		Long:  `List all stored API keys. Only provider names are shown, never key values.`,
		Args:  cobra.NoArgs,
		RunE:  a.runKeysList,
	}

	keysDeleteCmd := &cobra.Command{
		Use:   "delete <provider>",
		Short: "Delete API key for a provider",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runKeysDelete,
	}

	keysCmd.AddCommand(keysSetCmd, keysListCmd, keysDeleteCmd)
	return keysCmd
}

func (a *App) runKeysSet(cmd *cobra.Command, args []string) error {
	provider := strings.ToLower(args[0])
	if !providers.IsRegistered(provider) {
		return a.invalid(fmt.Errorf("unknown provider %q (available: %s)", provider, strings.Join(providers.List(), ", ")))
	}

	fmt.Fprintf(a.stderr, "Enter API key for %s: ", provider)

	var apiKey string
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		keyBytes, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return a.invalid(fmt.Errorf("failed to read key: %w", err))
		}
		apiKey = strings.TrimSpace(string(keyBytes))
		fmt.Fprintln(a.stderr)
	} else {
		// Piped input.
		line, err := bufio.NewReader(a.stdin).ReadString('\n')
		if err != nil && line == "" {
			return a.invalid(fmt.Errorf("failed to read key: %w", err))
		}
		apiKey = strings.TrimSpace(line)
		fmt.Fprintln(a.stderr)
	}

	if apiKey == "" {
		return a.invalid(fmt.Errorf("API key cannot be empty"))
	}

	ks, err := a.newKeystore()
	if err != nil {
		return a.invalid(fmt.Errorf("failed to open keystore: %w", err))
	}

	if err := ks.Set(provider, apiKey); err != nil {
		return a.invalid(fmt.Errorf("failed to store key: %w", err))
	}

	fmt.Fprintf(a.stdout, "API key for %s stored successfully.\n", provider)
	return nil
}

func (a *App) runKeysList(cmd *cobra.Command, args []string) error {
	ks, err := a.newKeystore()
	if err != nil {
		return a.invalid(fmt.Errorf("failed to open keystore: %w", err))
	}

	names, err := ks.List()
	if err != nil {
		return a.invalid(fmt.Errorf("failed to list keys: %w", err))
	}

	if a.jsonOutput {
		return writeJSON(a.stdout, map[string]any{"keys": names})
	}

	if len(names) == 0 {
		fmt.Fprintln(a.stdout, "No API keys stored.")
		return nil
	}

	fmt.Fprintln(a.stdout, "Stored keys:")
	for _, name := range names {
		fmt.Fprintf(a.stdout, "  - %s\n", name)
	}

	return nil
}

func (a *App) runKeysDelete(cmd *cobra.Command, args []string) error {
	provider := strings.ToLower(args[0])

	ks, err := a.newKeystore()
	if err != nil {
		return a.invalid(fmt.Errorf("failed to open keystore: %w", err))
	}

	if err := ks.Delete(provider); err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return a.invalid(fmt.Errorf("no key stored for %s", provider))
		}
		return a.invalid(fmt.Errorf("failed to delete key: %w", err))
	}

	fmt.Fprintf(a.stdout, "API key for %s deleted.\n", provider)
	return nil
}

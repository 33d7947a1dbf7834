package commands

import (
	"fmt"
	"net/url"

	"github.com/relaydoc/relaydoc/cmd/relaydocctl/cmdutil"
	"github.com/relaydoc/relaydoc/internal/cli/credentials"
	"github.com/relaydoc/relaydoc/internal/cli/prompt"
	"github.com/spf13/cobra"
)

var (
	loginServer   string
	loginToken    string
	loginClientID string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a token for a RelayDoc control plane",
	Long: `Store a bearer token for a RelayDoc control plane server.

RelayDoc has no username/password account system: an operator holding
the server's JWT secret mints a token (and its document-scope claims)
out of band and hands it to you. login stores it as given; the token is
not checked against the server.

On first login you must specify the server URL. Subsequent logins reuse
the stored server URL unless overridden.

Examples:
  # First login to a server
  relaydocctl login --server http://localhost:8080 --token eyJhbGc...

  # Re-login to the stored server with a fresh token
  relaydocctl login`,
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginServer, "server", "", "control plane server URL (required on first login)")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "bearer token minted by the control plane's JWT secret")
	loginCmd.Flags().StringVar(&loginClientID, "client-id", "", "client identifier the token was minted for")
}

func runLogin(cmd *cobra.Command, args []string) error {
	store, err := credentials.NewStore()
	if err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	serverURLStr := loginServer
	if serverURLStr == "" {
		ctx, err := store.GetCurrentContext()
		if err != nil || ctx == nil || ctx.ServerURL == "" {
			return fmt.Errorf("no server URL specified and no saved context found\n\n" +
				"Specify server URL:\n" +
				"  relaydocctl login --server http://localhost:8080 --token <token>")
		}
		serverURLStr = ctx.ServerURL
	}

	parsedURL, err := url.Parse(serverURLStr)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}
	if parsedURL.Scheme == "" {
		parsedURL.Scheme = "http"
		serverURLStr = parsedURL.String()
	}

	token := loginToken
	if token == "" {
		token, err = prompt.InputRequired("Token")
		if err != nil {
			return cmdutil.HandleAbort(err)
		}
	}

	contextName := store.GetCurrentContextName()
	if contextName == "" {
		contextName = credentials.GenerateContextName(serverURLStr)
	}

	ctx := &credentials.Context{
		ServerURL: serverURLStr,
		ClientID:  loginClientID,
		Token:     token,
	}

	if err := store.SetContext(contextName, ctx); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	if err := store.UseContext(contextName); err != nil {
		return fmt.Errorf("failed to set current context: %w", err)
	}

	fmt.Printf("Logged in to %s\n", serverURLStr)
	fmt.Printf("Context: %s\n", contextName)
	fmt.Printf("Credentials saved to: %s\n", store.ConfigPath())

	return nil
}

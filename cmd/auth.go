package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/deskgate/internal/google"
	"github.com/teemow/deskgate/internal/logging"
)

func newAuthCmd() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		tokenFile    string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored Google credential",
		Long: `Manage the delegated Google credential used by the serve command.

The flow is manual: print the consent URL with "auth url", open it in a
browser, grant access, then exchange the authorization code with
"auth exchange <code>". "auth status" reports the stored credential.`,
	}

	cmd.PersistentFlags().StringVar(&clientID, "google-client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.PersistentFlags().StringVar(&clientSecret, "google-client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "Path to the stored Google credential (default: user cache dir)")

	newStore := func() *google.Store {
		gconf := google.ConfigFromEnv(google.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenFile:    tokenFile,
		})
		logger := logging.New(os.Stderr, false)
		return google.NewStore(gconf.OAuthConfig(), gconf.TokenFile, logger)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "url",
		Short: "Print the consent URL for the delegated-access flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := newStore()
			fmt.Println("Open this URL in a browser and grant access:")
			fmt.Println()
			fmt.Println("  " + store.AuthURL())
			fmt.Println()
			fmt.Println("Then run: deskgate auth exchange <code>")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "exchange <code>",
		Short: "Exchange an authorization code and store the credential",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := newStore()
			if err := store.SaveAuthCode(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to exchange authorization code: %w", err)
			}
			fmt.Println("Credential stored. The serve command will refresh it automatically.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Report the stored credential's state",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := newStore()
			fmt.Println(store.Status())
			return nil
		},
	})

	return cmd
}

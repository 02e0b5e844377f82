package google

import (
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultScopes are the Google OAuth scopes the gateway's tools require.
// A stored credential whose scopes are not a superset of these is unusable
// and forces a new consent.
var DefaultScopes = []string{
	gmail.GmailReadonlyScope,   // read messages
	gmail.MailGoogleComScope,   // full Gmail access (includes send)
	calendar.CalendarScope,     // full Calendar access
	calendar.CalendarEventsScope,
}

// Config holds the identity-provider settings read once at startup.
type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	TokenFile    string
}

// OAuthConfig builds the oauth2 configuration for the delegated-access flow.
// The redirect is the out-of-band URN: the gateway never opens a browser, the
// operator pastes the authorization code back through the auth subcommand or
// the google_save_auth_code tool.
func (c Config) OAuthConfig() *oauth2.Config {
	const oob = "urn:ietf:wg:oauth:2.0:oob"
	scopes := c.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  oob,
		Scopes:       scopes,
	}
}

// DefaultTokenFile returns the well-known credential location under the user
// cache directory.
func DefaultTokenFile() string {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, "deskgate", "google.json")
}

// ConfigFromEnv fills unset fields from the environment.
func ConfigFromEnv(c Config) Config {
	if c.ClientID == "" {
		c.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		c.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if c.TokenFile == "" {
		c.TokenFile = DefaultTokenFile()
	}
	return c
}

package identity

import (
	"github.com/ariefcatur/go-restaurant-orders/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

var knownProviders = map[string]struct {
	endpoint       oauth2.Endpoint
	scopes         []string
	userInfo       string
	verifiedEmails bool // the Graph API only returns confirmed addresses
}{
	"google": {
		endpoint: endpoints.Google,
		scopes:   []string{"openid", "email", "profile"},
		userInfo: "https://openidconnect.googleapis.com/v1/userinfo",
	},
	"facebook": {
		endpoint:       endpoints.Facebook,
		scopes:         []string{"email", "public_profile"},
		userInfo:       "https://graph.facebook.com/me?fields=id,name,email",
		verifiedEmails: true,
	},
}

// RegisterConfigured wires every OAuth client present in cfg. The callback
// lands on /api/auth/oauth/{provider}/callback under cfg.OAuthRedirectBase.
func (s *Service) RegisterConfigured(cfg config.Config) {
	for name, client := range cfg.OAuthClients {
		kp, ok := knownProviders[name]
		if !ok {
			continue
		}
		s.RegisterOAuth(name, OAuthProvider{
			Config: &oauth2.Config{
				ClientID:     client.ClientID,
				ClientSecret: client.ClientSecret,
				Endpoint:     kp.endpoint,
				RedirectURL:  cfg.OAuthRedirectBase + "/api/auth/oauth/" + name + "/callback",
				Scopes:       kp.scopes,
			},
			UserInfoURL:    kp.userInfo,
			VerifiedEmails: kp.verifiedEmails,
		})
	}
}

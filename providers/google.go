package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/TeraWattHour/go-authstore"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const googleUserInfo = "https://www.googleapis.com/oauth2/v3/userinfo"

func Google(clientId string, clientSecret string, redirectURL string) *GoogleConfig {
	return &GoogleConfig{
		config: &oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		},
		userInfo: googleUserInfo,
	}
}

type GoogleConfig struct {
	config   *oauth2.Config
	userInfo string
}

func (c *GoogleConfig) ID() string {
	return "google"
}

func (c *GoogleConfig) Info() any {
	return map[string]any{
		"id":   c.ID(),
		"name": "Google",
	}
}

func (c *GoogleConfig) Config() *oauth2.Config {
	return c.config
}

func (c *GoogleConfig) FetchUserData(ctx context.Context, client *http.Client) (*authstore.OAuthUserDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfo, nil)
	if err != nil {
		return nil, err
	}

	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status code %d", res.StatusCode)
	}

	details := GoogleUser{}
	if err := json.NewDecoder(res.Body).Decode(&details); err != nil {
		return nil, err
	}

	if !details.EmailVerified {
		return nil, errors.New("email not verified")
	}

	user := &authstore.OAuthUserDetails{
		ProviderAccountId: details.Sub,
		Email:             details.Email,
		Username:          details.Name,
	}
	if details.Picture != "" {
		user.AvatarUrl = &details.Picture
	}

	return user, nil
}

type GoogleUser struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

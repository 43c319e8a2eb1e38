package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/TeraWattHour/go-authstore"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

const githubAPI = "https://api.github.com"

func Github(clientId string, clientSecret string) *GithubConfig {
	return &GithubConfig{
		config: &oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			Endpoint:     endpoints.GitHub,
			Scopes:       []string{"read:user", "user:email"},
		},
		api: githubAPI,
	}
}

type GithubConfig struct {
	config *oauth2.Config
	api    string
}

func (c *GithubConfig) ID() string {
	return "github"
}

func (c *GithubConfig) Info() any {
	return map[string]any{
		"id":   c.ID(),
		"name": "GitHub",
	}
}

func (c *GithubConfig) Config() *oauth2.Config {
	return c.config
}

func (c *GithubConfig) FetchUserData(ctx context.Context, client *http.Client) (*authstore.OAuthUserDetails, error) {
	var user GithubUser
	if err := c.fetch(ctx, client, c.api+"/user", &user); err != nil {
		return nil, err
	}

	email, err := c.fetchUserEmail(ctx, client)
	if err != nil {
		return nil, err
	}

	details := &authstore.OAuthUserDetails{
		ProviderAccountId: strconv.FormatInt(user.Id, 10),
		Email:             email,
		Username:          user.Login,
	}
	if user.AvatarUrl != "" {
		details.AvatarUrl = &user.AvatarUrl
	}

	return details, nil
}

func (c *GithubConfig) fetchUserEmail(ctx context.Context, client *http.Client) (string, error) {
	var emails []GithubEmail

	if err := c.fetch(ctx, client, c.api+"/user/emails", &emails); err != nil {
		return "", err
	}

	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}

	return "", errors.New("no primary verified email found")
}

func (c *GithubConfig) fetch(ctx context.Context, client *http.Client, url string, output any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("request to %s failed with status code %d", url, res.StatusCode)
	}

	return json.NewDecoder(res.Body).Decode(output)
}

type GithubEmail struct {
	Email      string `json:"email"`
	Primary    bool   `json:"primary"`
	Verified   bool   `json:"verified"`
	Visibility string `json:"visibility"`
}

type GithubUser struct {
	Login     string `json:"login"`
	Id        int64  `json:"id"`
	AvatarUrl string `json:"avatar_url"`
	Name      string `json:"name"`
}

package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Default Mojang-compatible endpoints. %s is the escaped name or the undashed id.
const (
	DefaultProfileURL = "https://api.mojang.com/users/profiles/minecraft/%s"
	DefaultNamesURL   = "https://api.mojang.com/user/profiles/%s/names"
)

// HTTPService talks to a Mojang-compatible profile API.
type HTTPService struct {
	client     *http.Client
	profileURL string
	namesURL   string
}

func NewHTTPService(client *http.Client, profileURL, namesURL string) *HTTPService {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	if profileURL == "" {
		profileURL = DefaultProfileURL
	}
	if namesURL == "" {
		namesURL = DefaultNamesURL
	}
	return &HTTPService{client: client, profileURL: profileURL, namesURL: namesURL}
}

type profileResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type nameEntry struct {
	Name string `json:"name"`
}

// LookupID fetches the profile for name.
func (s *HTTPService) LookupID(ctx context.Context, name string) (uuid.UUID, error) {
	var resp profileResponse
	if err := s.getJSON(ctx, fmt.Sprintf(s.profileURL, url.PathEscape(name)), &resp); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(resp.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad id %q: %v", ErrIdentityService, resp.ID, err)
	}
	return id, nil
}

// LookupNameHistory fetches all names used by id, oldest first.
func (s *HTTPService) LookupNameHistory(ctx context.Context, id uuid.UUID) ([]string, error) {
	var entries []nameEntry
	if err := s.getJSON(ctx, fmt.Sprintf(s.namesURL, Undashed(id)), &entries); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names, nil
}

func (s *HTTPService) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrIdentityService, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIdentityService, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent, resp.StatusCode == http.StatusNotFound:
		return ErrIdentityNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrIdentityService, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrIdentityService, err)
	}
	return nil
}

// Undashed formats id the way the profile API expects it.
func Undashed(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

// Package msgraph implements the directory gateway against the Microsoft
// Graph v1.0 REST API.
package msgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0"
	tokenScope     = "https://graph.microsoft.com/.default"

	// Graph caps page size at 999 for /users.
	pageSize = "999"
)

var _ gateway.Directory = (*Client)(nil)

// Client talks to Microsoft Graph with bearer tokens from an azcore
// credential.
type Client struct {
	baseURL    string
	cred       azcore.TokenCredential
	httpClient *http.Client
	logger     *slog.Logger
}

// Options override the API endpoint and HTTP client, mainly for tests.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a Graph client. opts may be nil.
func New(cred azcore.TokenCredential, logger *slog.Logger, opts *Options) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		cred:       cred,
		httpClient: &http.Client{},
		logger:     logger,
	}
	if opts != nil {
		if opts.BaseURL != "" {
			c.baseURL = strings.TrimSuffix(opts.BaseURL, "/")
		}
		if opts.HTTPClient != nil {
			c.httpClient = opts.HTTPClient
		}
	}
	return c
}

// Wire types. Shapes follow the Graph resource documentation; only the
// fields this tool reads or writes are declared.

type graphUser struct {
	ID                string                `json:"id,omitempty"`
	AccountEnabled    bool                  `json:"accountEnabled,omitempty"`
	DisplayName       string                `json:"displayName,omitempty"`
	MailNickname      string                `json:"mailNickname,omitempty"`
	UserPrincipalName string                `json:"userPrincipalName,omitempty"`
	PasswordProfile   *graphPasswordProfile `json:"passwordProfile,omitempty"`
}

type graphPasswordProfile struct {
	Password                          string `json:"password"`
	ForceChangePasswordSignInRequired bool   `json:"forceChangePasswordSignInRequired"`
}

type graphUserList struct {
	NextLink string      `json:"@odata.nextLink"`
	Value    []graphUser `json:"value"`
}

type graphGroup struct {
	ID              string `json:"id,omitempty"`
	DisplayName     string `json:"displayName,omitempty"`
	Description     string `json:"description,omitempty"`
	MailEnabled     *bool  `json:"mailEnabled,omitempty"`
	MailNickname    string `json:"mailNickname,omitempty"`
	SecurityEnabled *bool  `json:"securityEnabled,omitempty"`
}

type graphGroupList struct {
	NextLink string       `json:"@odata.nextLink"`
	Value    []graphGroup `json:"value"`
}

type graphDomain struct {
	ID         string `json:"id"`
	IsDefault  bool   `json:"isDefault"`
	IsVerified bool   `json:"isVerified"`
}

type graphDomainList struct {
	Value []graphDomain `json:"value"`
}

type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ResolveDefaultDomain implements gateway.Directory. It prefers the tenant's
// default verified domain and falls back to any verified domain.
func (c *Client) ResolveDefaultDomain(ctx context.Context) (string, error) {
	var domains graphDomainList
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/domains", nil, &domains); err != nil {
		return "", err
	}

	var fallback string
	for _, d := range domains.Value {
		if !d.IsVerified {
			continue
		}
		if d.IsDefault {
			return d.ID, nil
		}
		if fallback == "" {
			fallback = d.ID
		}
	}
	if fallback == "" {
		return "", apperr.ErrFatalPrecondition("tenant has no verified domain", nil)
	}
	return fallback, nil
}

// FindGroupByName implements gateway.Directory.
func (c *Client) FindGroupByName(ctx context.Context, name string) (*gateway.Group, error) {
	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("displayName eq '%s'", escapeODataString(name)))
	query.Set("$select", "id,displayName")

	var groups graphGroupList
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/groups?"+query.Encode(), nil, &groups); err != nil {
		return nil, err
	}
	if len(groups.Value) == 0 {
		return nil, nil
	}
	g := groups.Value[0]
	return &gateway.Group{ID: g.ID, DisplayName: g.DisplayName}, nil
}

// CreateGroup implements gateway.Directory. Groups are plain security
// groups: not mail-enabled, not role-assignable.
func (c *Client) CreateGroup(ctx context.Context, name, description string) (*gateway.Group, error) {
	mailEnabled := false
	securityEnabled := true
	in := graphGroup{
		DisplayName:     name,
		Description:     description,
		MailEnabled:     &mailEnabled,
		MailNickname:    mailNickname(name),
		SecurityEnabled: &securityEnabled,
	}

	var created graphGroup
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/groups", in, &created); err != nil {
		return nil, err
	}
	return &gateway.Group{ID: created.ID, DisplayName: created.DisplayName}, nil
}

// CreatePrincipal implements gateway.Directory.
func (c *Client) CreatePrincipal(ctx context.Context, in gateway.CreatePrincipalInput) (*gateway.Principal, error) {
	local, _, _ := strings.Cut(in.PrincipalName, "@")
	user := graphUser{
		AccountEnabled:    true,
		DisplayName:       in.DisplayName,
		MailNickname:      mailNickname(local),
		UserPrincipalName: in.PrincipalName,
		PasswordProfile: &graphPasswordProfile{
			Password:                          in.Password,
			ForceChangePasswordSignInRequired: in.ForcePasswordChange,
		},
	}

	var created graphUser
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/users", user, &created); err != nil {
		return nil, err
	}
	return &gateway.Principal{
		ID:            created.ID,
		DisplayName:   created.DisplayName,
		PrincipalName: created.UserPrincipalName,
	}, nil
}

// AddMember implements gateway.Directory.
func (c *Client) AddMember(ctx context.Context, groupID, principalID string) error {
	ref := map[string]string{
		"@odata.id": c.baseURL + "/directoryObjects/" + url.PathEscape(principalID),
	}
	return c.do(ctx, http.MethodPost, c.baseURL+"/groups/"+url.PathEscape(groupID)+"/members/$ref", ref, nil)
}

// ListPrincipals implements gateway.Directory, following @odata.nextLink
// paging until the tenant is fully enumerated.
func (c *Client) ListPrincipals(ctx context.Context) ([]gateway.Principal, error) {
	query := url.Values{}
	query.Set("$select", "id,displayName,userPrincipalName")
	query.Set("$top", pageSize)

	var out []gateway.Principal
	next := c.baseURL + "/users?" + query.Encode()
	for next != "" {
		var page graphUserList
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		for _, u := range page.Value {
			out = append(out, gateway.Principal{
				ID:            u.ID,
				DisplayName:   u.DisplayName,
				PrincipalName: u.UserPrincipalName,
			})
		}
		next = page.NextLink
	}
	return out, nil
}

// ListGroups implements gateway.Directory.
func (c *Client) ListGroups(ctx context.Context) ([]gateway.Group, error) {
	query := url.Values{}
	query.Set("$select", "id,displayName")
	query.Set("$top", pageSize)

	var out []gateway.Group
	next := c.baseURL + "/groups?" + query.Encode()
	for next != "" {
		var page graphGroupList
		if err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		for _, g := range page.Value {
			out = append(out, gateway.Group{ID: g.ID, DisplayName: g.DisplayName})
		}
		next = page.NextLink
	}
	return out, nil
}

// DeletePrincipal implements gateway.Directory.
func (c *Client) DeletePrincipal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/users/"+url.PathEscape(id), nil, nil)
}

// DeleteGroup implements gateway.Directory.
func (c *Client) DeleteGroup(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/groups/"+url.PathEscape(id), nil, nil)
}

// do performs one authenticated request and decodes the response into out
// when non-nil.
func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) error {
	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}})
	if err != nil {
		return apperr.ErrFatalPrecondition("could not acquire a directory access token", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperr.ErrUnknown("could not encode request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return apperr.ErrUnknown("could not build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("graph request", "method", method, "url", rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.ErrUnknown("directory request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.ErrUnknown("could not read directory response", err)
	}

	if resp.StatusCode >= 400 {
		return mapError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return apperr.ErrUnknown("could not decode directory response", err)
		}
	}
	return nil
}

// mapError turns a Graph error response into a kind-classified error.
func mapError(status int, body []byte) error {
	var ge graphError
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &ge); err == nil && ge.Error.Message != "" {
		message = ge.Error.Message
		if ge.Error.Code != "" {
			message = ge.Error.Code + ": " + ge.Error.Message
		}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return apperr.ErrRateLimited(message, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.ErrPermissionDenied(message, nil)
	case status == http.StatusConflict,
		strings.Contains(strings.ToLower(message), "already exists"):
		return apperr.ErrAlreadyExists(message, nil)
	default:
		return apperr.ErrUnknown(fmt.Sprintf("directory returned status %d: %s", status, message), nil)
	}
}

// escapeODataString doubles single quotes per the OData string literal rules.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// mailNickname reduces a name to the characters Graph accepts for the
// mailNickname property.
func mailNickname(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "group"
	}
	return b.String()
}

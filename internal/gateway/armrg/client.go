// Package armrg implements the resource gateway against the Azure Resource
// Manager REST API, mapping containers onto resource groups.
package armrg

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
	"github.com/google/uuid"
)

const (
	defaultBaseURL = "https://management.azure.com"
	tokenScope     = "https://management.azure.com/.default"

	apiVersionGroups      = "2021-04-01"
	apiVersionLocations   = "2022-12-01"
	apiVersionAssignments = "2022-04-01"
)

// roleDefinitionIDs maps the role names this tool grants to their well-known
// built-in role definition GUIDs.
var roleDefinitionIDs = map[string]string{
	"Contributor": "b24988ac-6180-42a0-ab88-20f7382dd24c",
	"Reader":      "acdd72a7-3385-48ef-bd42-f606fba81ae7",
}

var _ gateway.Resource = (*Client)(nil)

// Client talks to Azure Resource Manager with bearer tokens from an azcore
// credential. All calls are scoped to one subscription.
type Client struct {
	baseURL        string
	subscriptionID string
	cred           azcore.TokenCredential
	httpClient     *http.Client
	logger         *slog.Logger
}

// Options override the API endpoint and HTTP client, mainly for tests.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates an ARM client for the given subscription. opts may be nil.
func New(cred azcore.TokenCredential, subscriptionID string, logger *slog.Logger, opts *Options) *Client {
	c := &Client{
		baseURL:        defaultBaseURL,
		subscriptionID: subscriptionID,
		cred:           cred,
		httpClient:     &http.Client{},
		logger:         logger,
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

// Wire types.

type armResourceGroup struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

type armResourceGroupList struct {
	NextLink string             `json:"nextLink"`
	Value    []armResourceGroup `json:"value"`
}

type armLocation struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type armLocationList struct {
	Value []armLocation `json:"value"`
}

type armRoleAssignment struct {
	Properties armRoleAssignmentProperties `json:"properties"`
}

type armRoleAssignmentProperties struct {
	RoleDefinitionID string `json:"roleDefinitionId"`
	PrincipalID      string `json:"principalId"`
	PrincipalType    string `json:"principalType"`
}

type armError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListRegions implements gateway.Resource.
func (c *Client) ListRegions(ctx context.Context) ([]gateway.Region, error) {
	u := fmt.Sprintf("%s/subscriptions/%s/locations?api-version=%s",
		c.baseURL, url.PathEscape(c.subscriptionID), apiVersionLocations)

	var locations armLocationList
	if _, err := c.do(ctx, http.MethodGet, u, nil, &locations); err != nil {
		return nil, err
	}

	regions := make([]gateway.Region, 0, len(locations.Value))
	for _, l := range locations.Value {
		regions = append(regions, gateway.Region{Code: l.Name, DisplayName: l.DisplayName})
	}
	return regions, nil
}

// FindContainer implements gateway.Resource.
func (c *Client) FindContainer(ctx context.Context, name string) (*gateway.Container, error) {
	var rg armResourceGroup
	status, err := c.do(ctx, http.MethodGet, c.groupURL(name), nil, &rg)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gateway.Container{Name: rg.Name, Region: rg.Location}, nil
}

// CreateContainer implements gateway.Resource.
func (c *Client) CreateContainer(ctx context.Context, name, region string) (*gateway.Container, error) {
	in := armResourceGroup{Location: region}

	var created armResourceGroup
	if _, err := c.do(ctx, http.MethodPut, c.groupURL(name), in, &created); err != nil {
		return nil, err
	}
	return &gateway.Container{Name: created.Name, Region: created.Location}, nil
}

// AssignAccessRole implements gateway.Resource. Role assignment names are
// caller-supplied GUIDs, so each grant gets a fresh one.
func (c *Client) AssignAccessRole(ctx context.Context, principalID, containerName, roleName string) error {
	roleID, ok := roleDefinitionIDs[roleName]
	if !ok {
		return apperr.ErrUnknown(fmt.Sprintf("no role definition known for %q", roleName), nil)
	}

	scope := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s", c.subscriptionID, containerName)
	u := fmt.Sprintf("%s%s/providers/Microsoft.Authorization/roleAssignments/%s?api-version=%s",
		c.baseURL, scope, uuid.NewString(), apiVersionAssignments)

	in := armRoleAssignment{
		Properties: armRoleAssignmentProperties{
			RoleDefinitionID: fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Authorization/roleDefinitions/%s",
				c.subscriptionID, roleID),
			PrincipalID:   principalID,
			PrincipalType: "User",
		},
	}

	_, err := c.do(ctx, http.MethodPut, u, in, nil)
	return err
}

// ListContainers implements gateway.Resource, following nextLink paging.
func (c *Client) ListContainers(ctx context.Context) ([]gateway.Container, error) {
	next := fmt.Sprintf("%s/subscriptions/%s/resourcegroups?api-version=%s",
		c.baseURL, url.PathEscape(c.subscriptionID), apiVersionGroups)

	var out []gateway.Container
	for next != "" {
		var page armResourceGroupList
		if _, err := c.do(ctx, http.MethodGet, next, nil, &page); err != nil {
			return nil, err
		}
		for _, rg := range page.Value {
			out = append(out, gateway.Container{Name: rg.Name, Region: rg.Location})
		}
		next = page.NextLink
	}
	return out, nil
}

// DeleteContainer implements gateway.Resource. ARM deletes resource groups
// asynchronously: a 202 means the deletion was accepted and runs in the
// background.
func (c *Client) DeleteContainer(ctx context.Context, name string) error {
	status, err := c.do(ctx, http.MethodDelete, c.groupURL(name), nil, nil)
	if err != nil {
		return err
	}
	if status == http.StatusAccepted {
		c.logger.Debug("container deletion accepted", "container", name)
	}
	return nil
}

func (c *Client) groupURL(name string) string {
	return fmt.Sprintf("%s/subscriptions/%s/resourcegroups/%s?api-version=%s",
		c.baseURL, url.PathEscape(c.subscriptionID), url.PathEscape(name), apiVersionGroups)
}

// do performs one authenticated request and returns the response status
// alongside any error so callers can special-case 404 (absent) and 202
// (accepted).
func (c *Client) do(ctx context.Context, method, rawURL string, body, out any) (int, error) {
	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}})
	if err != nil {
		return 0, apperr.ErrFatalPrecondition("could not acquire a resource management access token", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, apperr.ErrUnknown("could not encode request", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return 0, apperr.ErrUnknown("could not build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("arm request", "method", method, "url", rawURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperr.ErrUnknown("resource management request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, apperr.ErrUnknown("could not read resource management response", err)
	}

	if resp.StatusCode >= 400 {
		return resp.StatusCode, mapError(resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, apperr.ErrUnknown("could not decode resource management response", err)
		}
	}
	return resp.StatusCode, nil
}

// mapError turns an ARM error response into a kind-classified error.
func mapError(status int, body []byte) error {
	var ae armError
	message := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &ae); err == nil && ae.Error.Message != "" {
		message = ae.Error.Message
		if ae.Error.Code != "" {
			message = ae.Error.Code + ": " + ae.Error.Message
		}
	}

	switch {
	case status == http.StatusTooManyRequests:
		return apperr.ErrRateLimited(message, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.ErrPermissionDenied(message, nil)
	case status == http.StatusConflict:
		return apperr.ErrAlreadyExists(message, nil)
	default:
		return apperr.ErrUnknown(fmt.Sprintf("resource management returned status %d: %s", status, message), nil)
	}
}

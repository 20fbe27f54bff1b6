package armrg

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperr "github.com/entourage/entourage/internal/errors"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSubscription = "11111111-2222-3333-4444-555555555555"

type staticCredential struct {
	err error
}

func (c staticCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if c.err != nil {
		return azcore.AccessToken{}, c.err
	}
	return azcore.AccessToken{Token: "test-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(staticCredential{}, testSubscription, slog.New(slog.NewTextHandler(io.Discard, nil)), &Options{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestFindContainer(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/subscriptions/"+testSubscription+"/resourcegroups/rg-TechConf2024-user1", r.URL.Path)
		assert.Equal(t, "2021-04-01", r.URL.Query().Get("api-version"))
		writeJSON(t, w, http.StatusOK, armResourceGroup{Name: "rg-TechConf2024-user1", Location: "eastus"})
	}))

	container, err := c.FindContainer(context.Background(), "rg-TechConf2024-user1")
	require.NoError(t, err)
	require.NotNil(t, container)
	assert.Equal(t, "rg-TechConf2024-user1", container.Name)
	assert.Equal(t, "eastus", container.Region)
}

func TestFindContainerAbsent(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ae armError
		ae.Error.Code = "ResourceGroupNotFound"
		ae.Error.Message = "Resource group 'rg-TechConf2024-user1' could not be found."
		writeJSON(t, w, http.StatusNotFound, ae)
	}))

	container, err := c.FindContainer(context.Background(), "rg-TechConf2024-user1")
	require.NoError(t, err, "404 means absent, not failed")
	assert.Nil(t, container)
}

func TestCreateContainer(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)

		var rg armResourceGroup
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rg))
		assert.Equal(t, "eastus", rg.Location)

		writeJSON(t, w, http.StatusCreated, armResourceGroup{Name: "rg-TechConf2024-user1", Location: "eastus"})
	}))

	container, err := c.CreateContainer(context.Background(), "rg-TechConf2024-user1", "eastus")
	require.NoError(t, err)
	assert.Equal(t, "rg-TechConf2024-user1", container.Name)
}

func TestDeleteContainerAccepted(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		// deletion runs in the background
		w.WriteHeader(http.StatusAccepted)
	}))

	require.NoError(t, c.DeleteContainer(context.Background(), "rg-TechConf2024-user1"))
}

func TestListContainersFollowsPaging(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/subscriptions/"+testSubscription+"/resourcegroups", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, armResourceGroupList{
			NextLink: srvURL + "/page2",
			Value:    []armResourceGroup{{Name: "rg-TechConf2024-user1", Location: "eastus"}},
		})
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, armResourceGroupList{
			Value: []armResourceGroup{{Name: "rg-TechConf2024-user2", Location: "eastus"}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	srvURL = srv.URL
	c := New(staticCredential{}, testSubscription, slog.New(slog.NewTextHandler(io.Discard, nil)), &Options{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})

	containers, err := c.ListContainers(context.Background())
	require.NoError(t, err)
	require.Len(t, containers, 2)
	assert.Equal(t, "rg-TechConf2024-user1", containers[0].Name)
	assert.Equal(t, "rg-TechConf2024-user2", containers[1].Name)
}

func TestListRegions(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/"+testSubscription+"/locations", r.URL.Path)
		assert.Equal(t, "2022-12-01", r.URL.Query().Get("api-version"))
		writeJSON(t, w, http.StatusOK, armLocationList{Value: []armLocation{
			{Name: "eastus", DisplayName: "East US"},
			{Name: "westus2", DisplayName: "West US 2"},
		}})
	}))

	regions, err := c.ListRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 2)
	assert.Equal(t, "eastus", regions[0].Code)
	assert.Equal(t, "East US", regions[0].DisplayName)
}

func TestAssignAccessRole(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		assert.Contains(t, r.URL.Path, "/resourceGroups/rg-TechConf2024-user1/providers/Microsoft.Authorization/roleAssignments/")

		assignmentName := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		_, err := uuid.Parse(assignmentName)
		assert.NoError(t, err, "role assignment name must be a GUID")

		var assignment armRoleAssignment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&assignment))
		assert.Contains(t, assignment.Properties.RoleDefinitionID, "b24988ac-6180-42a0-ab88-20f7382dd24c")
		assert.Equal(t, "abc-123", assignment.Properties.PrincipalID)
		assert.Equal(t, "User", assignment.Properties.PrincipalType)

		writeJSON(t, w, http.StatusCreated, assignment)
	}))

	require.NoError(t, c.AssignAccessRole(context.Background(), "abc-123", "rg-TechConf2024-user1", "Contributor"))
}

func TestAssignAccessRoleUnknownRole(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an unknown role")
	}))

	err := c.AssignAccessRole(context.Background(), "abc-123", "rg-TechConf2024-user1", "Owner")
	require.Error(t, err)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   apperr.Kind
	}{
		{"throttled", http.StatusTooManyRequests, apperr.KindRateLimited},
		{"forbidden", http.StatusForbidden, apperr.KindPermissionDenied},
		{"conflict", http.StatusConflict, apperr.KindAlreadyExists},
		{"server error", http.StatusInternalServerError, apperr.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var ae armError
				ae.Error.Code = "ErrorCode"
				ae.Error.Message = "something went wrong"
				writeJSON(t, w, tt.status, ae)
			}))

			_, err := c.CreateContainer(context.Background(), "rg-TechConf2024-user1", "eastus")
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
		})
	}
}

func TestTokenFailureIsFatal(t *testing.T) {
	c := New(staticCredential{err: errors.New("no credential")}, testSubscription,
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil)

	_, err := c.ListContainers(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.IsFatal(err))
}

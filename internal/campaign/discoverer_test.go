package campaign

import (
	"context"
	"testing"

	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway"
	"github.com/entourage/entourage/internal/gateway/gatewaytest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCampaign provisions a campaign plus some decoy resources that must
// never be picked up by discovery.
func seedCampaign(t *testing.T, fake *gatewaytest.Fake) {
	t.Helper()

	p := NewProvisioner(fake, fake, NopPacer{}, testLogger())
	result, err := p.Provision(context.Background(), containerDescriptor(), RunOptions{Force: true})
	require.NoError(t, err)
	require.Equal(t, 3, result.Report.Succeeded)

	ctx := context.Background()
	_, err = fake.CreatePrincipal(ctx, gateway.CreatePrincipalInput{
		PrincipalName: "alice@contoso.com",
		DisplayName:   "Alice Admin",
	})
	require.NoError(t, err)
	_, err = fake.CreatePrincipal(ctx, gateway.CreatePrincipalInput{
		PrincipalName: "TechConf2024X-user1@contoso.com",
		DisplayName:   "TechConf2024X User 1",
	})
	require.NoError(t, err)
	_, err = fake.CreateGroup(ctx, "TechConf2024X-users", "decoy")
	require.NoError(t, err)
	_, err = fake.CreateContainer(ctx, "rg-production", "eastus")
	require.NoError(t, err)
}

func TestDiscoverFindsExactCampaignSet(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)

	d := NewDiscoverer(fake, fake, testLogger())
	candidates, err := d.Discover(context.Background(), RemovalOptions{
		Campaign:         "TechConf2024",
		RemoveGroups:     true,
		RemoveContainers: true,
	})
	require.NoError(t, err)

	names := make([]string, 0, len(candidates.Accounts))
	for _, principal := range candidates.Accounts {
		names = append(names, principal.PrincipalName)
	}
	assert.ElementsMatch(t, []string{
		"TechConf2024-user1@contoso.com",
		"TechConf2024-user2@contoso.com",
		"TechConf2024-user3@contoso.com",
	}, names)

	require.NotNil(t, candidates.Group)
	assert.Equal(t, "TechConf2024-users", candidates.Group.DisplayName)

	containers := make([]string, 0, len(candidates.Containers))
	for _, container := range candidates.Containers {
		containers = append(containers, container.Name)
	}
	assert.ElementsMatch(t, []string{
		"rg-TechConf2024-user1",
		"rg-TechConf2024-user2",
		"rg-TechConf2024-user3",
	}, containers)

	assert.Empty(t, candidates.Notes)
	assert.False(t, candidates.Empty())
}

func TestDiscoverUnknownCampaignFindsNothing(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)

	d := NewDiscoverer(fake, fake, testLogger())
	candidates, err := d.Discover(context.Background(), RemovalOptions{
		Campaign:         "SpringSummit",
		RemoveGroups:     true,
		RemoveContainers: true,
	})
	require.NoError(t, err)
	assert.True(t, candidates.Empty())
}

func TestDiscoverDomainFilter(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)

	d := NewDiscoverer(fake, fake, testLogger())
	candidates, err := d.Discover(context.Background(), RemovalOptions{
		Campaign: "TechConf2024",
		Domain:   "fabrikam.com",
	})
	require.NoError(t, err)
	// the seeded accounts live under contoso.com
	assert.Empty(t, candidates.Accounts)

	candidates, err = d.Discover(context.Background(), RemovalOptions{
		Campaign: "TechConf2024",
		Domain:   "contoso.com",
	})
	require.NoError(t, err)
	assert.Len(t, candidates.Accounts, 3)
}

func TestDiscoverEnumerationFailureYieldsEmptySetAndNote(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)
	fake.ListPrincipalsErr = apperr.ErrPermissionDenied("insufficient privileges", nil)

	d := NewDiscoverer(fake, fake, testLogger())
	candidates, err := d.Discover(context.Background(), RemovalOptions{
		Campaign:         "TechConf2024",
		RemoveGroups:     true,
		RemoveContainers: true,
	})
	require.NoError(t, err, "an enumeration failure must not abort discovery")

	assert.Empty(t, candidates.Accounts)
	require.NotEmpty(t, candidates.Notes)
	assert.Contains(t, candidates.Notes[0], "principal enumeration failed")

	// the other kinds are unaffected
	assert.NotNil(t, candidates.Group)
	assert.Len(t, candidates.Containers, 3)
}

func TestDiscoverSkipsContainersWhenNotRequested(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)

	// nil resource gateway: must not be consulted without RemoveContainers
	d := NewDiscoverer(fake, nil, testLogger())
	candidates, err := d.Discover(context.Background(), RemovalOptions{
		Campaign:     "TechConf2024",
		RemoveGroups: true,
	})
	require.NoError(t, err)
	assert.Len(t, candidates.Accounts, 3)
	assert.Empty(t, candidates.Containers)
}

func TestDiscoverInvalidCampaignNameIsFatal(t *testing.T) {
	fake := gatewaytest.New()
	d := NewDiscoverer(fake, fake, testLogger())

	_, err := d.Discover(context.Background(), RemovalOptions{Campaign: "Tech Conf!"})
	require.Error(t, err)
	assert.True(t, apperr.IsFatal(err))
}

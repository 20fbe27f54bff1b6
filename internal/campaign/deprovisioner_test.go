package campaign

import (
	"context"
	"testing"

	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway/gatewaytest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullRemoval() RemovalOptions {
	return RemovalOptions{
		Campaign:         "TechConf2024",
		RemoveGroups:     true,
		RemoveContainers: true,
	}
}

func discover(t *testing.T, fake *gatewaytest.Fake, opts RemovalOptions) *Candidates {
	t.Helper()
	candidates, err := NewDiscoverer(fake, fake, testLogger()).Discover(context.Background(), opts)
	require.NoError(t, err)
	return candidates
}

func TestDeprovisionRemovesDiscoveredSet(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)

	opts := fullRemoval()
	candidates := discover(t, fake, opts)
	require.False(t, candidates.Empty())

	d := NewDeprovisioner(fake, fake, NopPacer{}, testLogger())
	result, err := d.Deprovision(context.Background(), candidates, opts, RunOptions{Force: true})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Accounts.Attempted)
	assert.Equal(t, 3, result.Accounts.Succeeded)
	assert.Equal(t, 1, result.Groups.Attempted)
	assert.Equal(t, 1, result.Groups.Succeeded)
	assert.Equal(t, 3, result.Containers.Attempted)
	assert.Equal(t, 3, result.Containers.Succeeded)
	assert.True(t, result.AllSucceeded())

	// rediscovery after removal must come back empty
	assert.True(t, discover(t, fake, opts).Empty())

	// the decoys survive untouched
	assert.ElementsMatch(t, []string{"alice@contoso.com", "TechConf2024X-user1@contoso.com"}, fake.PrincipalNames())
	assert.ElementsMatch(t, []string{"TechConf2024X-users"}, fake.GroupNames())
	assert.ElementsMatch(t, []string{"rg-production"}, fake.ContainerNames())
}

func TestDeprovisionDryRunMakesNoMutations(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)
	before := fake.MutationCount()

	opts := fullRemoval()
	candidates := discover(t, fake, opts)

	d := NewDeprovisioner(fake, fake, NopPacer{}, testLogger())
	result, err := d.Deprovision(context.Background(), candidates, opts, RunOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Equal(t, before, fake.MutationCount(), "a dry run must not call any mutating gateway method")
	assert.Len(t, fake.PrincipalNames(), 5)
}

func TestDeprovisionDeclinedConfirmationMakesNoMutations(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)
	before := fake.MutationCount()

	opts := fullRemoval()
	candidates := discover(t, fake, opts)

	d := NewDeprovisioner(fake, fake, NopPacer{}, testLogger())
	d.Confirm = func(*Candidates) bool { return false }

	result, err := d.Deprovision(context.Background(), candidates, opts, RunOptions{})
	require.Error(t, err)
	assert.True(t, apperr.IsCancelled(err))
	assert.Nil(t, result)
	assert.Equal(t, before, fake.MutationCount())
}

func TestDeprovisionLeavesContainersWhenNotRequested(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)

	opts := RemovalOptions{Campaign: "TechConf2024", RemoveGroups: true}
	candidates := discover(t, fake, opts)

	d := NewDeprovisioner(fake, fake, NopPacer{}, testLogger())
	result, err := d.Deprovision(context.Background(), candidates, opts, RunOptions{Force: true})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Accounts.Succeeded)
	assert.Zero(t, result.Containers.Attempted)
	assert.Len(t, fake.ContainerNames(), 4, "containers stay when their removal is not requested")
}

func TestDeprovisionLeavesGroupWhenNotRequested(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)

	opts := RemovalOptions{Campaign: "TechConf2024"}
	candidates := discover(t, fake, RemovalOptions{Campaign: "TechConf2024", RemoveGroups: true})

	d := NewDeprovisioner(fake, fake, NopPacer{}, testLogger())
	result, err := d.Deprovision(context.Background(), candidates, opts, RunOptions{Force: true})
	require.NoError(t, err)

	assert.Zero(t, result.Groups.Attempted)
	assert.Contains(t, fake.GroupNames(), "TechConf2024-users")
}

func TestDeprovisionNotesAsyncContainerDeletion(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)

	opts := fullRemoval()
	candidates := discover(t, fake, opts)

	d := NewDeprovisioner(fake, fake, NopPacer{}, testLogger())
	result, err := d.Deprovision(context.Background(), candidates, opts, RunOptions{Force: true})
	require.NoError(t, err)

	require.NotEmpty(t, result.Containers.Notes)
	assert.Contains(t, result.Containers.Notes[0], "asynchronously")
}

func TestDeprovisionRecordsItemFailuresAndContinues(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)
	fake.DeletePrincipalErr = apperr.ErrRateLimited("too many requests", nil)

	opts := fullRemoval()
	candidates := discover(t, fake, opts)

	d := NewDeprovisioner(fake, fake, NopPacer{}, testLogger())
	result, err := d.Deprovision(context.Background(), candidates, opts, RunOptions{Force: true})
	require.NoError(t, err, "item failures must not fail the run")

	assert.Equal(t, 3, result.Accounts.Attempted)
	assert.Zero(t, result.Accounts.Succeeded)
	require.Len(t, result.Accounts.Errors, 3)
	for _, itemErr := range result.Accounts.Errors {
		assert.Equal(t, apperr.KindRateLimited, itemErr.Kind)
	}
	assert.False(t, result.AllSucceeded())

	// the group and container passes still ran
	assert.Equal(t, 1, result.Groups.Succeeded)
	assert.Equal(t, 3, result.Containers.Succeeded)
}

func TestDeprovisionCarriesDiscoveryNotes(t *testing.T) {
	fake := gatewaytest.New()
	seedCampaign(t, fake)
	fake.ListPrincipalsErr = apperr.ErrPermissionDenied("insufficient privileges", nil)

	opts := fullRemoval()
	candidates := discover(t, fake, opts)
	require.NotEmpty(t, candidates.Notes)

	d := NewDeprovisioner(fake, fake, NopPacer{}, testLogger())
	result, err := d.Deprovision(context.Background(), candidates, opts, RunOptions{Force: true})
	require.NoError(t, err)
	assert.Contains(t, result.Accounts.Notes[0], "principal enumeration failed")
}

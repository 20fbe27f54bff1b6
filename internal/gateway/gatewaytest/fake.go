// Package gatewaytest provides a stateful in-memory implementation of the
// gateway contracts for tests. Created resources persist across calls, so a
// fake backend can be provisioned, rediscovered, and deprovisioned within a
// single test. Every mutating call is recorded, which lets tests assert that
// dry runs and declined confirmations touch nothing.
package gatewaytest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway"
)

// Fake implements gateway.Directory and gateway.Resource against in-memory
// state.
type Fake struct {
	mu sync.Mutex

	DefaultDomain string
	Regions       []gateway.Region

	principals map[string]gateway.Principal // keyed by id
	groups     map[string]gateway.Group     // keyed by id
	members    map[string][]string          // group id -> principal ids
	containers map[string]gateway.Container // keyed by name
	nextID     int

	// Mutations records every mutating call in order, e.g.
	// "CreatePrincipal TechConf2024-user1@contoso.com".
	Mutations []string

	// Forced errors, all optional.
	CreatePrincipalErr func(principalName string) error
	ListPrincipalsErr  error
	ListGroupsErr      error
	ListContainersErr  error
	ListRegionsErr     error
	DeletePrincipalErr error
	DeleteContainerErr error
}

// New returns a fake with a default domain and two regions.
func New() *Fake {
	return &Fake{
		DefaultDomain: "contoso.com",
		Regions: []gateway.Region{
			{Code: "eastus", DisplayName: "East US"},
			{Code: "westus2", DisplayName: "West US 2"},
		},
		principals: make(map[string]gateway.Principal),
		groups:     make(map[string]gateway.Group),
		members:    make(map[string][]string),
		containers: make(map[string]gateway.Container),
	}
}

func (f *Fake) record(format string, args ...any) {
	f.Mutations = append(f.Mutations, fmt.Sprintf(format, args...))
}

func (f *Fake) newID() string {
	f.nextID++
	return fmt.Sprintf("id-%04d", f.nextID)
}

// Directory implementation

// ResolveDefaultDomain implements gateway.Directory.
func (f *Fake) ResolveDefaultDomain(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.DefaultDomain == "" {
		return "", apperr.ErrFatalPrecondition("tenant has no verified domain", nil)
	}
	return f.DefaultDomain, nil
}

// FindGroupByName implements gateway.Directory.
func (f *Fake) FindGroupByName(ctx context.Context, name string) (*gateway.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.groups {
		if strings.EqualFold(g.DisplayName, name) {
			group := g
			return &group, nil
		}
	}
	return nil, nil
}

// CreateGroup implements gateway.Directory.
func (f *Fake) CreateGroup(ctx context.Context, name, description string) (*gateway.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateGroup %s", name)
	for _, g := range f.groups {
		if strings.EqualFold(g.DisplayName, name) {
			return nil, apperr.ErrAlreadyExists(fmt.Sprintf("group %q already exists", name), nil)
		}
	}
	group := gateway.Group{ID: f.newID(), DisplayName: name}
	f.groups[group.ID] = group
	return &group, nil
}

// CreatePrincipal implements gateway.Directory.
func (f *Fake) CreatePrincipal(ctx context.Context, in gateway.CreatePrincipalInput) (*gateway.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreatePrincipal %s", in.PrincipalName)
	if f.CreatePrincipalErr != nil {
		if err := f.CreatePrincipalErr(in.PrincipalName); err != nil {
			return nil, err
		}
	}
	for _, p := range f.principals {
		if strings.EqualFold(p.PrincipalName, in.PrincipalName) {
			return nil, apperr.ErrAlreadyExists(
				fmt.Sprintf("another object with principal name %q already exists", in.PrincipalName), nil)
		}
	}
	principal := gateway.Principal{
		ID:            f.newID(),
		DisplayName:   in.DisplayName,
		PrincipalName: in.PrincipalName,
	}
	f.principals[principal.ID] = principal
	return &principal, nil
}

// AddMember implements gateway.Directory.
func (f *Fake) AddMember(ctx context.Context, groupID, principalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddMember %s %s", groupID, principalID)
	if _, ok := f.groups[groupID]; !ok {
		return apperr.ErrUnknown(fmt.Sprintf("group %q not found", groupID), nil)
	}
	if _, ok := f.principals[principalID]; !ok {
		return apperr.ErrUnknown(fmt.Sprintf("principal %q not found", principalID), nil)
	}
	f.members[groupID] = append(f.members[groupID], principalID)
	return nil
}

// ListPrincipals implements gateway.Directory.
func (f *Fake) ListPrincipals(ctx context.Context) ([]gateway.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListPrincipalsErr != nil {
		return nil, f.ListPrincipalsErr
	}
	out := make([]gateway.Principal, 0, len(f.principals))
	for _, p := range f.principals {
		out = append(out, p)
	}
	return out, nil
}

// ListGroups implements gateway.Directory.
func (f *Fake) ListGroups(ctx context.Context) ([]gateway.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListGroupsErr != nil {
		return nil, f.ListGroupsErr
	}
	out := make([]gateway.Group, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, g)
	}
	return out, nil
}

// DeletePrincipal implements gateway.Directory.
func (f *Fake) DeletePrincipal(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeletePrincipal %s", id)
	if f.DeletePrincipalErr != nil {
		return f.DeletePrincipalErr
	}
	if _, ok := f.principals[id]; !ok {
		return apperr.ErrUnknown(fmt.Sprintf("principal %q not found", id), nil)
	}
	delete(f.principals, id)
	return nil
}

// DeleteGroup implements gateway.Directory.
func (f *Fake) DeleteGroup(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteGroup %s", id)
	if _, ok := f.groups[id]; !ok {
		return apperr.ErrUnknown(fmt.Sprintf("group %q not found", id), nil)
	}
	delete(f.groups, id)
	delete(f.members, id)
	return nil
}

// Resource implementation

// ListRegions implements gateway.Resource.
func (f *Fake) ListRegions(ctx context.Context) ([]gateway.Region, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListRegionsErr != nil {
		return nil, f.ListRegionsErr
	}
	return append([]gateway.Region(nil), f.Regions...), nil
}

// FindContainer implements gateway.Resource.
func (f *Fake) FindContainer(ctx context.Context, name string) (*gateway.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.containers[strings.ToLower(name)]; ok {
		container := c
		return &container, nil
	}
	return nil, nil
}

// CreateContainer implements gateway.Resource.
func (f *Fake) CreateContainer(ctx context.Context, name, region string) (*gateway.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateContainer %s", name)
	key := strings.ToLower(name)
	if _, ok := f.containers[key]; ok {
		return nil, apperr.ErrAlreadyExists(fmt.Sprintf("container %q already exists", name), nil)
	}
	container := gateway.Container{Name: name, Region: region}
	f.containers[key] = container
	return &container, nil
}

// AssignAccessRole implements gateway.Resource.
func (f *Fake) AssignAccessRole(ctx context.Context, principalID, containerName, roleName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AssignAccessRole %s %s %s", principalID, containerName, roleName)
	if _, ok := f.containers[strings.ToLower(containerName)]; !ok {
		return apperr.ErrUnknown(fmt.Sprintf("container %q not found", containerName), nil)
	}
	return nil
}

// ListContainers implements gateway.Resource.
func (f *Fake) ListContainers(ctx context.Context) ([]gateway.Container, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListContainersErr != nil {
		return nil, f.ListContainersErr
	}
	out := make([]gateway.Container, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, c)
	}
	return out, nil
}

// DeleteContainer implements gateway.Resource.
func (f *Fake) DeleteContainer(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteContainer %s", name)
	if f.DeleteContainerErr != nil {
		return f.DeleteContainerErr
	}
	key := strings.ToLower(name)
	if _, ok := f.containers[key]; !ok {
		return apperr.ErrUnknown(fmt.Sprintf("container %q not found", name), nil)
	}
	delete(f.containers, key)
	return nil
}

// Helpers for assertions

// PrincipalNames returns the principal names currently present, unordered.
func (f *Fake) PrincipalNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.principals))
	for _, p := range f.principals {
		out = append(out, p.PrincipalName)
	}
	return out
}

// GroupNames returns the group display names currently present, unordered.
func (f *Fake) GroupNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.groups))
	for _, g := range f.groups {
		out = append(out, g.DisplayName)
	}
	return out
}

// ContainerNames returns the container names currently present, unordered.
func (f *Fake) ContainerNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.containers))
	for _, c := range f.containers {
		out = append(out, c.Name)
	}
	return out
}

// MemberCount returns the number of members recorded for a group id.
func (f *Fake) MemberCount(groupID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members[groupID])
}

// MutationCount returns the number of mutating calls seen so far.
func (f *Fake) MutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Mutations)
}

// Package gateway defines the external service contracts the campaign
// orchestrator depends on. The orchestrator is polymorphic over any
// implementation: the real Microsoft Graph and Azure Resource Manager clients
// live in subpackages, and gatewaytest provides an in-memory double.
package gateway

import "context"

// Principal is an identity-service user account.
type Principal struct {
	// ID is the directory's opaque object identifier.
	ID string
	// DisplayName is the human-readable name.
	DisplayName string
	// PrincipalName is the sign-in name ("<account>@<domain>").
	PrincipalName string
}

// Group is an identity-service security group.
type Group struct {
	ID          string
	DisplayName string
}

// Container is a resource-management grouping scope (a resource group).
type Container struct {
	Name   string
	Region string
}

// Region is a selectable deployment region.
type Region struct {
	Code        string
	DisplayName string
}

// CreatePrincipalInput carries the fields needed to create an account.
type CreatePrincipalInput struct {
	PrincipalName       string
	DisplayName         string
	Password            string
	ForcePasswordChange bool
}

// Directory is the identity directory service: principal and group CRUD plus
// membership. Create calls return kind-classified errors (already-exists,
// rate-limited, permission-denied) so callers can report them distinctly.
type Directory interface {
	// ResolveDefaultDomain returns the tenant's default verified sign-in
	// domain.
	ResolveDefaultDomain(ctx context.Context) (string, error)

	// FindGroupByName looks up a group by exact display name. Returns
	// (nil, nil) when no such group exists.
	FindGroupByName(ctx context.Context, name string) (*Group, error)

	// CreateGroup creates a security group.
	CreateGroup(ctx context.Context, name, description string) (*Group, error)

	// CreatePrincipal creates a user account.
	CreatePrincipal(ctx context.Context, in CreatePrincipalInput) (*Principal, error)

	// AddMember adds a principal to a group.
	AddMember(ctx context.Context, groupID, principalID string) error

	// ListPrincipals returns every principal in the tenant. Paging is
	// handled internally.
	ListPrincipals(ctx context.Context) ([]Principal, error)

	// ListGroups returns every group in the tenant.
	ListGroups(ctx context.Context) ([]Group, error)

	// DeletePrincipal deletes a principal by id.
	DeletePrincipal(ctx context.Context, id string) error

	// DeleteGroup deletes a group by id.
	DeleteGroup(ctx context.Context, id string) error
}

// Resource is the cloud resource-management service: container CRUD, access
// grants, and region enumeration.
type Resource interface {
	// ListRegions returns the regions available for containers.
	ListRegions(ctx context.Context) ([]Region, error)

	// FindContainer looks up a container by name. Returns (nil, nil) when
	// no such container exists.
	FindContainer(ctx context.Context, name string) (*Container, error)

	// CreateContainer creates a container in the given region.
	CreateContainer(ctx context.Context, name, region string) (*Container, error)

	// AssignAccessRole grants the named role on a container to a principal.
	AssignAccessRole(ctx context.Context, principalID, containerName, roleName string) error

	// ListContainers returns every container in scope.
	ListContainers(ctx context.Context) ([]Container, error)

	// DeleteContainer requests deletion of a container. The service deletes
	// asynchronously; a nil error means the deletion was accepted, not that
	// it completed.
	DeleteContainer(ctx context.Context, name string) error
}

package campaign

import (
	"context"
	"fmt"
	"log/slog"

	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway"
	"github.com/entourage/entourage/internal/naming"
)

// RemovalOptions scope a removal run.
type RemovalOptions struct {
	// Campaign is the campaign name whose resources are rediscovered.
	Campaign string
	// Domain, when set, restricts account matching to principals under this
	// sign-in domain.
	Domain string
	// RemoveGroups includes the campaign group in the candidate set.
	RemoveGroups bool
	// RemoveContainers includes resource containers in the candidate set.
	RemoveContainers bool
}

// Validate checks the removal scope. The campaign name must be a valid name
// token: a malformed name can never match anything, and catching it up front
// gives a clear error instead of a silent empty candidate set.
func (o *RemovalOptions) Validate() error {
	if !nameTokenPattern.MatchString(o.Campaign) {
		return apperr.ErrFatalPrecondition(
			fmt.Sprintf("invalid campaign name %q: only letters, numbers, hyphens, and underscores are allowed", o.Campaign), nil)
	}
	return nil
}

// Discoverer rediscovers a campaign's resources from live service state.
// There is no persisted manifest: candidates are exactly the resources whose
// names match the campaign's generation pattern.
type Discoverer struct {
	dir    gateway.Directory
	res    gateway.Resource
	logger *slog.Logger
}

// NewDiscoverer creates a discoverer. The resource gateway may be nil when
// container removal is never requested.
func NewDiscoverer(dir gateway.Directory, res gateway.Resource, logger *slog.Logger) *Discoverer {
	return &Discoverer{dir: dir, res: res, logger: logger}
}

// Discover enumerates principals, groups, and (when requested) containers,
// and filters each by the campaign's naming pattern. An enumeration failure
// for one kind yields an empty candidate set for that kind plus a note; the
// other kinds are unaffected.
func (d *Discoverer) Discover(ctx context.Context, opts RemovalOptions) (*Candidates, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	matcher := naming.NewMatcher(opts.Campaign)
	candidates := &Candidates{Campaign: opts.Campaign}

	principals, err := d.dir.ListPrincipals(ctx)
	if err != nil {
		d.logger.Warn("could not enumerate principals", "campaign", opts.Campaign, "error", err)
		candidates.Notes = append(candidates.Notes, "principal enumeration failed: "+err.Error())
	} else {
		for _, principal := range principals {
			if matcher.Principal(principal.PrincipalName, opts.Domain) || matcher.Account(principal.DisplayName) {
				candidates.Accounts = append(candidates.Accounts, principal)
			}
		}
	}

	if opts.RemoveGroups {
		groups, err := d.dir.ListGroups(ctx)
		if err != nil {
			d.logger.Warn("could not enumerate groups", "campaign", opts.Campaign, "error", err)
			candidates.Notes = append(candidates.Notes, "group enumeration failed: "+err.Error())
		} else {
			for _, group := range groups {
				if matcher.Group(group.DisplayName) {
					g := group
					candidates.Group = &g
					break
				}
			}
		}
	}

	if opts.RemoveContainers {
		containers, err := d.res.ListContainers(ctx)
		if err != nil {
			d.logger.Warn("could not enumerate containers", "campaign", opts.Campaign, "error", err)
			candidates.Notes = append(candidates.Notes, "container enumeration failed: "+err.Error())
		} else {
			for _, container := range containers {
				if matcher.Container(container.Name) {
					candidates.Containers = append(candidates.Containers, container)
				}
			}
		}
	}

	d.logger.Debug("discovery finished",
		"campaign", opts.Campaign,
		"accounts", len(candidates.Accounts),
		"group_found", candidates.Group != nil,
		"containers", len(candidates.Containers),
	)

	return candidates, nil
}

// Package campaign implements the provisioning and removal orchestration for
// a named batch of temporary event accounts, their group, and their optional
// per-account resource containers.
package campaign

import (
	"fmt"
	"regexp"

	apperr "github.com/entourage/entourage/internal/errors"

	"github.com/go-playground/validator/v10"
)

// nameTokenPattern is the allowed shape of a campaign name. The name is
// embedded in every resource name and is the sole key used to rediscover
// resources later, so it is restricted to a single unambiguous token.
var nameTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// best-effort registration; the pattern only rejects bad input
	_ = v.RegisterValidation("nametoken", func(fl validator.FieldLevel) bool {
		return nameTokenPattern.MatchString(fl.Field().String())
	})
	return v
}

// Descriptor describes one campaign: how many accounts, under which domain,
// and whether each account gets a resource container. The name is immutable
// once a batch is created.
type Descriptor struct {
	// Name is the campaign name, prefixed onto every resource name.
	Name string `validate:"required,nametoken"`
	// Domain is the sign-in domain. Empty means resolve the tenant default.
	Domain string `validate:"omitempty,fqdn"`
	// UserCount is the number of accounts to create.
	UserCount int `validate:"required,min=1,max=1000"`
	// Password applies to every account. Empty means generate one.
	Password string
	// ForcePasswordChange requires a password change at first sign-in.
	ForcePasswordChange bool
	// CreateContainers provisions one resource container per account.
	CreateContainers bool
	// SubscriptionID scopes the containers. Required with CreateContainers.
	SubscriptionID string `validate:"omitempty,uuid"`
	// Region places the containers. Empty triggers region selection.
	Region string
}

// Validate checks the descriptor against the field constraints.
func (d *Descriptor) Validate() error {
	if err := validate.Struct(d); err != nil {
		return apperr.ErrFatalPrecondition("invalid campaign descriptor", err)
	}
	if d.CreateContainers && d.SubscriptionID == "" {
		return apperr.ErrFatalPrecondition(
			fmt.Sprintf("campaign %q requests resource containers but no subscription is configured", d.Name), nil)
	}
	return nil
}

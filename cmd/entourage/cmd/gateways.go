package cmd

import (
	"log/slog"

	"github.com/entourage/entourage/internal/config"
	apperr "github.com/entourage/entourage/internal/errors"
	"github.com/entourage/entourage/internal/gateway"
	"github.com/entourage/entourage/internal/gateway/armrg"
	"github.com/entourage/entourage/internal/gateway/msgraph"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// newCredential builds the shared Azure credential. Missing auth context is
// a fatal precondition: nothing is attempted without it.
func newCredential(cfg *config.Config) (azcore.TokenCredential, error) {
	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: cfg.TenantID,
	})
	if err != nil {
		return nil, apperr.ErrFatalPrecondition("no usable Azure credential found (sign in with az login or set AZURE_* environment variables)", err)
	}
	return cred, nil
}

// newDirectory builds the Microsoft Graph directory gateway.
func newDirectory(cred azcore.TokenCredential) gateway.Directory {
	return msgraph.New(cred, slog.Default(), nil)
}

// newResource builds the ARM resource gateway for a subscription. The
// subscription must be known before any container work starts.
func newResource(cred azcore.TokenCredential, subscriptionID string) (gateway.Resource, error) {
	if subscriptionID == "" {
		return nil, apperr.ErrFatalPrecondition("no subscription configured: pass --subscription or run entourage configure", nil)
	}
	return armrg.New(cred, subscriptionID, slog.Default(), nil), nil
}

// firstNonEmpty returns the first non-empty string, letting flags override
// config file values.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

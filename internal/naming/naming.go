// Package naming derives deterministic resource names from a campaign name
// and recognizes them again at removal time. The campaign name is the only
// key ever persisted anywhere (inside the resource names themselves), so
// matching is anchored to the exact generation pattern: a campaign named
// "Conf" must never claim resources belonging to "ConfX".
package naming

import (
	"fmt"
	"regexp"
	"strings"
)

// AccountName returns the account name for the given campaign and index,
// e.g. "TechConf2024-user3". Injective in index for a fixed campaign.
func AccountName(campaign string, index int) string {
	return fmt.Sprintf("%s-user%d", campaign, index)
}

// PrincipalName returns the sign-in name for an account, e.g.
// "TechConf2024-user3@contoso.com".
func PrincipalName(accountName, domain string) string {
	return accountName + "@" + domain
}

// DisplayName returns the human-readable name for an account.
func DisplayName(campaign string, index int) string {
	return fmt.Sprintf("%s User %d", campaign, index)
}

// GroupName returns the campaign group's display name, e.g.
// "TechConf2024-users".
func GroupName(campaign string) string {
	return campaign + "-users"
}

// ContainerName returns the resource container name for an account, e.g.
// "rg-TechConf2024-user3".
func ContainerName(accountName string) string {
	return "rg-" + accountName
}

// Matcher recognizes resource names belonging to one campaign. Matching is
// case-insensitive, following the directory service's case-insensitive
// treatment of principal and display names.
type Matcher struct {
	campaign  string
	account   *regexp.Regexp
	container *regexp.Regexp
}

// NewMatcher compiles the matching patterns for a campaign name.
func NewMatcher(campaign string) *Matcher {
	quoted := regexp.QuoteMeta(campaign)
	return &Matcher{
		campaign:  campaign,
		account:   regexp.MustCompile(`(?i)^` + quoted + `-user[0-9]+$`),
		container: regexp.MustCompile(`(?i)^rg-` + quoted + `-user[0-9]+$`),
	}
}

// Account reports whether candidate is exactly an account name generated for
// this campaign.
func (m *Matcher) Account(candidate string) bool {
	return m.account.MatchString(candidate)
}

// Principal reports whether a sign-in name ("<account>@<domain>") belongs to
// this campaign. An empty domain accepts any domain.
func (m *Matcher) Principal(principalName, domain string) bool {
	local, principalDomain, found := strings.Cut(principalName, "@")
	if !found {
		return false
	}
	if domain != "" && !strings.EqualFold(principalDomain, domain) {
		return false
	}
	return m.Account(local)
}

// Group reports whether candidate is exactly this campaign's group name.
func (m *Matcher) Group(candidate string) bool {
	return strings.EqualFold(candidate, GroupName(m.campaign))
}

// Container reports whether candidate is exactly a container name generated
// for this campaign.
func (m *Matcher) Container(candidate string) bool {
	return m.container.MatchString(candidate)
}

package naming

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountNamesAreDistinct(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 1; i <= 1000; i++ {
		name := AccountName("TechConf2024", i)
		_, dup := seen[name]
		require.False(t, dup, "duplicate account name %q at index %d", name, i)
		seen[name] = struct{}{}
	}
}

func TestMatcherAcceptsGeneratedNames(t *testing.T) {
	m := NewMatcher("TechConf2024")
	for i := 1; i <= 25; i++ {
		name := AccountName("TechConf2024", i)
		assert.True(t, m.Account(name), "generated name %q should match", name)
		assert.True(t, m.Container(ContainerName(name)))
		assert.True(t, m.Principal(PrincipalName(name, "contoso.com"), ""))
	}
	assert.True(t, m.Group(GroupName("TechConf2024")))
}

func TestMatcherRejectsOtherCampaigns(t *testing.T) {
	m := NewMatcher("Conf")

	tests := []struct {
		name      string
		candidate string
	}{
		{"longer campaign sharing a prefix", "ConfX-user1"},
		{"campaign as substring", "MyConf-user1"},
		{"missing index", "Conf-user"},
		{"trailing garbage", "Conf-user1-extra"},
		{"group name as account", "Conf-users"},
		{"unrelated name", "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, m.Account(tt.candidate))
		})
	}
}

func TestMatcherIsCaseInsensitive(t *testing.T) {
	m := NewMatcher("TechConf2024")
	assert.True(t, m.Account("techconf2024-user7"))
	assert.True(t, m.Group("TECHCONF2024-USERS"))
	assert.True(t, m.Container("RG-TechConf2024-user3"))
}

func TestMatcherPrincipalDomainFilter(t *testing.T) {
	m := NewMatcher("TechConf2024")

	assert.True(t, m.Principal("TechConf2024-user1@contoso.com", "contoso.com"))
	assert.True(t, m.Principal("TechConf2024-user1@contoso.com", "CONTOSO.COM"))
	assert.False(t, m.Principal("TechConf2024-user1@fabrikam.com", "contoso.com"))
	assert.False(t, m.Principal("TechConf2024-user1", "contoso.com"), "a name without a domain part is not a principal name")
}

func TestMatcherEscapesRegexMetacharacters(t *testing.T) {
	// campaign names are validated upstream, but the matcher must not
	// treat the name as a pattern either way
	m := NewMatcher("Conf.2024")
	assert.False(t, m.Account("ConfX2024-user1"))
}

func TestNameDerivation(t *testing.T) {
	assert.Equal(t, "TechConf2024-user3", AccountName("TechConf2024", 3))
	assert.Equal(t, "TechConf2024-user3@contoso.com", PrincipalName("TechConf2024-user3", "contoso.com"))
	assert.Equal(t, "TechConf2024-users", GroupName("TechConf2024"))
	assert.Equal(t, "rg-TechConf2024-user3", ContainerName("TechConf2024-user3"))
	assert.Equal(t, "TechConf2024 User 3", DisplayName("TechConf2024", 3))
}

func TestAccountNameInjectivityAcrossIndexWidths(t *testing.T) {
	// user1 vs user10 vs user100 must stay distinct and all match
	m := NewMatcher("Ev")
	for _, i := range []int{1, 10, 100, 1000} {
		name := AccountName("Ev", i)
		assert.Equal(t, fmt.Sprintf("Ev-user%d", i), name)
		assert.True(t, m.Account(name))
	}
}

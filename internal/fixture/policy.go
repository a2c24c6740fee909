package fixture

import (
	"fmt"
	"strings"
)

// Policy names a fixture preset.
type Policy string

const (
	// PolicyDefault is TestUser(false): realistic name, test_ alias email.
	PolicyDefault Policy = "default"

	// PolicyRealistic is TestUser(true): realistic name and username email.
	PolicyRealistic Policy = "realistic"

	// PolicyRegistration is the happy-path registration user.
	PolicyRegistration Policy = "registration"

	// PolicyExistingEmail reuses the pre-seeded account for negative tests.
	PolicyExistingEmail Policy = "existing-email"
)

// Policies lists every preset in display order.
var Policies = []Policy{
	PolicyDefault,
	PolicyRealistic,
	PolicyRegistration,
	PolicyExistingEmail,
}

// ParsePolicy resolves a policy name, case-insensitively.
func ParsePolicy(name string) (Policy, error) {
	want := Policy(strings.ToLower(strings.TrimSpace(name)))
	if want == "" {
		return PolicyDefault, nil
	}
	for _, p := range Policies {
		if p == want {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: unknown policy %q (want one of %s)", ErrInvalidArgument, name, policyNames())
}

func policyNames() string {
	names := make([]string, len(Policies))
	for i, p := range Policies {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

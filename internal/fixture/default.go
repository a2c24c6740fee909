package fixture

import "sync"

var (
	defaultOnce sync.Once
	defaultGen  *Generator
)

// Default returns the process-wide generator, seeded from crypto/rand.
func Default() *Generator {
	defaultOnce.Do(func() {
		defaultGen = NewRandom()
	})
	return defaultGen
}

// Convenience wrappers for the default generator.

// RandomString draws n characters from alphabet.
func RandomString(n int, alphabet string) (string, error) {
	return Default().RandomString(n, alphabet)
}

// TestEmail returns {prefix}+test_{suffix}@gmail.com.
func TestEmail(prefix string, suffixLength int) (string, error) {
	return Default().TestEmail(prefix, suffixLength)
}

// RandomName returns n random letters, or a full name when n <= 0.
func RandomName(n int) string {
	return Default().RandomName(n)
}

// RandomFirstName returns a realistic first name.
func RandomFirstName() string {
	return Default().RandomFirstName()
}

// RandomLastName returns a realistic last name.
func RandomLastName() string {
	return Default().RandomLastName()
}

// RealisticEmail returns test_{username}@{domain}.
func RealisticEmail(domain string) string {
	return Default().RealisticEmail(domain)
}

// Password returns a random password of n characters.
func Password(n int, includeSymbols bool) (string, error) {
	return Default().Password(n, includeSymbols)
}

// TestUser returns a standard-password fixture.
func TestUser(useRealisticEmail bool) FixtureUser {
	return Default().TestUser(useRealisticEmail)
}

// RegistrationTestUser returns the happy-path registration fixture.
func RegistrationTestUser() FixtureUser {
	return Default().RegistrationTestUser()
}

// ExistingEmailTestUser returns the duplicate-email fixture.
func ExistingEmailTestUser() FixtureUser {
	return Default().ExistingEmailTestUser()
}

// TestUserName returns n random lowercase letters.
func TestUserName(n int) (string, error) {
	return Default().TestUserName(n)
}

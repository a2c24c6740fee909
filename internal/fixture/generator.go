// Package fixture synthesizes user fixtures for the browser scenarios.
//
// Every generated identity-bearing value carries a "test_" marker so the
// application under test (or whoever reads its database) can tell synthetic
// users from real ones. Fixed values (the standard password and the
// known-existing email) are named policies, not accidents.
package fixture

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/brianvoe/gofakeit/v7"
)

const (
	// DefaultAlphabet is used by RandomString callers that want plain letters.
	DefaultAlphabet = "abcdefghijklmnopqrstuvwxyz"

	// PasswordAlphabet is the character set of generated passwords.
	PasswordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// PasswordSymbols are added to PasswordAlphabet when symbols are requested.
	PasswordSymbols = "!@#$%^&*"

	// DefaultEmailPrefix is the mailbox that receives every test_ alias.
	DefaultEmailPrefix = "romiortega88"

	// DefaultSuffixLength is the random part of a test email.
	DefaultSuffixLength = 8

	// DefaultEmailDomain is the domain of generated emails.
	DefaultEmailDomain = "gmail.com"

	// TestPrefix marks a value as synthetic.
	TestPrefix = "test_"

	// StandardPassword is the known-good credential of positive-path fixtures.
	StandardPassword = "1234567"

	// ExistingEmail is an account pre-seeded in the application. It matches
	// the default login credential in internal/config.
	ExistingEmail = "fedegastos@gmail.com"

	// RegistrationNameLength is the name length of RegistrationTestUser.
	RegistrationNameLength = 10

	// DefaultPasswordLength is the length of generated passwords.
	DefaultPasswordLength = 8
)

// ErrInvalidArgument reports malformed generation parameters.
var ErrInvalidArgument = errors.New("invalid argument")

// FixtureUser is a synthesized credential set used as scenario input.
type FixtureUser struct {
	Name     string `json:"name" yaml:"name"`
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`
}

// Generator produces fixture values from an explicit pseudo-random source.
// It is safe for concurrent use.
type Generator struct {
	mu            sync.Mutex
	seed          uint64
	rng           *rand.Rand
	faker         *gofakeit.Faker
	existingEmail string
}

// Option customizes a Generator.
type Option func(*Generator)

// WithExistingEmail overrides the known-existing account used by
// ExistingEmailTestUser. Empty values are ignored.
func WithExistingEmail(email string) Option {
	return func(g *Generator) {
		if email != "" {
			g.existingEmail = email
		}
	}
}

// New creates a Generator whose output is fully determined by seed.
func New(seed uint64, opts ...Option) *Generator {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	g := &Generator{
		seed:          seed,
		rng:           rand.New(src),
		faker:         gofakeit.NewFaker(src, false),
		existingEmail: ExistingEmail,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewRandom creates a Generator seeded from crypto/rand.
func NewRandom(opts ...Option) *Generator {
	return New(NewSeed(), opts...)
}

// NewSeed returns a high-entropy seed. It falls back to the runtime's
// random source if crypto/rand is unavailable.
func NewSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return rand.Uint64()
	}
	return binary.LittleEndian.Uint64(b[:])
}

// Seed returns the seed the generator was created with, for replay.
func (g *Generator) Seed() uint64 {
	return g.seed
}

// RandomString returns exactly n characters drawn independently and
// uniformly from alphabet. n is counted in runes.
func (g *Generator) RandomString(n int, alphabet string) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: negative length %d", ErrInvalidArgument, n)
	}
	if alphabet == "" {
		return "", fmt.Errorf("%w: empty alphabet", ErrInvalidArgument)
	}
	if !utf8.ValidString(alphabet) {
		return "", fmt.Errorf("%w: alphabet is not valid UTF-8", ErrInvalidArgument)
	}
	if n == 0 {
		return "", nil
	}

	chars := []rune(alphabet)

	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(n)
	for range n {
		b.WriteRune(chars[g.rng.IntN(len(chars))])
	}
	return b.String(), nil
}

// letters draws n lowercase letters. n must be non-negative.
func (g *Generator) letters(n int) string {
	s, err := g.RandomString(n, DefaultAlphabet)
	if err != nil {
		panic(err)
	}
	return s
}

// TestEmail returns {prefix}+test_{suffix}@gmail.com with a random
// lowercase suffix of suffixLength letters.
func (g *Generator) TestEmail(prefix string, suffixLength int) (string, error) {
	suffix, err := g.RandomString(suffixLength, DefaultAlphabet)
	if err != nil {
		return "", fmt.Errorf("test email suffix: %w", err)
	}
	return prefix + "+" + TestPrefix + suffix + "@" + DefaultEmailDomain, nil
}

// RandomName returns n random lowercase letters when n > 0 and a realistic
// full name otherwise.
func (g *Generator) RandomName(n int) string {
	if n > 0 {
		return g.letters(n)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.faker.Name()
}

// RandomFirstName returns a realistic first name.
func (g *Generator) RandomFirstName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.faker.FirstName()
}

// RandomLastName returns a realistic last name.
func (g *Generator) RandomLastName() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.faker.LastName()
}

// RealisticEmail returns test_{username}@{domain} with a lowercased
// realistic username. An empty domain means DefaultEmailDomain.
func (g *Generator) RealisticEmail(domain string) string {
	if domain == "" {
		domain = DefaultEmailDomain
	}
	g.mu.Lock()
	username := g.faker.Username()
	g.mu.Unlock()
	return TestPrefix + strings.ToLower(username) + "@" + domain
}

// Password returns a non-memorable password of exactly n characters from
// [A-Za-z0-9], plus !@#$%^&* when includeSymbols is set.
func (g *Generator) Password(n int, includeSymbols bool) (string, error) {
	alphabet := PasswordAlphabet
	if includeSymbols {
		alphabet += PasswordSymbols
	}
	pw, err := g.RandomString(n, alphabet)
	if err != nil {
		return "", fmt.Errorf("password: %w", err)
	}
	return pw, nil
}

// TestUser returns a fixture with a realistic name, a test email (or a
// realistic one) and the standard password.
func (g *Generator) TestUser(useRealisticEmail bool) FixtureUser {
	var email string
	if useRealisticEmail {
		email = g.RealisticEmail(DefaultEmailDomain)
	} else {
		email = g.defaultTestEmail()
	}
	return FixtureUser{
		Name:     g.RandomName(0),
		Email:    email,
		Password: StandardPassword,
	}
}

// RegistrationTestUser is the happy-path registration preset: a 10 letter
// name, a default test email and the standard password.
func (g *Generator) RegistrationTestUser() FixtureUser {
	return FixtureUser{
		Name:     g.RandomName(RegistrationNameLength),
		Email:    g.defaultTestEmail(),
		Password: StandardPassword,
	}
}

// ExistingEmailTestUser returns a fixture whose email is already registered,
// for the duplicate-email scenario. The email is deliberately not random.
func (g *Generator) ExistingEmailTestUser() FixtureUser {
	pw, err := g.Password(DefaultPasswordLength, false)
	if err != nil {
		panic(err)
	}
	return FixtureUser{
		Name:     g.RandomName(0),
		Email:    g.existingEmail,
		Password: pw,
	}
}

// TestUserName returns n random lowercase letters.
func (g *Generator) TestUserName(n int) (string, error) {
	return g.RandomString(n, DefaultAlphabet)
}

// User builds a fixture for the given policy.
func (g *Generator) User(p Policy) (FixtureUser, error) {
	switch p {
	case PolicyDefault:
		return g.TestUser(false), nil
	case PolicyRealistic:
		return g.TestUser(true), nil
	case PolicyRegistration:
		return g.RegistrationTestUser(), nil
	case PolicyExistingEmail:
		return g.ExistingEmailTestUser(), nil
	default:
		return FixtureUser{}, fmt.Errorf("%w: unknown policy %q", ErrInvalidArgument, string(p))
	}
}

func (g *Generator) defaultTestEmail() string {
	email, err := g.TestEmail(DefaultEmailPrefix, DefaultSuffixLength)
	if err != nil {
		panic(err)
	}
	return email
}

// AddTestPrefix returns test_{value}.
func AddTestPrefix(value string) string {
	return TestPrefix + value
}

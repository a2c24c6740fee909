//go:build e2e
// +build e2e

package e2e

import "fmt"

// Selectors approximate accessible-role queries with XPath, matching on
// visible text, aria-label, name or placeholder.

func textbox(name string) string {
	lower := fmt.Sprintf("%q", lowerASCII(name))
	return fmt.Sprintf(`//input[@aria-label=%q or @placeholder=%q or @name=%s or @id=%s or @id=//label[normalize-space()=%q]/@for]`,
		name, name, lower, lower, name)
}

func button(name string) string {
	return fmt.Sprintf(`//button[normalize-space()=%q or @aria-label=%q]`, name, name)
}

func buttonContaining(text string) string {
	return fmt.Sprintf(`//button[contains(normalize-space(), %q)]`, text)
}

func link(name string) string {
	return fmt.Sprintf(`//a[normalize-space()=%q or @aria-label=%q]`, name, name)
}

func heading(name string) string {
	return fmt.Sprintf(`//*[self::h1 or self::h2 or self::h3][normalize-space()=%q]`, name)
}

func text(s string) string {
	return fmt.Sprintf(`//*[normalize-space(text())=%q]`, s)
}

const submitButton = `button[type="submit"]`

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

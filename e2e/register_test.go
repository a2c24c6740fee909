//go:build e2e
// +build e2e

package e2e

import "testing"

const registerFeature = "register"

func openRegister(t *testing.T, testName string) *Scenario {
	t.Helper()
	s := NewScenario(t, registerFeature, testName)
	s.Goto(suiteCfg.Routes.Register)
	return s
}

func TestRegister_NavigationLoop(t *testing.T) {
	s := openRegister(t, "navigate-register-login-flow")

	s.Step("1. Click on the back arrow in register page", func(s *Scenario) {
		s.Click(button("register.back"))
		s.Capture("clicked-back-arrow", "Clicked back arrow from register page")
	})

	s.Step("2. Verify redirection to login URL", func(s *Scenario) {
		s.ExpectURL(suiteCfg.Routes.Login)
		s.ExpectVisible(heading("Login"))
		s.Capture("redirected-to-login", "Successfully redirected to login page")
	})

	s.Step("3. Click on Register here link in login page", func(s *Scenario) {
		s.Click(link("Register here"))
		s.Capture("clicked-register-link", `Clicked "Register here" link from login page`)
	})

	s.Step("4. Verify we are back to register URL", func(s *Scenario) {
		s.ExpectURL(suiteCfg.Routes.Register)
		s.ExpectVisible(heading("Register"))
		s.ExpectVisible(textbox("Name"))
		s.ExpectVisible(textbox("Email"))
		s.ExpectVisible(textbox("Password"))
		s.Capture("back-to-register", "Successfully navigated back to register page")
	})
}

func TestRegister_EmptyForm(t *testing.T) {
	s := openRegister(t, "validate-required-fields")

	s.Step("1. Click Register button with empty form", func(s *Scenario) {
		s.Click(buttonContaining("Register"))
		s.Capture("clicked-register-empty", "Clicked Register button with empty form")
	})

	s.Step("2. Verify validation message appears", func(s *Scenario) {
		s.ExpectVisible(text("Please complete all fields correctly."))
		s.Capture("validation-message-displayed", "Validation message displayed for empty form")
	})
}

var requiredMessages = []string{"Name is required", "Email is required", "Password is required"}

func TestRegister_IndividualFieldMessages(t *testing.T) {
	s := openRegister(t, "individual-field-validation")

	s.Step("1. Click Register button with empty form", func(s *Scenario) {
		s.Click(submitButton)
		s.Capture("clicked-register-for-field-validation", "Clicked Register button to trigger individual field validation")
	})

	s.Step("2. Verify individual field validation messages appear", func(s *Scenario) {
		for _, msg := range requiredMessages {
			s.ExpectVisible(text(msg))
		}
		s.Capture("individual-field-messages-displayed", "Individual validation messages displayed for each required field")
	})
}

func TestRegister_WhitespaceFields(t *testing.T) {
	s := openRegister(t, "whitespace-validation")

	s.Step("1. Navigate to register URL", func(s *Scenario) {
		s.ExpectURL(suiteCfg.Routes.Register)
		s.Capture("on-register-page", "On register page ready to test whitespace validation")
	})

	fields := []struct{ step, field, label string }{
		{"2. Fill Name field with whitespace only", "Name", "name-field-whitespace"},
		{"3. Fill Email field with whitespace only", "Email", "email-field-whitespace"},
		{"4. Fill Password field with whitespace only", "Password", "password-field-whitespace"},
	}
	for _, f := range fields {
		s.Step(f.step, func(s *Scenario) {
			s.Fill(textbox(f.field), "   ")
			s.Capture(f.label, f.field+" field filled with whitespace only")
		})
	}

	s.Step("5. Click Register button", func(s *Scenario) {
		s.Click(submitButton)
		s.Capture("clicked-register-whitespace", "Clicked Register button with whitespace-only fields")
	})

	s.Step("6. Verify validation messages appear for whitespace-only fields", func(s *Scenario) {
		for _, msg := range requiredMessages {
			s.ExpectVisible(text(msg))
		}
		s.Capture("whitespace-validation-messages", "Validation messages displayed for whitespace-only fields treated as empty")
	})
}

var registerToggle = button("register.togglePasswordVisibility")

func TestRegister_PasswordToggle(t *testing.T) {
	s := openRegister(t, "password-toggle")
	const pw = "123456"
	toggleIcon := registerToggle + "//img"

	s.Step("1. Fill Password field with test password", func(s *Scenario) {
		s.Fill(textbox("Password"), pw)
		s.ExpectValue(textbox("Password"), pw)
		s.Capture("password-filled", `Password field filled with "123456"`)
	})

	s.Step("2. Click eye icon to hide password and verify it is hidden", func(s *Scenario) {
		s.Click(registerToggle)
		s.ExpectAttribute(textbox("Password"), "type", "password")
		s.ExpectAttribute(toggleIcon, "alt", "visibility_off")
		s.ExpectAttribute(registerToggle, "aria-pressed", "true")
		s.ExpectValue(textbox("Password"), pw)
		s.Capture("password-hidden-eye-crossed", "Password hidden with crossed eye icon (visibility_off)")
	})

	s.Step("3. Click eye icon again to show password and verify it is visible", func(s *Scenario) {
		s.Click(registerToggle)
		s.ExpectAttribute(textbox("Password"), "type", "text")
		s.ExpectAttribute(toggleIcon, "alt", "visibility")
		s.ExpectAttribute(registerToggle, "aria-pressed", "false")
		s.ExpectValue(textbox("Password"), pw)
		s.Capture("password-visible-eye-normal", "Password visible with normal eye icon (visibility)")
	})
}

func TestRegister_PasswordMinimumLength(t *testing.T) {
	s := openRegister(t, "password-minimum-validation")

	s.Step("1. Enter short password (123) in password field", func(s *Scenario) {
		s.Fill(textbox("Password"), "123")
		s.Capture("short-password-entered", `Short password "123" entered`)
	})

	s.Step("2. Click register button to trigger validation", func(s *Scenario) {
		// Dialogs are accepted by the scenario's browser session.
		s.Click(button("Register"))
		s.Capture("register-button-clicked", "Register button clicked")
	})

	s.Step("3. Verify minimum characters validation message appears below Password field", func(s *Scenario) {
		s.ExpectVisible(text("Minimum 6 characters"))
		s.Capture("validation-message-visible", "Minimum 6 characters validation message is displayed below Password field")
	})
}

func TestRegister_HappyRegistration(t *testing.T) {
	s := openRegister(t, "happy-registration")
	user := s.fixtures.RegistrationTestUser()
	t.Logf("[E2E-FIXTURE] registering %s", user.Email)

	s.Step("1. Fill the form with a fresh test user", func(s *Scenario) {
		s.Fill(textbox("Name"), user.Name)
		s.Fill(textbox("Email"), user.Email)
		s.Fill(textbox("Password"), user.Password)
		s.ExpectValue(textbox("Email"), user.Email)
		s.Capture("form-filled", "Register form filled with a generated test user")
	})

	s.Step("2. Submit and verify the user leaves the register page", func(s *Scenario) {
		s.Click(submitButton)
		s.ExpectLeaves(suiteCfg.Routes.Register)
		s.Capture("registration-submitted", "Registration accepted and page redirected")
	})
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := openRegister(t, "duplicate-email")
	user := s.fixtures.ExistingEmailTestUser()

	s.Step("1. Fill the form with an already registered email", func(s *Scenario) {
		s.Fill(textbox("Name"), user.Name)
		s.Fill(textbox("Email"), user.Email)
		s.Fill(textbox("Password"), user.Password)
		s.Capture("form-filled-existing-email", "Register form filled with an existing email")
	})

	s.Step("2. Submit and verify registration is rejected", func(s *Scenario) {
		s.Click(submitButton)
		s.ExpectStaysOn(suiteCfg.Routes.Register)
		s.Capture("duplicate-email-rejected", "Registration with an existing email keeps the user on the register page")
	})
}

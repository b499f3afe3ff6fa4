package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBrand = Branding{AppName: "Identity", CompanyName: "Acme", SupportURL: "https://acme.test/help"}

func TestRender_AllTemplates(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for _, name := range []string{Welcome, ProfileUpdated, AccountRemoved} {
		t.Run(name, func(t *testing.T) {
			data := ToMap(NewEmailData(testBrand, name, "Ana", "ana@example.com", WithTime(at)))

			subject, text, html, err := Render(name, data)
			require.NoError(t, err)
			assert.NotEmpty(t, subject)
			assert.NotContains(t, subject, "\n")
			assert.Contains(t, text, "ana@example.com")
			assert.Contains(t, text, "01 January 2024, 12:00")
			assert.Contains(t, html, "Ana")
			assert.NotContains(t, text, "<no value>")
		})
	}
}

func TestRender_WelcomeFederated(t *testing.T) {
	data := ToMap(NewEmailData(testBrand, Welcome, "Ana", "ana@example.com", WithRegisterType("google")))

	_, text, _, err := Render(Welcome, data)
	require.NoError(t, err)
	assert.Contains(t, text, "You signed up with Google")

	data = ToMap(NewEmailData(testBrand, Welcome, "Ana", "ana@example.com", WithRegisterType("default")))
	_, text, _, err = Render(Welcome, data)
	require.NoError(t, err)
	assert.NotContains(t, text, "signed up with")
}

func TestRender_Defaults(t *testing.T) {
	subject, text, _, err := Render(Welcome, ToMap(NewEmailData(Branding{}, Welcome, "", "x@example.com")))
	require.NoError(t, err)
	assert.Equal(t, "Welcome to our service", subject)
	assert.Contains(t, text, "Hi there,")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("login_otp", map[string]any{})
	assert.Error(t, err)
}

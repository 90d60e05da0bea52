package template

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/unclebandit/taxleopard-backend/internal/model"
)

func TestRenderSubstitutes(t *testing.T) {
	out := Render("Hi {{name}}, your {{company_name}} return is ready.", map[string]string{
		"name":         "Alice",
		"company_name": "TaxLeopard",
	})
	assert.Equal(t, "Hi Alice, your TaxLeopard return is ready.", out)
}

func TestRenderMissingVariableIsEmpty(t *testing.T) {
	out := Render("Hi {{name}}, see you on {{visit_date}}.", map[string]string{})
	assert.Equal(t, "Hi , see you on .", out)
}

func TestValidateAcceptsWholeRecognizedSet(t *testing.T) {
	body := `<p>Hi {{first_name}} {{last_name}} ({{name}}, {{email}}),
		{{company_name}} {{current_year}}.</p>
		<a href="{{{unsubscribe_url}}}">opt out</a>`
	assert.NoError(t, Validate(model.CategoryMarketing, "Hello {{first_name}}", body, ""))
}

func TestRenderEscapesDoubleBraces(t *testing.T) {
	out := Render("{{name}}", map[string]string{"name": "<b>Alice</b>"})
	assert.Equal(t, "&lt;b&gt;Alice&lt;/b&gt;", out)
}

func TestRenderRawTripleBraces(t *testing.T) {
	out := Render(`<a href="{{{unsubscribe_url}}}">unsubscribe</a>`, map[string]string{
		"unsubscribe_url": "https://x.test/unsubscribe?token=a&b=c",
	})
	assert.Equal(t, `<a href="https://x.test/unsubscribe?token=a&b=c">unsubscribe</a>`, out)
}

func TestRenderAllowsSpacesInsideBraces(t *testing.T) {
	out := Render("Hi {{ name }}!", map[string]string{"name": "Alice"})
	assert.Equal(t, "Hi Alice!", out)
}

func TestPlaceholders(t *testing.T) {
	names := Placeholders("Hi {{name}}, {{{unsubscribe_url}}} and {{name}} again plus {{bogus}}")
	assert.Equal(t, []string{"bogus", "name", "unsubscribe_url"}, names)
}

func TestValidateRejectsUnknownPlaceholder(t *testing.T) {
	err := Validate(model.CategoryTransactional, "Hello {{nickname}}", "body", "")
	assert.ErrorContains(t, err, "nickname")
}

func TestValidateMarketingRequiresUnsubscribe(t *testing.T) {
	err := Validate(model.CategoryMarketing, "Big refund news", "<p>Hi {{name}}</p>", "")
	assert.ErrorContains(t, err, "unsubscribe_url")

	err = Validate(model.CategoryMarketing, "Big refund news",
		`<p>Hi {{name}}</p><a href="{{{unsubscribe_url}}}">opt out</a>`, "")
	assert.NoError(t, err)
}

func TestValidateTransactionalNeedsNoUnsubscribe(t *testing.T) {
	err := Validate(model.CategoryTransactional, "Your documents", "<p>Hi {{name}}</p>", "")
	assert.NoError(t, err)
}

// Rendering stays permissive even for templates validation would reject, so
// admins can preview drafts that are not final yet.
func TestRenderIndependentOfValidation(t *testing.T) {
	src := "Hi {{totally_bogus}}"
	assert.Error(t, Validate(model.CategoryTransactional, src, "", ""))
	assert.Equal(t, "Hi ", Render(src, nil))
}

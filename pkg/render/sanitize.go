package render

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	emailPolicy     *bluemonday.Policy
	emailPolicyOnce sync.Once
)

// emailHTMLPolicy allows exactly the element set the serializers emit, so
// sanitization is a no-op on clean output and strips anything smuggled in
// through substituted variables.
func emailHTMLPolicy() *bluemonday.Policy {
	emailPolicyOnce.Do(func() {
		p := bluemonday.NewPolicy()
		p.AllowStandardURLs()
		p.AllowElements(
			"p", "br", "hr",
			"h1", "h2", "h3", "h4", "h5", "h6",
			"strong", "em", "s", "u", "code",
			"ul", "ol", "li", "blockquote",
		)
		p.AllowAttrs("href").OnElements("a")
		p.AllowAttrs("target", "rel").OnElements("a")
		emailPolicy = p
	})
	return emailPolicy
}

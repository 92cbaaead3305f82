package vanilla

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
)

// sanitizeLabel keeps inline formatting in backend-supplied titles and labels
// and strips everything else.
func sanitizeLabel(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(labelSanitizer().Sanitize(trimmed))
}

func labelSanitizer() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements("b", "strong", "i", "em", "small", "sup", "sub", "br", "abbr")
		policy.AllowAttrs("class").OnElements("span")
		policy.AllowAttrs("title").OnElements("abbr")
		labelPolicy = policy
	})
	return labelPolicy
}

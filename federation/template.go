package federation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/burrowcms/burrow/errors"
)

// Query templates reference stores through placeholders, never through raw
// tenant ids:
//
//	{{primary}}  — the primary tenant's store (SQLite schema name "main")
//	{{s1}}..{{sN}} — the Nth secondary, in request order
//
// The engine substitutes engine-generated aliases for the placeholders at
// call time, so the text that reaches the store never contains a tenant id.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// primarySchema is what SQLite calls the database a connection was opened on.
const primarySchema = "main"

// substitute expands placeholders in a query template. aliases holds the
// generated alias for each secondary, in request order. Unknown or
// out-of-range placeholders are an error; a template must not survive with
// an unresolved placeholder in it.
func substitute(template string, aliases []string) (string, error) {
	var badRef error
	out := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]

		if name == "primary" {
			return primarySchema
		}

		if strings.HasPrefix(name, "s") {
			if n, err := strconv.Atoi(name[1:]); err == nil {
				if n >= 1 && n <= len(aliases) {
					return aliases[n-1]
				}
				badRef = errors.Newf("placeholder {{%s}} out of range: %d secondaries", name, len(aliases))
				return match
			}
		}

		badRef = errors.Newf("unknown placeholder {{%s}}", name)
		return match
	})
	if badRef != nil {
		return "", badRef
	}
	return out, nil
}

package identity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// DisplayName derives a presentable name from an email address when the
// profile record does not carry one. "jane.doe@acme.io" becomes "Jane Doe";
// anything unparseable falls back to the email itself.
func DisplayName(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return email
	}
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return email
	}
	return titleCaser.String(strings.Join(parts, " "))
}

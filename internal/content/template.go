package content

import (
	"strings"
)

// RenderTemplate substitutes {{key}} placeholders. Unknown placeholders are
// left as they are.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	return result
}

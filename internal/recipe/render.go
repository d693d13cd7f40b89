package recipe

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
)

//go:embed recipe_post.html
var postTemplate string

var postTmpl = template.Must(template.New("post").Parse(postTemplate))

// RenderHTML renders a saved recipe as an HTML fragment for publishing.
// Text is escaped.
func RenderHTML(r SavedRecipe) (string, error) {
	var buf bytes.Buffer
	if err := postTmpl.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("failed to render recipe %q: %w", r.Title, err)
	}
	return buf.String(), nil
}

package deployment

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/deploy.sh.tmpl
var scriptFS embed.FS

var scriptTemplate = template.Must(template.New("deploy.sh.tmpl").Funcs(template.FuncMap{
	"shquote": shellQuote,
	"oneline": oneLine,
	"flags":   resourceFlags,
}).ParseFS(scriptFS, "templates/deploy.sh.tmpl"))

func renderScript(p plan) (string, error) {
	var buf bytes.Buffer
	if err := scriptTemplate.Execute(&buf, p); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// oneLine collapses every run of whitespace, line breaks included, into a single space so the
// value can sit inside a shell comment.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package templates

import (
	"bytes"
	"embed"
	"fmt"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names
const (
	VerifyEmail    = "verify_email"
	ForgotPassword = "forgot_password"
)

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() {
			return fallback
		}
		zero := reflect.Zero(rv.Type()).Interface()
		if reflect.DeepEqual(value, zero) {
			return fallback
		}
		return value
	}
}

var funcMap = texttpl.FuncMap{
	"now":        func() time.Time { return time.Now().UTC() },
	"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
	"upper":      strings.ToUpper,
	"default":    defaultFn,
}

// parsed once; the embedded set never changes at runtime
var set = texttpl.Must(texttpl.New("mail").Funcs(funcMap).ParseFS(FS, "*.tmpl"))

func renderFile(filename string, data any) (string, error) {
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, filename, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

// Render renders <name>.subject.tmpl and <name>.text.tmpl.
func Render(name string, data EmailData) (subject string, text string, err error) {
	subject, err = renderFile(name+".subject.tmpl", data)
	if err != nil {
		return "", "", err
	}
	text, err = renderFile(name+".text.tmpl", data)
	if err != nil {
		return "", "", err
	}
	return strings.TrimSpace(subject), text, nil
}

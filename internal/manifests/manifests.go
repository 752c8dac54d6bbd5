// Package manifests renders the embedded resource and tool configuration templates.
package manifests

import (
	"bytes"
	"embed"
	"fmt"
	"maps"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"sigs.k8s.io/yaml"
)

// Template names.
const (
	Echo          = "echo.yaml"
	Jaeger        = "jaeger.yaml"
	OpenSSLConfig = "openssl.cnf"
)

//go:embed templates/*
var files embed.FS

// Params are the values available to workload templates.
type Params struct {
	Name      string
	Namespace string
	Image     string
	Port      int32
	Env       map[string]string
}

// Render executes the named template with data.
func Render(name string, data any) ([]byte, error) {
	tmpl := template.New(name)
	tmpl.Funcs(funcMap(tmpl))
	if _, err := tmpl.ParseFS(files, "templates/_helpers.tpl", "templates/"+name); err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Names lists the embedded templates that can be rendered.
func Names() []string {
	return []string{Echo, Jaeger, OpenSSLConfig}
}

func funcMap(tmpl *template.Template) template.FuncMap {
	f := sprig.TxtFuncMap()
	delete(f, "env")
	delete(f, "expandenv")

	extra := template.FuncMap{
		"toYaml": toYAML,
		"include": func(name string, data any) (string, error) {
			var buf bytes.Buffer
			if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
				return "", err
			}
			return buf.String(), nil
		},
	}
	maps.Copy(f, extra)
	return f
}

func toYAML(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(string(data), "\n")
}

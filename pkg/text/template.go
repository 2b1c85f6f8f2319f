package text

import (
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

// VarIP is the template variable holding the discovered address
const VarIP = "ip"

// 🧩 Vars holds the values replacement templates can reference
type Vars struct {
	IP  string
	Env map[string]string
}

// EnvVars returns the process environment as a map
func EnvVars() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}
	return env
}

func (v Vars) evalContext() *hcl.EvalContext {
	env := cty.MapValEmpty(cty.String)
	if len(v.Env) > 0 {
		vals := make(map[string]cty.Value, len(v.Env))
		for k, val := range v.Env {
			vals[k] = cty.StringVal(val)
		}
		env = cty.MapVal(vals)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			VarIP: cty.StringVal(v.IP),
			"env": env,
		},
	}
}

func isTemplate(tmpl string) bool {
	return strings.Contains(tmpl, "${") || strings.Contains(tmpl, "%{")
}

func parseTemplate(tmpl string) (hclsyntax.Expression, error) {
	expr, diags := hclsyntax.ParseTemplate([]byte(tmpl), "replacement", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing template %q: %s", tmpl, diags.Error())
	}
	return expr, nil
}

// 🔄 Expand renders a replacement template such as "${ip}:8080".
// Strings without interpolation come back unchanged.
func Expand(tmpl string, vars Vars) (string, error) {
	if !isTemplate(tmpl) {
		return tmpl, nil
	}

	expr, err := parseTemplate(tmpl)
	if err != nil {
		return "", err
	}

	val, diags := expr.Value(vars.evalContext())
	if diags.HasErrors() {
		return "", errors.Errorf("evaluating template %q: %s", tmpl, diags.Error())
	}
	if val.IsNull() || !val.IsKnown() || !val.Type().Equals(cty.String) {
		return "", errors.Errorf("template %q did not produce a string", tmpl)
	}
	return val.AsString(), nil
}

// 🔍 References returns the root variable names a template uses
func References(tmpl string) ([]string, error) {
	if !isTemplate(tmpl) {
		return nil, nil
	}

	expr, err := parseTemplate(tmpl)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var names []string
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

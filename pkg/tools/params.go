package tools

import (
	"fmt"
	"slices"

	"github.com/awb-bank/audit-agent/pkg/agent"
)

// bindArgs maps positional and keyword arguments onto declared parameter
// names, call-style: positionals fill names in order, keywords fill by
// name. The first `required` names must end up bound. Binding errors are
// returned as plain errors; the dispatcher stringifies them into the
// observation so the model can correct its call shape.
func bindArgs(names []string, required int, args []agent.Value, kwargs map[string]agent.Value) (map[string]agent.Value, error) {
	if len(args) > len(names) {
		return nil, fmt.Errorf("takes at most %d arguments (%d given)", len(names), len(args))
	}
	bound := make(map[string]agent.Value, len(names))
	for i, v := range args {
		bound[names[i]] = v
	}
	for key, v := range kwargs {
		if !slices.Contains(names, key) {
			return nil, fmt.Errorf("unexpected keyword argument %q", key)
		}
		if _, dup := bound[key]; dup {
			return nil, fmt.Errorf("got multiple values for argument %q", key)
		}
		bound[key] = v
	}
	for _, name := range names[:required] {
		if _, ok := bound[name]; !ok {
			return nil, fmt.Errorf("missing required argument %q", name)
		}
	}
	return bound, nil
}

// stringArg returns a parameter that must be a quoted/literal string.
func stringArg(bound map[string]agent.Value, name string) (string, error) {
	v, ok := bound[name]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	s, ok := v.Text()
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %s", name, v.Kind())
	}
	return s, nil
}

// textArg returns a parameter rendered as text. Identifiers like user IDs
// or severities often arrive unquoted and coerce to non-string scalars;
// any kind but null is accepted and rendered.
func textArg(bound map[string]agent.Value, name string) (string, error) {
	v, ok := bound[name]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	if v.IsNull() {
		return "", fmt.Errorf("argument %q must not be null", name)
	}
	return v.String(), nil
}

// optionalStringArg returns ("", nil) when the parameter is absent.
func optionalStringArg(bound map[string]agent.Value, name string) (string, error) {
	v, ok := bound[name]
	if !ok || v.IsNull() {
		return "", nil
	}
	s, ok := v.Text()
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %s", name, v.Kind())
	}
	return s, nil
}

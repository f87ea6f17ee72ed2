package agent

import "strings"

// ActionMarker prefixes every action line in model output. A line invokes
// a tool only when its trimmed text starts with this marker.
const ActionMarker = "ACTION:"

// ParsedCall is one parsed action line: a tool name plus positional and
// keyword arguments. Immutable once returned; consumed exactly once by
// the registry.
type ParsedCall struct {
	Tool   string
	Args   []Value
	Kwargs map[string]Value
}

// ParseActionLine parses a single line of model output into a tool call.
// It returns (nil, false) for anything that is not a well-formed call:
// lines without the marker, an empty tool name, or an unterminated
// argument list. Malformed input never produces an error; the parser is
// the silent first stage of an untrusted-text pipeline.
func ParseActionLine(line string) (*ParsedCall, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, ActionMarker) {
		return nil, false
	}
	callText := strings.TrimSpace(trimmed[len(ActionMarker):])

	// No parentheses at all: the remainder is a bare zero-arg tool name.
	if !strings.ContainsAny(callText, "()") {
		if callText == "" {
			return nil, false
		}
		return &ParsedCall{Tool: callText, Args: []Value{}, Kwargs: map[string]Value{}}, true
	}

	open := strings.IndexByte(callText, '(')
	if open == -1 {
		return nil, false
	}
	tool := strings.TrimSpace(callText[:open])
	if tool == "" {
		return nil, false
	}

	// Scan for the matching close paren. Quote characters toggle their own
	// flag only while the other quote type is closed, so one quote style
	// can appear literally inside the other. Parens count only outside
	// quotes. Reaching end-of-line with depth open is an unterminated call.
	depth := 1
	inSingle, inDouble := false, false
	i := open + 1
	for i < len(callText) && depth > 0 {
		switch callText[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		}
		if !inSingle && !inDouble {
			switch callText[i] {
			case '(':
				depth++
			case ')':
				depth--
			}
		}
		i++
	}
	if depth != 0 {
		return nil, false
	}

	call := &ParsedCall{Tool: tool, Args: []Value{}, Kwargs: map[string]Value{}}
	argText := strings.TrimSpace(callText[open+1 : i-1])
	if argText == "" {
		return call, true
	}

	for _, token := range splitArgs(argText) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if key, val, ok := splitKeyValue(token); ok {
			// Last occurrence wins on duplicate keys.
			call.Kwargs[strings.TrimSpace(key)] = CoerceScalar(strings.TrimSpace(val))
		} else {
			call.Args = append(call.Args, CoerceScalar(token))
		}
	}
	return call, true
}

// CollectActionLines returns every line of a reply whose trimmed text
// begins with the action marker, in order of appearance.
func CollectActionLines(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), ActionMarker) {
			out = append(out, line)
		}
	}
	return out
}

// splitArgs splits the argument text on commas that are not inside quotes.
// Quote-aware only; arguments are not expected to nest unquoted parens.
func splitArgs(s string) []string {
	var parts []string
	inSingle, inDouble := false, false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case ',':
			if !inSingle && !inDouble {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// splitKeyValue splits a token at its first unquoted '='. Tokens without
// one are positional.
func splitKeyValue(token string) (key, val string, ok bool) {
	inSingle, inDouble := false, false
	for i := 0; i < len(token); i++ {
		switch token[i] {
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		case '=':
			if !inSingle && !inDouble {
				return token[:i], token[i+1:], true
			}
		}
	}
	return "", "", false
}

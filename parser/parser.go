package parser

import (
	"fmt"
	"strings"

	"example.com/parentator/parser/commands"
)

type Command struct {
	Kind   string
	Params map[string]string
}

// Parse matches a line against the registry's patterns. It returns nil for
// an unknown verb, and an error carrying a usage hint when the verb is known
// but no pattern fits.
func Parse(reg *commands.Registry, line string) (*Command, error) {
	words := strings.Fields(strings.ToLower(line))
	if len(words) == 0 {
		return nil, nil
	}

	canonical, ok := reg.VerbAliases[words[0]]
	if !ok {
		return nil, nil
	}
	words[0] = canonical

	hint := ""
	for _, p := range reg.Patterns {
		if len(p.Tokens) == 0 || p.Tokens[0].Literal != canonical {
			continue
		}
		if hint == "" && p.NoMatchMessage != "" {
			hint = p.NoMatchMessage
		}

		if params, ok := match(p.Tokens, words); ok {
			return &Command{Kind: p.Kind, Params: params}, nil
		}
	}

	if hint == "" {
		hint = fmt.Sprintf("That's not how to %s. Try 'help %s'.", canonical, canonical)
	}
	return nil, fmt.Errorf("%s", hint)
}

func match(tokens []commands.Token, words []string) (map[string]string, bool) {
	params := map[string]string{}

	for i, t := range tokens {
		if t.Rest {
			if i >= len(words) {
				return nil, false
			}
			params[t.Slot] = strings.Join(words[i:], " ")
			return params, true
		}

		if i >= len(words) {
			return nil, false
		}

		if t.Literal != "" {
			if words[i] != t.Literal {
				return nil, false
			}
			continue
		}
		params[t.Slot] = words[i]
	}

	if len(words) != len(tokens) {
		return nil, false
	}
	return params, true
}

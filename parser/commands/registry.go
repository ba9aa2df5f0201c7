package commands

import (
	"fmt"
	"strings"
)

// Token is one element of a command pattern: a literal word, a named slot
// that captures one word, or a rest slot that captures the remainder.
type Token struct {
	Literal string
	Slot    string
	Rest    bool
}

func Lit(s string) Token      { return Token{Literal: s} }
func Slot(s string) Token     { return Token{Slot: s} }
func SlotRest(s string) Token { return Token{Slot: s, Rest: true} }

type Pattern struct {
	Kind           string
	Tokens         []Token
	HelpMessage    string
	NoMatchMessage string
}

func (p Pattern) String() string {
	parts := make([]string, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		switch {
		case t.Literal != "":
			parts = append(parts, t.Literal)
		case t.Rest:
			parts = append(parts, "{"+t.Slot+"...}")
		default:
			parts = append(parts, "{"+t.Slot+"}")
		}
	}
	return strings.Join(parts, " ")
}

type CommandPattern struct {
	Syntax         string
	HelpMessage    string
	NoMatchMessage string
}

type CommandDefinition struct {
	Name     string
	Aliases  []string
	Patterns []CommandPattern
}

type Registry struct {
	Commands    map[string]struct{}
	VerbAliases map[string]string
	Patterns    []Pattern
}

func NewRegistry() *Registry {
	return &Registry{
		Commands:    map[string]struct{}{},
		VerbAliases: map[string]string{},
	}
}

func (r *Registry) RegisterBuiltInCommands() error {
	return r.RegisterCommands([]*CommandDefinition{
		&helpCommand,
		&lookCommand,
		&equipCommand,
		&throwCommand,
		&dropCommand,
	})
}

// RegisterCommands adds definitions. The first alias is the canonical verb;
// every pattern is registered under each alias.
func (r *Registry) RegisterCommands(defs []*CommandDefinition) error {
	for _, cd := range defs {
		if len(cd.Aliases) == 0 {
			return fmt.Errorf("command '%s' has no aliases", cd.Name)
		}

		canonical := cd.Aliases[0]
		r.Commands[canonical] = struct{}{}

		for _, alias := range cd.Aliases {
			r.VerbAliases[alias] = canonical
		}

		for _, pat := range cd.Patterns {
			tokens, err := TokenizeSyntax(pat.Syntax)
			if err != nil {
				return fmt.Errorf("command '%s': %w", cd.Name, err)
			}

			r.Patterns = append(r.Patterns, Pattern{
				Kind:           cd.Name,
				Tokens:         tokens,
				HelpMessage:    pat.HelpMessage,
				NoMatchMessage: pat.NoMatchMessage,
			})
		}
	}
	return nil
}

// TokenizeSyntax turns "throw {target}" into tokens. Only the last slot may
// be a rest slot ("{message...}").
func TokenizeSyntax(s string) ([]Token, error) {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command syntax")
	}

	tokens := make([]Token, 0, len(parts))
	for i, part := range parts {
		if !strings.HasPrefix(part, "{") || !strings.HasSuffix(part, "}") {
			tokens = append(tokens, Lit(part))
			continue
		}

		slot := strings.Trim(part, "{}")
		if strings.HasSuffix(slot, "...") {
			if i != len(parts)-1 {
				return nil, fmt.Errorf("rest slot '%s' must be last in '%s'", slot, s)
			}
			tokens = append(tokens, SlotRest(strings.TrimSuffix(slot, "...")))
			continue
		}
		tokens = append(tokens, Slot(slot))
	}

	return tokens, nil
}

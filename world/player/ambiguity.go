package player

import (
	"fmt"
	"strings"

	"example.com/parentator/world/entities"
)

// AmbiguityError is returned when an alias matches several entities. The
// caller asks the player to pick one and then runs Execute on it.
type AmbiguityError struct {
	Prompt  string
	Matches []entities.Match
	Execute func(*entities.Entity) (string, error)
}

func (e *AmbiguityError) Error() string {
	var b strings.Builder
	b.WriteString(e.Prompt)
	for i, m := range e.Matches {
		fmt.Fprintf(&b, "\n  %d) %s", i+1, m.Text)
	}
	return b.String()
}

type PendingAction struct {
	Ambiguity *AmbiguityError
}

// Choose runs the pending action on the n-th (1-based) match.
func (pa *PendingAction) Choose(n int) (string, error) {
	if n < 1 || n > len(pa.Ambiguity.Matches) {
		return "", fmt.Errorf("choose a number between 1 and %d", len(pa.Ambiguity.Matches))
	}
	return pa.Ambiguity.Execute(pa.Ambiguity.Matches[n-1].Entity)
}

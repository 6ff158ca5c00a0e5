package qb

import "fmt"

// PlaceholderGenerator returns n bind placeholders, numbered from 1 when the
// dialect numbers them.
type PlaceholderGenerator func(n int) []string

func QuestionMarks(n int) []string {
	output := make([]string, 0, n)
	for i := 0; i < n; i++ {
		output = append(output, "?")
	}
	return output
}

func DollarSigns(n int) []string {
	output := make([]string, 0, n)
	for i := 1; i < n+1; i++ {
		output = append(output, fmt.Sprintf("$%d", i))
	}
	return output
}

// placeholders hands out generated placeholders in order so numbered dialects
// stay consistent across SET, WHERE and VALUES sections of one statement.
type placeholders struct {
	phs []string
}

func newPlaceholders(gen PlaceholderGenerator, n int) *placeholders {
	if gen == nil {
		gen = QuestionMarks
	}
	return &placeholders{phs: gen(n)}
}

func (p *placeholders) pop() string {
	if len(p.phs) == 0 {
		return "?"
	}
	ph := p.phs[0]
	p.phs = p.phs[1:]
	return ph
}

package solver

import (
	"strings"

	"challenge-solver/internal/domain"
)

// prepareContext shapes the reference data for the prompt: resolves
// character homeworld references to planet names and, when enabled,
// filters each dataset to the records mentioned in the problem text.
func (s *Service) prepareContext(problem string, data *domain.ReferenceData) *domain.ReferenceData {
	out := &domain.ReferenceData{
		Planets:    data.Planets,
		Characters: data.Characters,
		Creatures:  data.Creatures,
	}

	if s.resolveHomeworlds {
		out.Characters = resolveHomeworlds(out.Characters, out.Planets)
	}
	if s.filterMentions {
		out.Planets = filterMentioned(problem, out.Planets, func(p domain.Planet) string { return p.Name })
		out.Characters = filterMentioned(problem, out.Characters, func(c domain.Character) string { return c.Name })
		out.Creatures = filterMentioned(problem, out.Creatures, func(c domain.Creature) string { return c.Name })
	}
	out.Planets = stripPlanetURLs(out.Planets)
	return out
}

// stripPlanetURLs blanks the reference URLs so they stay out of the
// prompt. The omitempty tag then drops the field entirely.
func stripPlanetURLs(planets []domain.Planet) []domain.Planet {
	out := make([]domain.Planet, len(planets))
	for i, p := range planets {
		p.URL = ""
		out[i] = p
	}
	return out
}

// resolveHomeworlds replaces homeworld reference URLs with the matching
// planet's name. Unresolvable references are left as-is.
func resolveHomeworlds(characters []domain.Character, planets []domain.Planet) []domain.Character {
	byURL := make(map[string]string, len(planets))
	for _, p := range planets {
		if p.URL != "" {
			byURL[p.URL] = p.Name
		}
	}
	out := make([]domain.Character, len(characters))
	for i, c := range characters {
		if name, ok := byURL[c.Homeworld]; ok {
			c.Homeworld = name
		}
		out[i] = c
	}
	return out
}

// filterMentioned keeps the records whose name appears in the problem
// text (case-insensitive substring). When nothing matches, the full
// dataset is returned: the heuristic only shrinks the prompt, it never
// starves it.
func filterMentioned[T any](problem string, records []T, name func(T) string) []T {
	lower := strings.ToLower(problem)
	var matched []T
	for _, r := range records {
		n := strings.ToLower(name(r))
		if n != "" && strings.Contains(lower, n) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return records
	}
	return matched
}

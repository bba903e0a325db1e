package domain

// Normalized catalog records. All numeric fields are coerced from the
// source's string representation; the "unknown" sentinel becomes 0 in
// coercion mode, or drops the record in strict mode.

// Planet is a normalized record from the planets catalog. URL is the
// source reference identity, kept so homeworld references survive a
// snapshot round-trip; the solver strips it before prompting.
type Planet struct {
	Name           string `json:"name"`
	RotationPeriod int    `json:"rotation_period"`
	OrbitalPeriod  int    `json:"orbital_period"`
	Diameter       int    `json:"diameter"`
	SurfaceWater   int    `json:"surface_water"`
	Population     int    `json:"population"`
	URL            string `json:"url,omitempty"`
}

// Character is a normalized record from the people catalog. Homeworld
// holds the source reference URL until the solver resolves it to a
// planet name for prompt readability.
type Character struct {
	Name      string `json:"name"`
	Height    int    `json:"height"`
	Mass      int    `json:"mass"`
	Homeworld string `json:"homeworld"`
}

// Creature is a normalized record from the creature catalog.
type Creature struct {
	ID             int    `json:"id,omitempty"`
	Name           string `json:"name"`
	BaseExperience int    `json:"base_experience"`
	Height         int    `json:"height"`
	Weight         int    `json:"weight"`
}

// ReferenceData bundles the three catalog datasets. Interpretation
// requires all three to be present and non-empty.
type ReferenceData struct {
	Planets    []Planet
	Characters []Character
	Creatures  []Creature
}

package cache

// Well-known snapshot datasets. The storage key for each is
// KeyPrefix + name, e.g. "cache_planets".
const (
	KeyPrefix = "cache_"

	DatasetPlanets   = "planets"
	DatasetPeople    = "people"
	DatasetCreatures = "pokemon"
)

// DatasetKey returns the storage key for a dataset name.
func DatasetKey(name string) string {
	return KeyPrefix + name
}

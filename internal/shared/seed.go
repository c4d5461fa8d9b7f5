package shared

// SeedLocations are the areas the seeder warms the store with. Override with
// SEED_LOCATIONS (comma-separated) when a different coverage set is wanted.
var SeedLocations = []string{
	"New York, NY",
	"San Francisco, CA",
	"Chicago, IL",
	"Austin, TX",
	"Seattle, WA",
}

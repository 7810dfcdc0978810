// Package threats generates the synthetic live-map feed. Nothing here is persisted.
package threats

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultFeedSize is the number of events served by the live feed.
const DefaultFeedSize = 15

// Types sampled for each event.
var Types = []string{"phishing", "malware", "weak-password", "suspicious-link"}

// Location is a named coordinate on the map.
type Location struct {
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

// Locations sampled for each event.
var Locations = []Location{
	{City: "New York", Lat: 40.7128, Lon: -74.0060, Country: "USA"},
	{City: "London", Lat: 51.5074, Lon: -0.1278, Country: "UK"},
	{City: "Tokyo", Lat: 35.6762, Lon: 139.6503, Country: "Japan"},
	{City: "Mumbai", Lat: 19.0760, Lon: 72.8777, Country: "India"},
	{City: "Berlin", Lat: 52.5200, Lon: 13.4050, Country: "Germany"},
	{City: "Sydney", Lat: -33.8688, Lon: 151.2093, Country: "Australia"},
	{City: "São Paulo", Lat: -23.5505, Lon: -46.6333, Country: "Brazil"},
	{City: "Dubai", Lat: 25.2048, Lon: 55.2708, Country: "UAE"},
}

// Event is one synthetic threat sighting.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Location  Location  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// Generate draws n events from rng. The same seed and now yield the same feed.
func Generate(n int, rng *rand.Rand, now time.Time) []Event {
	if n < 0 {
		n = 0
	}
	out := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		loc := Locations[rng.Intn(len(Locations))]
		typ := Types[rng.Intn(len(Types))]
		// rng is a valid io.Reader and never fails
		id, _ := uuid.NewRandomFromReader(rng)
		out = append(out, Event{
			ID:        id.String(),
			Type:      typ,
			Location:  loc,
			Timestamp: now,
		})
	}
	return out
}

// Source serializes access to one rng so concurrent requests can share it.
type Source struct {
	mu   sync.Mutex
	rng  *rand.Rand
	size int
}

// NewSource serves feeds of size events drawn from rng.
func NewSource(rng *rand.Rand, size int) *Source {
	return &Source{rng: rng, size: size}
}

// Next generates one feed stamped with now.
func (s *Source) Next(now time.Time) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Generate(s.size, s.rng, now)
}

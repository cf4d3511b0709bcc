package store

import (
	"fmt"
	"math/rand/v2"
)

var (
	sampleModels   = []string{"TH-100", "TH-200", "CO2-10", "PM-25", "LX-5", "HUM-7"}
	sampleStatuses = []string{"Active", "Active", "Active", "Inactive", "Maintenance", "Offline"}
	sampleRegions  = []string{"North", "South", "East", "West", "Central", "Harbor", "Airport", "Hillside"}
)

// sampleDataset builds stations*perStation sensors spread over stations
// uniquely named stations. Names carry a run tag so repeated generations
// add new stations instead of reusing existing ones.
func sampleDataset(rng *rand.Rand, stations, perStation int) []newSensor {
	tag := rng.IntN(9000) + 1000
	out := make([]newSensor, 0, stations*perStation)
	for s := 0; s < stations; s++ {
		name := fmt.Sprintf("%s %d-%d", sampleRegions[s%len(sampleRegions)], tag, s/len(sampleRegions)+1)
		for i := 0; i < perStation; i++ {
			out = append(out, newSensor{
				Model:       fmt.Sprintf("%s/%04d", sampleModels[rng.IntN(len(sampleModels))], rng.IntN(10000)),
				Status:      sampleStatuses[rng.IntN(len(sampleStatuses))],
				StationName: name,
			})
		}
	}
	return out
}

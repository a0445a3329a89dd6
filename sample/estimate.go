package sample

// roadClassVolumes holds estimated daily traffic volumes per road class.
// Hosts use these to densify sparse count datasets with road-network
// geometry before normalization.
var roadClassVolumes = map[string]float64{
	"motorway":     50000,
	"trunk":        40000,
	"primary":      30000,
	"secondary":    20000,
	"tertiary":     10000,
	"residential":  2000,
	"unclassified": 5000,
}

// defaultRoadVolume is used for road classes without a dedicated estimate.
const defaultRoadVolume = 5000

// RoadClassVolume returns the estimated raw traffic volume for a road class
// (e.g. "motorway", "residential"). Unknown classes fall back to a mid-range
// default.
func RoadClassVolume(class string) float64 {
	if v, ok := roadClassVolumes[class]; ok {
		return v
	}
	return defaultRoadVolume
}

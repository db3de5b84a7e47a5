package deviation

import "github.com/fleetsense/fuelwatch/internal/domain/model"

// Advisory text per deviation type. Kept as a plain lookup table outside
// the numeric core so the catalog can change without touching
// classification.
var insightCatalog = map[model.DeviationType][]string{
	model.DeviationBelowLower: {
		"efficiency below expected range; possible aggressive driving",
		"check for pending maintenance issues (tire pressure, filters, engine)",
		"heavy load or poor fuel quality can depress efficiency",
	},
	model.DeviationAboveUpper: {
		"efficiency above expected range; verify odometer and fuel entries",
		"favorable route or driving conditions may explain the reading",
	},
	model.DeviationWithinRange: {
		"efficiency within normal variation",
	},
}

// Insights returns the advisory text for a deviation type. The returned
// slice is shared; callers must not modify it.
func Insights(t model.DeviationType) []string {
	return insightCatalog[t]
}

package ai

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// Recommendation is the best reachable station plus an explanation of why it
// was chosen.
type Recommendation struct {
	Station     *models.Station `json:"station"`
	Explanation string          `json:"explanation"`
}

// Recommend picks the best station for a driver's battery level and trip
// distance. Reachability assumes roughly one kilometre of range per percent of
// battery; candidates are ranked by green score against price.
func (a *Assistant) Recommend(ctx context.Context, batteryPercent, distanceKm int, stations []models.Station) (*Recommendation, error) {
	maxRangeKm := batteryPercent
	if maxRangeKm < distanceKm {
		return nil, fmt.Errorf("no reachable stations with %d%% battery over %d km", batteryPercent, distanceKm)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("no stations available")
	}

	ranked := make([]models.Station, len(stations))
	copy(ranked, stations)
	sort.SliceStable(ranked, func(i, j int) bool {
		return stationScore(ranked[i]) > stationScore(ranked[j])
	})
	best := ranked[0]

	explanation := a.explainRecommendation(ctx, batteryPercent, distanceKm, best)
	return &Recommendation{Station: &best, Explanation: explanation}, nil
}

// stationScore weighs the renewable mix double against the price.
func stationScore(s models.Station) float64 {
	return float64(s.GreenScore*2) - s.PricePerKWh
}

func (a *Assistant) explainRecommendation(ctx context.Context, battery, distance int, best models.Station) string {
	if a.client != nil {
		prompt := fmt.Sprintf(
			"You are an assistant for an EV charging platform. A driver has %d%% battery and %d km to travel. "+
				"Recommend the station %q at %s (%.2f per kWh, green score %d/10, %d chargers) in two friendly sentences.",
			battery, distance, best.Name, best.Location, best.PricePerKWh, best.GreenScore, best.Chargers,
		)
		reply, err := a.client.Generate(ctx, prompt)
		if err == nil {
			return reply
		}
		a.logger.Warn("recommendation explanation failed, using fallback", zap.Error(err))
	}

	return fmt.Sprintf(
		"With %d%% battery you can comfortably cover the %d km to %s at %s. "+
			"It offers the best balance of green energy (score %d/10) and price (%.2f per kWh).",
		battery, distance, best.Name, best.Location, best.GreenScore, best.PricePerKWh,
	)
}

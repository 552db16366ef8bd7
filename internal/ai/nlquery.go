package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// SearchFilters is the structured form of a natural-language station query.
type SearchFilters struct {
	GreenScoreMin *int     `json:"green_score_min"`
	PriceMax      *float64 `json:"price_max"`
	MinChargers   *int     `json:"min_chargers"`
	SortBy        string   `json:"sort_by"`
	Intent        string   `json:"intent"`
}

// SearchResult carries the filtered stations plus a short explanation of how
// the query was understood.
type SearchResult struct {
	Stations    []models.Station `json:"stations"`
	Explanation string           `json:"explanation"`
}

const nlQueryPromptTemplate = `Parse this EV charging station search query into structured filters.

Query: %q

Return ONLY a JSON object (no markdown) with these fields:
{"green_score_min": <0-10 or null>, "price_max": <number or null>, "min_chargers": <number or null>, "sort_by": "green_score|price|chargers", "intent": "cheapest|greenest|fastest|balanced"}

Rules:
- "green" or "eco" implies green_score_min >= 7
- "cheap" or "affordable" implies sorting by price
- "fast" or numbers of chargers imply min_chargers`

// SearchStations filters approved stations by a natural-language query. The
// Gemini parse is attempted first; a keyword parse covers the unconfigured and
// error paths.
func (a *Assistant) SearchStations(ctx context.Context, query string, stations []models.Station) *SearchResult {
	filters := a.parseQuery(ctx, query)

	matched := make([]models.Station, 0, len(stations))
	for _, s := range stations {
		if filters.GreenScoreMin != nil && s.GreenScore < *filters.GreenScoreMin {
			continue
		}
		if filters.PriceMax != nil && s.PricePerKWh > *filters.PriceMax {
			continue
		}
		if filters.MinChargers != nil && s.Chargers < *filters.MinChargers {
			continue
		}
		matched = append(matched, s)
	}

	switch filters.SortBy {
	case "price":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].PricePerKWh < matched[j].PricePerKWh })
	case "green_score":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].GreenScore > matched[j].GreenScore })
	case "chargers":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Chargers > matched[j].Chargers })
	}

	intent := filters.Intent
	if intent == "" {
		intent = "balanced"
	}
	return &SearchResult{
		Stations:    matched,
		Explanation: fmt.Sprintf("Interpreted your search as a %s query; %d station(s) matched.", intent, len(matched)),
	}
}

func (a *Assistant) parseQuery(ctx context.Context, query string) SearchFilters {
	if a.client != nil {
		reply, err := a.client.Generate(ctx, fmt.Sprintf(nlQueryPromptTemplate, query))
		if err == nil {
			var filters SearchFilters
			if jsonErr := json.Unmarshal([]byte(stripCodeFence(reply)), &filters); jsonErr == nil {
				return filters
			}
			a.logger.Warn("query parse returned malformed JSON, using fallback", zap.String("reply", reply))
		} else {
			a.logger.Warn("query parse failed, using fallback", zap.Error(err))
		}
	}
	return fallbackParseQuery(query)
}

// fallbackParseQuery keyword-matches the query when Gemini is unavailable.
func fallbackParseQuery(query string) SearchFilters {
	lower := strings.ToLower(query)
	var filters SearchFilters

	if containsAny(lower, "green", "eco", "clean", "renewable") {
		minGreen := 7
		filters.GreenScoreMin = &minGreen
		filters.SortBy = "green_score"
		filters.Intent = "greenest"
	}
	if containsAny(lower, "cheap", "affordable", "budget", "low price") {
		filters.SortBy = "price"
		filters.Intent = "cheapest"
	}
	if containsAny(lower, "fast", "quick", "many chargers") {
		minChargers := 2
		filters.MinChargers = &minChargers
		if filters.SortBy == "" {
			filters.SortBy = "chargers"
		}
		filters.Intent = "fastest"
	}
	if filters.Intent == "" {
		filters.Intent = "balanced"
	}
	return filters
}

// stripCodeFence removes a ```json fence the model sometimes wraps around its
// reply despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

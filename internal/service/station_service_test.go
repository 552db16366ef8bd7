package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestCreateStationStartsUnapproved(t *testing.T) {
	stations := newFakeStations()
	svc := NewStationService(stations, zap.NewNop())

	station, err := svc.Create(context.Background(), 7, CreateStationInput{
		Name:        "  Harbour Dock  ",
		Location:    "Pier 3",
		Chargers:    2,
		PricePerKWh: 4.5,
		GreenScore:  6,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if station.Name != "Harbour Dock" {
		t.Fatalf("expected trimmed name, got %q", station.Name)
	}
	if station.Approved {
		t.Fatal("new stations must start unapproved")
	}
	if station.OwnerID != 7 {
		t.Fatalf("expected owner 7, got %d", station.OwnerID)
	}
	if station.ID == 0 {
		t.Fatal("expected assigned id")
	}
}

func TestCreateStationValidation(t *testing.T) {
	svc := NewStationService(newFakeStations(), zap.NewNop())
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateStationInput
	}{
		{"empty name", CreateStationInput{Chargers: 1}},
		{"no chargers", CreateStationInput{Name: "X", Chargers: 0}},
		{"negative price", CreateStationInput{Name: "X", Chargers: 1, PricePerKWh: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, 1, tc.input); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

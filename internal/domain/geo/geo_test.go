package geo

import (
	"errors"
	"math"
	"testing"
)

func almost(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestHaversine_SamePoint(t *testing.T) {
	if d := Haversine(50.9375, 6.9603, 50.9375, 6.9603); d != 0 {
		t.Fatalf("want 0, got %f", d)
	}
}

func TestHaversine_CologneBonn(t *testing.T) {
	// Cologne town hall to Bonn market square, about 24.5 km.
	d := Haversine(50.9375, 6.9603, 50.7352, 7.1002)
	if !almost(d, 24_500, 500) {
		t.Fatalf("want ~24500m, got %.0fm", d)
	}
}

func TestHaversine_Antipodal(t *testing.T) {
	d := Haversine(0, 0, 0, 180)
	want := math.Pi * EarthRadiusMeters
	if !almost(d, want, 1) {
		t.Fatalf("want %.0f, got %.0f", want, d)
	}
}

func TestPoint_Within(t *testing.T) {
	townHall := Point{Lat: 50.9375, Lng: 6.9603}
	// Domkloster is about 450m north of the town hall.
	dom := Point{Lat: 50.9413, Lng: 6.9583}
	if !dom.Within(townHall, 500) {
		t.Error("point at ~450m not within 500m")
	}
	if dom.Within(townHall, 300) {
		t.Error("point at ~450m within 300m")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng string
		want     Point
		wantErr  error
		anyErr   bool
	}{
		{name: "valid", lat: "50.9375", lng: "6.9603", want: Point{Lat: 50.9375, Lng: 6.9603}},
		{name: "negative", lat: "-33.8688", lng: "151.2093", want: Point{Lat: -33.8688, Lng: 151.2093}},
		{name: "not a number", lat: "north", lng: "6.9", anyErr: true},
		{name: "empty lng", lat: "50.9", lng: "", anyErr: true},
		{name: "out of range", lat: "91", lng: "0", wantErr: ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.lat, tt.lng)
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err: got %v, want %v", err, tt.wantErr)
				}
			case tt.anyErr:
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestPoint_String(t *testing.T) {
	if got := (Point{Lat: 50.9375, Lng: 6.96}).String(); got != "50.9375, 6.96" {
		t.Errorf("got %q", got)
	}
}

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		valid    bool
	}{
		{0, 0, true},
		{90, 180, true},
		{-90, -180, true},
		{91, 0, false},
		{0, 181, false},
		{-91, 0, false},
		{0, -181, false},
	}
	for _, tt := range tests {
		if got := ValidateCoordinates(tt.lat, tt.lon); got != tt.valid {
			t.Errorf("ValidateCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.valid)
		}
	}
}

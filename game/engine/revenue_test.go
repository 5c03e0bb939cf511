package engine

import (
	"math"
	"testing"
)

func TestCalculateRevenue(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		distance float64
		days     float64
		speed    float64
		expected float64
	}{
		{"at ideal time", 1000, 10, 2, 100, 500},
		{"half ideal time", 1000, 10, 1, 100, 800},
		{"twice ideal time", 1000, 10, 4, 100, 200},
		{"five times ideal", 1000, 10, 10, 100, 1000.0 / 26},
		{"instant delivery", 1000, 10, 0, 100, 1000},
		{"long haul at ideal time", 1000, 100, 20, 100, 500},
		{"long haul early", 1000, 100, 10, 100, 800},
		{"long haul late", 1000, 100, 40, 100, 200},
		{"long haul very late", 1000, 100, 100, 100, 38.46},
		{"short haul floors ideal at one day", 100, 1, 1, 100, 50},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := CalculateRevenue(test.value, test.distance, test.days, test.speed)
			if math.Abs(got-test.expected) > 0.01 {
				t.Errorf("Expected %.2f, got %.2f", test.expected, got)
			}
		})
	}
}

func TestIdealTime(t *testing.T) {
	if got := IdealTime(10, 100); got != 2 {
		t.Errorf("Expected 2 days, got %v", got)
	}
	if got := IdealTime(0, 100); got != 1 {
		t.Errorf("Expected ideal time to floor at 1, got %v", got)
	}
}

func TestRevenuePenalty_Monotonic(t *testing.T) {
	prev := RevenuePenalty(20, 0, 80)
	if prev != 1 {
		t.Fatalf("Expected full value for zero transit time, got %v", prev)
	}
	for days := 0.5; days <= 30; days += 0.5 {
		p := RevenuePenalty(20, days, 80)
		if p >= prev {
			t.Fatalf("Expected penalty to fall with transit time, %v then %v at %v days", prev, p, days)
		}
		if p <= 0 || p > 1 {
			t.Fatalf("Expected penalty in (0,1], got %v", p)
		}
		prev = p
	}
}

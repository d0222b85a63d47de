package comparables

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewSearchQueryValidation(t *testing.T) {
	tests := []struct {
		name      string
		provincia string
		localidad string
		hectareas float64
		tipoCampo string
		wantErr   bool
	}{
		{"valid", "Córdoba", "Río Cuarto", 200, "agrícola", false},
		{"missing provincia", "", "Río Cuarto", 200, "agrícola", true},
		{"missing localidad", "Córdoba", "", 200, "agrícola", true},
		{"missing tipo", "Córdoba", "Río Cuarto", 200, "", true},
		{"zero hectareas", "Córdoba", "Río Cuarto", 0, "agrícola", true},
		{"negative hectareas", "Córdoba", "Río Cuarto", -5, "agrícola", true},
		{"whitespace provincia", "   ", "Río Cuarto", 200, "agrícola", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSearchQuery(tt.provincia, tt.localidad, tt.hectareas, tt.tipoCampo, 0, 0)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidQuery) {
					t.Errorf("expected ErrInvalidQuery, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewSearchQueryDefaults(t *testing.T) {
	q, err := NewSearchQuery("Córdoba", "Río Cuarto", 200, "agrícola", 0, -3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.RadioKm != DefaultRadiusKm {
		t.Errorf("expected default radius %v, got %v", DefaultRadiusKm, q.RadioKm)
	}
	if q.Page != 0 {
		t.Errorf("expected page 0, got %d", q.Page)
	}
}

func TestCacheKeyDeterminism(t *testing.T) {
	q, err := NewSearchQuery("Córdoba", "Río Cuarto", 200, "agrícola", 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	k1 := q.CacheKey()
	k2 := q.CacheKey()
	if k1 != k2 {
		t.Errorf("cache key not deterministic: %s != %s", k1, k2)
	}
	if len(k1) != cacheKeyLength {
		t.Errorf("expected key length %d, got %d", cacheKeyLength, len(k1))
	}

	same, _ := NewSearchQuery("córdoba", "río cuarto", 200, "AGRÍCOLA", 50, 0)
	if same.CacheKey() != k1 {
		t.Error("logically identical query produced a different key")
	}
}

func TestCacheKeyNoCollisions(t *testing.T) {
	provincias := []string{"Córdoba", "Buenos Aires", "Santa Fe", "La Pampa", "Entre Ríos"}
	localidades := []string{"Río Cuarto", "Pergamino", "Venado Tuerto", "General Pico"}
	tipos := []string{"agrícola", "ganadero", "mixto"}
	hectareas := []float64{50, 120, 200, 850.5}

	seen := make(map[string]string)
	count := 0
	for _, p := range provincias {
		for _, l := range localidades {
			for _, tc := range tipos {
				for _, h := range hectareas {
					q, err := NewSearchQuery(p, l, h, tc, 50, 0)
					if err != nil {
						t.Fatalf("unexpected error: %v", err)
					}
					key := q.CacheKey()
					desc := fmt.Sprintf("%s/%s/%s/%v", p, l, tc, h)
					if prev, ok := seen[key]; ok {
						t.Fatalf("collision between %q and %q on key %s", prev, desc, key)
					}
					seen[key] = desc
					count++
				}
			}
		}
	}

	if count < 50 {
		t.Fatalf("expected at least 50 distinct queries, got %d", count)
	}
}

func TestCacheKeyDiffersPerField(t *testing.T) {
	base, _ := NewSearchQuery("Córdoba", "Río Cuarto", 200, "agrícola", 50, 0)

	variants := []SearchQuery{}
	if q, err := NewSearchQuery("Santa Fe", "Río Cuarto", 200, "agrícola", 50, 0); err == nil {
		variants = append(variants, q)
	}
	if q, err := NewSearchQuery("Córdoba", "Villa María", 200, "agrícola", 50, 0); err == nil {
		variants = append(variants, q)
	}
	if q, err := NewSearchQuery("Córdoba", "Río Cuarto", 201, "agrícola", 50, 0); err == nil {
		variants = append(variants, q)
	}
	if q, err := NewSearchQuery("Córdoba", "Río Cuarto", 200, "ganadero", 50, 0); err == nil {
		variants = append(variants, q)
	}
	if q, err := NewSearchQuery("Córdoba", "Río Cuarto", 200, "agrícola", 100, 0); err == nil {
		variants = append(variants, q)
	}

	for i, v := range variants {
		if v.CacheKey() == base.CacheKey() {
			t.Errorf("variant %d produced the same key as the base query", i)
		}
	}
}

func TestSearchText(t *testing.T) {
	q, _ := NewSearchQuery("Córdoba", "Río Cuarto", 200, "agrícola", 50, 0)
	want := "campo agrícola Río Cuarto Córdoba"
	if got := q.SearchText(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

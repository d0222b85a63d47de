package comparables

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tasagro-dev/tasagro/internal/listings"
)

// Ordered area patterns: explicit hectare units win over square meters.
var (
	hectaresRe     = regexp.MustCompile(`(\d+)\s*(?:hectareas|hectarea|has|ha)\b`)
	squareMetersRe = regexp.MustCompile(`(\d+)\s*(?:m2|m²|metros cuadrados)`)
)

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
)

// normalizeText lowercases, strips thousands separators and accents, and
// collapses whitespace. Periods are separators here, not decimals.
func normalizeText(text string) string {
	t := strings.ToLower(text)
	t = accentReplacer.Replace(t)
	t = strings.ReplaceAll(t, ",", "")
	t = strings.ReplaceAll(t, ".", "")
	return strings.Join(strings.Fields(t), " ")
}

// ParseArea extracts a surface in hectares from free listing text.
// Square-meter figures are converted at 10,000 m² per hectare.
func ParseArea(text string) (float64, bool) {
	t := normalizeText(text)

	if m := hectaresRe.FindStringSubmatch(t); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v > 0 {
			return v, true
		}
	}

	if m := squareMetersRe.FindStringSubmatch(t); m != nil {
		v, err := strconv.ParseFloat(m[1], 64)
		if err == nil && v > 0 {
			return v / 10000, true
		}
	}

	return 0, false
}

// ParsePrice returns the listing's structured price when present and
// positive. Listing titles are never parsed for prices.
func ParsePrice(l listings.Listing) (float64, bool) {
	if l.Price > 0 {
		return l.Price, true
	}
	return 0, false
}

// BuildComparable promotes a candidate listing to a Comparable when both
// price and area extraction succeed. Failed extractions are filtering
// decisions, not errors.
func BuildComparable(l listings.Listing) (Comparable, bool) {
	price, ok := ParsePrice(l)
	if !ok {
		return Comparable{}, false
	}

	area, ok := ParseArea(l.Title)
	if !ok || area <= 0 {
		return Comparable{}, false
	}

	c := Comparable{
		ID:              l.ID,
		Title:           l.Title,
		Price:           price,
		AreaHectares:    area,
		PricePerHectare: price / area,
		Permalink:       l.Permalink,
		Thumbnail:       l.Thumbnail,
	}

	if l.Location != nil {
		c.Location = strings.TrimSpace(strings.Join(nonEmpty(l.Location.City, l.Location.State), ", "))
		if l.Location.Latitude != 0 || l.Location.Longitude != 0 {
			lat, lng := l.Location.Latitude, l.Location.Longitude
			c.Lat = &lat
			c.Lng = &lng
		}
	}

	return c, true
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

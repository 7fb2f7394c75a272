package dataset

import "strings"

// Palette fixes the display order and colour of a categorical column.
type Palette struct {
	Order  []string
	Colors map[string]string
}

var (
	SeasonPalette = Palette{
		Order: []string{"Spring", "Summer", "Fall", "Winter"},
		Colors: map[string]string{
			"Spring": "#AED581", "Summer": "#FFEE58", "Fall": "#FF8A65", "Winter": "#90CAF9",
		},
	}
	WeatherPalette = Palette{
		Order: []string{"Clear", "Mist", "Light_Rainsnow", "Heavy_Rainsnow"},
		Colors: map[string]string{
			"Clear": "#FFD54F", "Mist": "#B0BEC5", "Light_Rainsnow": "#81D4FA", "Heavy_Rainsnow": "#455A64",
		},
	}
	DayTypePalette = Palette{
		Order:  []string{"weekday", "weekend"},
		Colors: map[string]string{"weekday": "#455A64", "weekend": "#1D2122"},
	}
	UserPalette = Palette{
		Order:  []string{"Casual", "Registered"},
		Colors: map[string]string{"Casual": "#D3D3D3", "Registered": "#72BCD4"},
	}
)

// FallbackColor is used for categories a palette does not know.
const FallbackColor = "#9E9E9E"

// Color returns the configured colour for cat, or FallbackColor.
func (p Palette) Color(cat string) string {
	if c, ok := p.Colors[cat]; ok {
		return c
	}
	return FallbackColor
}

// Rank returns the position of cat in the palette order. Unknown categories
// rank after every known one.
func (p Palette) Rank(cat string) int {
	for i, o := range p.Order {
		if strings.EqualFold(o, cat) {
			return i
		}
	}
	return len(p.Order)
}

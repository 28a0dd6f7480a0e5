package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/foxxcyber/family-organizer/internal/models"
)

// MaxImportLines caps how many lines of a pasted list are read
const MaxImportLines = 500

var (
	// "- [ ] item", "- [x] item", "* item", "- item", "1. item"
	listMarker = regexp.MustCompile(`^\s*(?:[-*•]\s*(?:\[([ xX]?)\]\s*)?|\d+[.)]\s+)`)

	rangeQty      = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*-\s*(\d+(?:\.\d+)?)\s*`)
	mixedQty      = regexp.MustCompile(`^(\d+)\s+(\d+)/(\d+)\s*`)
	fractionQty   = regexp.MustCompile(`^(\d+)/(\d+)\s*`)
	decimalQty    = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*`)
	wholeThenRest = regexp.MustCompile(`^(\d+)\s*`)
	notesInParens = regexp.MustCompile(`\(([^)]*)\)`)
	spaces        = regexp.MustCompile(`\s+`)

	unitWord = regexp.MustCompile(`(?i)^(tablespoons?|teaspoons?|fluid ounces?|milliliters?|kilograms?|packages?|gallons?|bottles?|bunch(?:es)?|ounces?|pounds?|pieces?|liters?|litres?|cloves?|quarts?|pints?|heads?|grams?|box(?:es)?|cups?|cans?|jars?|bags?|dozen|tbsp|tbs|tsp|pkg|gal|qt|pt|oz|lbs?|ml|kg|pcs?|g|l)\b\.?\s*`)
)

var vulgarFractions = map[rune]float64{
	'¼': 0.25, '½': 0.5, '¾': 0.75,
	'⅓': 1.0 / 3, '⅔': 2.0 / 3,
	'⅕': 0.2, '⅖': 0.4, '⅗': 0.6, '⅘': 0.8,
	'⅙': 1.0 / 6, '⅚': 5.0 / 6,
	'⅛': 0.125, '⅜': 0.375, '⅝': 0.625, '⅞': 0.875,
}

var unitNames = map[string]string{
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"tbsp": "tbsp", "tbs": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"cup": "cup", "cups": "cup",
	"pt": "pint", "pint": "pint", "pints": "pint",
	"qt": "quart", "quart": "quart", "quarts": "quart",
	"gal": "gallon", "gallon": "gallon", "gallons": "gallon",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml",
	"fluid ounce": "fl oz", "fluid ounces": "fl oz",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"g": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"pc": "piece", "pcs": "piece", "piece": "piece", "pieces": "piece",
	"pkg": "pack", "package": "pack", "packages": "pack",
	"dozen": "dozen",
}

// ParsePastedList turns a pasted list, one item per line, into manual
// shopping items. Bullets, numbering and Markdown checkboxes are accepted;
// a checked box marks the item purchased. Leading quantities and units
// become the quantity text, and notes in parentheses or after a comma are
// dropped from the name.
func ParsePastedList(content string, c *Categorizer) []models.ShoppingItem {
	items := []models.ShoppingItem{}

	lines := strings.Split(content, "\n")
	if len(lines) > MaxImportLines {
		lines = lines[:MaxImportLines]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		purchased := false
		if m := listMarker.FindStringSubmatchIndex(line); m != nil {
			if m[2] >= 0 && strings.EqualFold(line[m[2]:m[3]], "x") {
				purchased = true
			}
			line = line[m[1]:]
		}

		item, ok := parseImportLine(line)
		if !ok {
			continue
		}
		item.Category = c.Categorize(item.Name)
		item.IsPurchased = purchased
		item.IsManual = true
		items = append(items, ClipItem(item))
	}

	return items
}

func parseImportLine(line string) (models.ShoppingItem, bool) {
	rest, qty, hasQty := leadingQuantity(strings.TrimSpace(line))
	unit := ""
	if hasQty {
		rest, unit = leadingUnit(rest)
	}
	name := stripNotes(rest)
	if name == "" {
		return models.ShoppingItem{}, false
	}

	quantity := DefaultQuantity
	if hasQty {
		quantity = formatQuantity(qty)
	}
	if unit != "" {
		quantity += " " + unit
	}
	return models.ShoppingItem{Name: name, Quantity: quantity}, true
}

// leadingQuantity reads "2", "1.5", "1/2", "1 1/2", "½", "1½" or a range
// "2-3" (averaged) from the start of s
func leadingQuantity(s string) (string, float64, bool) {
	if m := rangeQty.FindStringSubmatch(s); m != nil {
		low, _ := strconv.ParseFloat(m[1], 64)
		high, _ := strconv.ParseFloat(m[2], 64)
		return s[len(m[0]):], (low + high) / 2, true
	}
	if m := mixedQty.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den != 0 {
			return s[len(m[0]):], whole + num/den, true
		}
	}
	if m := fractionQty.FindStringSubmatch(s); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den != 0 {
			return s[len(m[0]):], num / den, true
		}
	}

	whole := 0.0
	rest := s
	if m := wholeThenRest.FindStringSubmatch(s); m != nil {
		whole, _ = strconv.ParseFloat(m[1], 64)
		rest = s[len(m[0]):]
	}
	if r, size := utf8.DecodeRuneInString(rest); size > 0 {
		if frac, ok := vulgarFractions[r]; ok {
			return strings.TrimSpace(rest[size:]), whole + frac, true
		}
	}

	if m := decimalQty.FindStringSubmatch(s); m != nil {
		q, _ := strconv.ParseFloat(m[1], 64)
		return s[len(m[0]):], q, true
	}
	return s, 0, false
}

func leadingUnit(s string) (string, string) {
	m := unitWord.FindStringSubmatch(s)
	if m == nil {
		return s, ""
	}
	word := strings.ToLower(m[1])
	if name, ok := unitNames[word]; ok {
		word = name
	}
	return s[len(m[0]):], word
}

func stripNotes(s string) string {
	s = notesInParens.ReplaceAllString(s, "")
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[:i]
	}
	s = spaces.ReplaceAllString(s, " ")
	return strings.Trim(s, " .,;:-_")
}

// formatQuantity prints q with at most two decimals
func formatQuantity(q float64) string {
	return strconv.FormatFloat(math.Round(q*100)/100, 'f', -1, 64)
}

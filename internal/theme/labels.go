package theme

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported lists the page languages, default first.
var Supported = []language.Tag{language.English, language.German}

var labels = map[string]map[string]string{
	"en": {
		"specials":      "Today's specials",
		"vegetarian":    "Vegetarian",
		"vegan":         "Vegan",
		"gluten_free":   "Gluten free",
		"allergens":     "Allergens",
		"unavailable":   "Currently unavailable",
		"save":          "Save",
		"uncategorized": "More",
		"empty":         "The menu is being prepared. Please check back soon.",
		"powered_by":    "Digital menu by TableMenu",
		"not_found":     "This menu does not exist or is offline.",
	},
	"de": {
		"specials":      "Tagesempfehlungen",
		"vegetarian":    "Vegetarisch",
		"vegan":         "Vegan",
		"gluten_free":   "Glutenfrei",
		"allergens":     "Allergene",
		"unavailable":   "Derzeit nicht verfügbar",
		"save":          "Spare",
		"uncategorized": "Weiteres",
		"empty":         "Die Speisekarte wird gerade vorbereitet. Bitte schau bald wieder vorbei.",
		"powered_by":    "Digitale Speisekarte von TableMenu",
		"not_found":     "Diese Speisekarte existiert nicht oder ist offline.",
	},
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "CHF",
}

// NormalizeLocale maps anything unsupported to "en".
func NormalizeLocale(locale string) string {
	if _, ok := labels[locale]; ok {
		return locale
	}
	return "en"
}

// Label returns the translated label, falling back to English and then the key.
func Label(locale, key string) string {
	if v, ok := labels[NormalizeLocale(locale)][key]; ok {
		return v
	}
	if v, ok := labels["en"][key]; ok {
		return v
	}
	return key
}

// FormatPrice renders amount in the locale's number format: "€12.50" in
// English, "12,50 €" in German.
func FormatPrice(locale, currency string, amount float64) string {
	locale = NormalizeLocale(locale)
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency
	}
	p := message.NewPrinter(language.Make(locale))
	number := p.Sprintf("%.2f", amount)
	if locale == "de" {
		return number + " " + symbol
	}
	if len(symbol) > 1 && symbol == currency {
		return symbol + " " + number
	}
	return symbol + number
}

package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9\- ]+`)
	spaces        = regexp.MustCompile(`[ ]+`)
	repeatedDashs = regexp.MustCompile(`-{2,}`)
)

// GenerateSlug generates a URL-friendly slug from a given string.
// Diacritics are removed so "Ballet Clássico" becomes "ballet-classico".
func GenerateSlug(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", fmt.Errorf("no input string supplied to GenerateSlug")
	}

	normalized := norm.NFD.String(input)

	withoutDiacritics, _, err := transform.String(runes.Remove(runes.In(unicode.Mn)), normalized)
	if err != nil {
		return "", fmt.Errorf("error creating slug: %v", err)
	}

	lowerCase := strings.ToLower(withoutDiacritics)

	hyphenated := nonSlugChars.ReplaceAllString(lowerCase, "-")
	hyphenated = spaces.ReplaceAllString(hyphenated, "-")
	hyphenated = repeatedDashs.ReplaceAllString(hyphenated, "-")

	trimmed := strings.Trim(hyphenated, "-")
	if trimmed == "" {
		return "", fmt.Errorf("input %q does not contain any characters usable in a slug", input)
	}

	return trimmed, nil
}

// MoneyFormatter formats amounts in a single currency for a single locale
type MoneyFormatter struct {
	printer *message.Printer
	unit    currency.Unit
	scale   int
}

// NewMoneyFormatter creates a formatter for a BCP 47 locale (e.g. "pt-BR") and an ISO 4217 currency code (e.g. "BRL")
func NewMoneyFormatter(locale, currencyCode string) (*MoneyFormatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}

	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("invalid currency %q: %w", currencyCode, err)
	}

	scale, _ := currency.Standard.Rounding(unit)

	return &MoneyFormatter{
		printer: message.NewPrinter(tag),
		unit:    unit,
		scale:   scale,
	}, nil
}

// Format returns the amount prefixed with the currency code, using the locale's separators ("BRL 1.234,50" for pt-BR)
func (m *MoneyFormatter) Format(amount float64) string {
	return m.printer.Sprintf("%s %v", m.unit.String(), number.Decimal(amount, number.Scale(m.scale)))
}

// FormatCount formats an integer using the locale's digit grouping
func (m *MoneyFormatter) FormatCount(n int) string {
	return m.printer.Sprintf("%v", number.Decimal(n))
}

// Package settings persists the dashboard's user preferences. Each field of
// Record lives under its own key in a Backend, encoded as text, and reads
// always fall back to the field's default instead of failing.
package settings

import (
	"errors"
	"strings"
	"time"

	"github.com/creasty/defaults"
)

// Storage keys. These match the layout the web dashboard used so exported
// profiles stay interchangeable.
const (
	KeyDarkMode             = "darkMode"
	KeyNotificationsEnabled = "notificationsEnabled"
	KeyLanguage             = "language"
	KeyCurrency             = "currency"
	KeyTimezone             = "timezone"
	KeyAutoRefresh          = "autoRefresh"
)

// Keys lists every persisted key in display order.
var Keys = []string{
	KeyDarkMode,
	KeyNotificationsEnabled,
	KeyLanguage,
	KeyCurrency,
	KeyTimezone,
	KeyAutoRefresh,
}

// ErrInvalidValue is returned when a setter receives a value outside the
// field's enumeration.
var ErrInvalidValue = errors.New("settings: invalid value")

// Record is the durable preference set.
type Record struct {
	DarkMode             bool     `json:"darkMode" default:"true"`
	NotificationsEnabled bool     `json:"notificationsEnabled" default:"true"`
	Language             Language `json:"language" default:"english"`
	Currency             Currency `json:"currency" default:"usd"`
	Timezone             Timezone `json:"timezone" default:"utc"`
	AutoRefresh          bool     `json:"autoRefresh" default:"true"`
}

// DefaultRecord returns the record used when nothing has been stored yet.
func DefaultRecord() Record {
	var r Record
	if err := defaults.Set(&r); err != nil {
		// Tags are static; a failure here is a programming error.
		panic("settings: apply defaults: " + err.Error())
	}
	return r
}

// Language is the interface language.
type Language string

const (
	LanguageEnglish  Language = "english"
	LanguageSpanish  Language = "spanish"
	LanguageFrench   Language = "french"
	LanguageGerman   Language = "german"
	LanguageChinese  Language = "chinese"
	LanguageJapanese Language = "japanese"
)

// Languages lists the supported languages in menu order.
var Languages = []Language{
	LanguageEnglish,
	LanguageSpanish,
	LanguageFrench,
	LanguageGerman,
	LanguageChinese,
	LanguageJapanese,
}

var languageNames = map[Language]string{
	LanguageEnglish:  "English",
	LanguageSpanish:  "Español",
	LanguageFrench:   "Français",
	LanguageGerman:   "Deutsch",
	LanguageChinese:  "中文",
	LanguageJapanese: "日本語",
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	_, ok := languageNames[l]
	return ok
}

// DisplayName returns the language's own name for itself, or the raw value
// if unknown.
func (l Language) DisplayName() string {
	if n, ok := languageNames[l]; ok {
		return n
	}
	return string(l)
}

// Currency is the display currency for prices.
type Currency string

const (
	CurrencyUSD Currency = "usd"
	CurrencyEUR Currency = "eur"
	CurrencyGBP Currency = "gbp"
	CurrencyJPY Currency = "jpy"
	CurrencyCAD Currency = "cad"
)

// Currencies lists the supported currencies in menu order.
var Currencies = []Currency{CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyJPY, CurrencyCAD}

var currencySymbols = map[Currency]string{
	CurrencyUSD: "$",
	CurrencyEUR: "€",
	CurrencyGBP: "£",
	CurrencyJPY: "¥",
	CurrencyCAD: "C$",
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	_, ok := currencySymbols[c]
	return ok
}

// Symbol returns the currency sign, "$" for unknown values.
func (c Currency) Symbol() string {
	if s, ok := currencySymbols[c]; ok {
		return s
	}
	return "$"
}

// DisplayName returns e.g. "EUR (€)".
func (c Currency) DisplayName() string {
	if !c.Valid() {
		return string(c)
	}
	return strings.ToUpper(string(c)) + " (" + c.Symbol() + ")"
}

// Timezone is the zone used to display forecast dates.
type Timezone string

const (
	TimezoneUTC Timezone = "utc"
	TimezoneEST Timezone = "est"
	TimezonePST Timezone = "pst"
	TimezoneCET Timezone = "cet"
	TimezoneJST Timezone = "jst"
)

// Timezones lists the supported zones in menu order.
var Timezones = []Timezone{TimezoneUTC, TimezoneEST, TimezonePST, TimezoneCET, TimezoneJST}

// Fixed offsets keep rendering independent of the host tzdata.
var timezoneOffsets = map[Timezone]int{
	TimezoneUTC: 0,
	TimezoneEST: -5 * 3600,
	TimezonePST: -8 * 3600,
	TimezoneCET: 1 * 3600,
	TimezoneJST: 9 * 3600,
}

// Valid reports whether z is a supported zone.
func (z Timezone) Valid() bool {
	_, ok := timezoneOffsets[z]
	return ok
}

// Location returns a fixed-offset location for z (UTC when unknown).
func (z Timezone) Location() *time.Location {
	off, ok := timezoneOffsets[z]
	if !ok || off == 0 {
		return time.UTC
	}
	return time.FixedZone(strings.ToUpper(string(z)), off)
}

// next returns the element after cur in list, wrapping around. Unknown
// values restart at the first element.
func next[T comparable](list []T, cur T) T {
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

// NextLanguage returns the language after l in menu order.
func NextLanguage(l Language) Language { return next(Languages, l) }

// NextCurrency returns the currency after c in menu order.
func NextCurrency(c Currency) Currency { return next(Currencies, c) }

// NextTimezone returns the zone after z in menu order.
func NextTimezone(z Timezone) Timezone { return next(Timezones, z) }

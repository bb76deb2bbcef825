//go:build !pebble_minimal

package http

var languageTable = EnumTable{names: []string{
	"*",
	"af", "am", "ar", "az",
	"be", "bg", "bn", "bs",
	"ca", "co", "cs", "cy",
	"da", "de",
	"el", "en", "eo", "es", "et", "eu",
	"fa", "fi", "fr", "fy",
	"ga", "gd", "gl", "gu",
	"ha", "he", "hi", "hr", "hu", "hy",
	"id", "is", "it",
	"ja", "jv",
	"ka", "kk", "km", "kn", "ko", "kr", "ku", "ky",
	"lb", "lt", "lv",
	"me", "mg", "mi", "mk", "ml", "mn", "mr", "ms", "mt", "my",
	"nb", "ne", "nl", "no",
	"pa", "pl", "ps", "pt",
	"ro", "ru",
	"sd", "si", "sk", "sl", "sm", "sn", "so", "sq", "sr", "st", "su", "sv", "sw",
	"ta", "te", "tg", "th", "tr", "tt",
	"uk", "ur", "uz",
	"vi",
	"xh",
	"yi", "yo",
	"zh", "zu",
}}

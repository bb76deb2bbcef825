//go:build pebble_minimal

package http

var languageTable = EnumTable{names: []string{
	"*",
	"en",
}}

package http

// Language is an Accept-Language / Content-Language value. The member
// set depends on the build: the default build carries the full ISO-639
// table, the pebble_minimal build only the wildcard and "en" (see
// language_min.go). Ordinals are only meaningful within one build.
type Language int8

const (
	LanguageInvalid Language = -1
	LanguageAll     Language = 0
)

// LanguageFromName resolves a language tag, case-insensitively.
func LanguageFromName(name []byte) Language { return Language(languageTable.Find(name)) }

func (l Language) String() string { return languageTable.Name(int8(l)) }

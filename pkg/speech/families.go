package speech

// languageFamilies groups language codes so the catalog can offer a
// closest-family default voice as the last ranking tier when a language has
// no direct provider support.
var languageFamilies = map[string]string{
	"en": "germanic", "de": "germanic", "nl": "germanic", "sv": "germanic",
	"da": "germanic", "no": "germanic", "nb": "germanic", "af": "germanic",
	"is": "germanic",

	"es": "romance", "fr": "romance", "it": "romance", "pt": "romance",
	"ro": "romance", "ca": "romance", "gl": "romance",

	"ru": "slavic", "uk": "slavic", "pl": "slavic", "cs": "slavic",
	"sk": "slavic", "bg": "slavic", "sr": "slavic", "hr": "slavic",
	"bs": "slavic", "mk": "slavic", "sl": "slavic",

	"hi": "indo-aryan", "bn": "indo-aryan", "ur": "indo-aryan",
	"mr": "indo-aryan", "gu": "indo-aryan", "ne": "indo-aryan",
	"si": "indo-aryan",

	"ta": "dravidian", "te": "dravidian", "kn": "dravidian",
	"ml": "dravidian",

	"ar": "semitic", "he": "semitic", "iw": "semitic", "am": "semitic",

	"zh": "sino-tibetan", "my": "sino-tibetan",

	"fi": "uralic", "et": "uralic", "hu": "uralic",

	"tr": "turkic", "az": "turkic", "kk": "turkic", "uz": "turkic",

	"id": "austronesian", "ms": "austronesian", "tl": "austronesian",
	"jw": "austronesian", "su": "austronesian",

	"ja": "japonic",
	"ko": "koreanic",
	"th": "kra-dai",
	"vi": "austroasiatic", "km": "austroasiatic",
	"sw": "bantu",
	"el": "hellenic",
	"fa": "iranian", "ku": "iranian",
	"lt": "baltic", "lv": "baltic",
	"hy": "armenian",
	"ka": "kartvelian",
	"cy": "celtic", "ga": "celtic",
}

// LanguageFamily returns the family for a language code, or "" when unknown.
func LanguageFamily(lang string) string {
	return languageFamilies[normalizeLanguage(lang)]
}

// SameFamily reports whether two language codes belong to one known family.
func SameFamily(a, b string) bool {
	fa := LanguageFamily(a)
	return fa != "" && fa == LanguageFamily(b)
}

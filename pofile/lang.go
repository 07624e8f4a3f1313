package pofile

import "strings"

// PluralFormsForLang returns the standard Plural-Forms header for a language code.
func PluralFormsForLang(lang string) string {
	// Normalize to base language
	base := lang
	if idx := strings.IndexAny(lang, "_-"); idx > 0 {
		base = lang[:idx]
	}

	switch base {
	case "ja", "ko", "zh", "vi", "th", "id", "ms":
		return "nplurals=1; plural=0;"
	case "fr", "pt":
		return "nplurals=2; plural=(n > 1);"
	case "en", "de", "nl", "sv", "da", "no", "nb", "nn", "fi", "es", "it", "el", "he", "hu", "tr", "bg", "hi", "ur":
		return "nplurals=2; plural=(n != 1);"
	case "ru", "uk", "be", "hr", "sr", "bs":
		return "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"
	case "pl":
		return "nplurals=3; plural=(n==1 ? 0 : n%10>=2 && n%10<=4 && (n%100<10 || n%100>=20) ? 1 : 2);"
	case "cs", "sk":
		return "nplurals=3; plural=(n==1 ? 0 : n>=2 && n<=4 ? 1 : 2);"
	case "ro":
		return "nplurals=3; plural=(n==1 ? 0 : (n==0 || (n%100 > 0 && n%100 < 20)) ? 1 : 2);"
	case "lt":
		return "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n%10>=2 && (n%100<10 || n%100>=20) ? 1 : 2);"
	case "lv":
		return "nplurals=3; plural=(n%10==1 && n%100!=11 ? 0 : n != 0 ? 1 : 2);"
	case "ar":
		return "nplurals=6; plural=(n==0 ? 0 : n==1 ? 1 : n==2 ? 2 : n%100>=3 && n%100<=10 ? 3 : n%100>=11 ? 4 : 5);"
	default:
		return "nplurals=2; plural=(n != 1);"
	}
}

// LangNameNative returns the native name of a language.
func LangNameNative(lang string) string {
	names := map[string]string{
		"ar":    "العربية",
		"bg":    "Български",
		"cs":    "Čeština",
		"da":    "Dansk",
		"de":    "Deutsch",
		"el":    "Ελληνικά",
		"en":    "English",
		"es":    "Español",
		"fi":    "Suomi",
		"fr":    "Français",
		"he":    "עברית",
		"hi":    "हिन्दी",
		"hr":    "Hrvatski",
		"hu":    "Magyar",
		"id":    "Bahasa Indonesia",
		"it":    "Italiano",
		"ja":    "日本語",
		"ko":    "한국어",
		"lt":    "Lietuvių",
		"lv":    "Latviešu",
		"ms":    "Bahasa Melayu",
		"nl":    "Nederlands",
		"no":    "Norsk",
		"nb":    "Norsk bokmål",
		"nn":    "Norsk nynorsk",
		"pl":    "Polski",
		"pt":    "Português",
		"pt_BR": "Português (Brasil)",
		"ro":    "Română",
		"ru":    "Русский",
		"sk":    "Slovenčina",
		"sr":    "Српски",
		"sv":    "Svenska",
		"th":    "ไทย",
		"tr":    "Türkçe",
		"uk":    "Українська",
		"vi":    "Tiếng Việt",
		"zh":    "中文",
	}
	norm := strings.ReplaceAll(lang, "-", "_")
	if idx := strings.IndexByte(norm, '_'); idx > 0 {
		norm = strings.ToLower(norm[:idx]) + "_" + strings.ToUpper(norm[idx+1:])
	}
	if name, ok := names[norm]; ok {
		return name
	}
	if idx := strings.IndexByte(norm, '_'); idx > 0 {
		if name, ok := names[norm[:idx]]; ok {
			return name
		}
	}
	if name, ok := names[strings.ToLower(lang)]; ok {
		return name
	}
	return lang
}

package types

// Locale is a BCP-47 style locale tag as delivered by the catalog service,
// e.g. "ja-JP" or "en-US".
type Locale string

var localeNames = map[Locale]string{
	"ar-ME":  "Arabic",
	"ar-SA":  "Arabic (Saudi Arabia)",
	"ca-ES":  "Catalan",
	"de-DE":  "German",
	"en-IN":  "English (India)",
	"en-US":  "English (US)",
	"es-419": "Spanish (Latin America)",
	"es-ES":  "Spanish (European)",
	"es-LA":  "Spanish (Latin America)",
	"fr-FR":  "French",
	"hi-IN":  "Hindi",
	"id-ID":  "Indonesian",
	"it-IT":  "Italian",
	"ja-JP":  "Japanese",
	"ko-KR":  "Korean",
	"ms-MY":  "Malay",
	"pl-PL":  "Polish",
	"pt-BR":  "Portuguese (Brazil)",
	"pt-PT":  "Portuguese (Europe)",
	"ru-RU":  "Russian",
	"ta-IN":  "Tamil",
	"te-IN":  "Telugu",
	"th-TH":  "Thai",
	"tr-TR":  "Turkish",
	"vi-VN":  "Vietnamese",
	"zh-CN":  "Chinese (Mainland China)",
	"zh-HK":  "Chinese (Hong Kong)",
	"zh-TW":  "Chinese (Taiwan)",
}

// Human returns the human-readable display name of the locale. Unknown tags
// are returned verbatim so they still produce a usable track title.
func (l Locale) Human() string {
	if name, ok := localeNames[l]; ok {
		return name
	}
	return string(l)
}

// Package locale holds the supported interface languages and the handful of
// strings the backend itself has to render in each of them.
package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Language is one of the interface languages a user can pick.
type Language string

const (
	Spanish    Language = "es"
	English    Language = "en"
	Chinese    Language = "zh"
	Portuguese Language = "pt"
)

// Default is used whenever no language was chosen.
const Default = Spanish

var supported = []Language{Spanish, English, Chinese, Portuguese}

// tags is kept in the same order as supported so matcher indices line up.
var matcher = language.NewMatcher([]language.Tag{
	language.Spanish,
	language.English,
	language.Chinese,
	language.Portuguese,
})

// Supported returns all languages in display order.
func Supported() []Language {
	out := make([]Language, len(supported))
	copy(out, supported)
	return out
}

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	for _, s := range supported {
		if l == s {
			return true
		}
	}
	return false
}

// Parse maps a two letter code to a Language.
func Parse(code string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(code)))
	if !l.Valid() {
		return "", fmt.Errorf("unsupported language %q", code)
	}
	return l, nil
}

// FromAcceptLanguage picks the best supported language for an HTTP
// Accept-Language header, falling back to Default.
func FromAcceptLanguage(header string) Language {
	if strings.TrimSpace(header) == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	return supported[idx]
}

// Name is the language name sent to the model so it answers in that language.
func (l Language) Name() string {
	switch l {
	case English:
		return "English"
	case Chinese:
		return "Chinese (Simplified)"
	case Portuguese:
		return "Portuguese"
	default:
		return "Spanish"
	}
}

// ExtrasCategory is the display name of the category that collects items
// added by hand to a saved shopping list.
func (l Language) ExtrasCategory() string {
	switch l {
	case English:
		return "Extras"
	case Chinese:
		return "额外"
	case Portuguese:
		return "Adicionais"
	default:
		return "Agregados"
	}
}

// GenerationFailed is the generic message shown when a plan could not be produced.
func (l Language) GenerationFailed() string {
	switch l {
	case English:
		return "Error connecting to EcoChef. Please try again."
	case Chinese:
		return "连接 EcoChef 时出错，请重试。"
	case Portuguese:
		return "Erro ao conectar com o EcoChef. Tente novamente."
	default:
		return "Error al conectar con EcoChef. Inténtalo de nuevo."
	}
}

// SignInRequired is shown when a guest tries a feature reserved to signed-in users.
func (l Language) SignInRequired() string {
	switch l {
	case English:
		return "Sign in to use this feature."
	case Chinese:
		return "请登录以使用此功能。"
	case Portuguese:
		return "Entre para usar este recurso."
	default:
		return "Inicia sesión para usar esta función."
	}
}

// NoneRestriction is the placeholder sent when the user gave no dietary restrictions.
func (l Language) NoneRestriction() string {
	switch l {
	case English:
		return "None"
	case Chinese:
		return "无"
	case Portuguese:
		return "Nenhuma"
	default:
		return "Ninguna"
	}
}

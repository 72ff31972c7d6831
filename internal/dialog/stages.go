package dialog

import (
	"regexp"
	"strings"
)

// Prompt texts spoken by the assistant. The voice is Spanish, formal
// register, kept short so playback stays interruptible.
const (
	greetingText = "Hola, le atiende el asistente de soporte. ¿Con quién tengo el gusto?"

	identityRepromptText = "Disculpe, no le he entendido bien. ¿Me puede repetir su nombre, por favor?"

	// ackReasonPromptFmt takes the caller's display token.
	ackReasonPromptFmt = "Gracias, %s. Cuénteme, ¿cuál es el motivo de su llamada?"

	vagueRepromptText = "¿Me puede dar un poco más de detalle sobre el motivo de su llamada, por favor?"

	farewellText = "Gracias por su llamada. ¡Hasta luego!"
)

// vagueStoplist holds filler utterances that never count as a call reason.
var vagueStoplist = map[string]struct{}{
	"ok":     {},
	"okay":   {},
	"vale":   {},
	"bueno":  {},
	"pues":   {},
	"a ver":  {},
	"sí":     {},
	"si":     {},
	"no":     {},
	"hola":   {},
	"buenas": {},
	"eh":     {},
	"mmm":    {},
	"ya":     {},
}

const minReasonWords = 4

var punctRe = regexp.MustCompile(`[.,;:!?¡¿]+`)

// IsVagueReason rejects utterances too thin to act on as a call reason:
// empty input, stoplist fillers, or fewer than four words.
func IsVagueReason(input string) bool {
	cleaned := strings.TrimSpace(punctRe.ReplaceAllString(input, " "))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return true
	}
	if _, ok := vagueStoplist[strings.ToLower(cleaned)]; ok {
		return true
	}
	return len(strings.Fields(cleaned)) < minReasonWords
}

var goodbyeRe = regexp.MustCompile(`(?i)(adiós|adios|hasta luego|hasta pronto|hasta mañana|nos vemos|chao|chau|bye)`)

// IsGoodbye reports whether the utterance is a farewell.
func IsGoodbye(input string) bool {
	return goodbyeRe.MatchString(input)
}

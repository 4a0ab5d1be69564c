package usecase

import "strings"

// Lexicon holds the static vocabulary of the advice engine: synonyms, stopwords and
// the keyword sets used to detect product classes, rooms and signage.
// A Lexicon is never mutated after construction and can be shared by all requests.
type Lexicon struct {
	synonyms        map[string][]string
	stopwords       map[string]struct{}
	lampTerms       []string
	stripTerms      []string
	roomTerms       []string
	signTerms       []string
	catalogTerms    []string
	everythingTerms []string
}

var defaultLexicon = newLexicon(
	map[string][]string{
		"foco":          {"bombilla", "ampolleta", "foco", "luz", "led"},
		"focos":         {"foco", "bombilla", "ampolleta", "luz", "led"},
		"bombilla":      {"bombilla", "foco", "ampolleta", "led"},
		"lampara":       {"lampara", "spot", "plafon", "panel"},
		"lamparas":      {"lampara", "spot", "plafon", "panel"},
		"lampara techo": {"lampara techo", "plafon", "panel led"},
		"reflector":     {"reflector", "proyector"},
		"reflectores":   {"reflector", "proyector"},
		"sensor":        {"sensor", "sensor de movimiento", "sensor movimiento", "sensor pir"},
		"sensores":      {"sensor", "sensor de movimiento", "sensor pir"},
		"camara":        {"camara", "camara de seguridad", "cctv"},
		"camaras":       {"camara", "camara de seguridad", "cctv"},
		"tira":          {"tira led", "cinta led", "strip led"},
		"tiras":         {"tira led", "cinta led", "strip led"},
		"tira led":      {"tira led", "cinta led", "strip led"},
		"cinta":         {"cinta led", "tira led", "strip led"},
		"neon":          {"neon", "manguera led", "cinta led neon"},
		"manguera":      {"manguera led", "neon", "manguera"},
		"kit":           {"kit", "kit solar", "kit de iluminacion"},
		"kit solar":     {"kit solar", "panel solar", "linterna solar"},
	},
	[]string{
		"quiero", "busco", "necesito", "una", "un", "para", "que", "cual",
		"producto", "productos", "me", "recomiendame", "recomiendeme", "recomienda",
		"hasta", "maximo", "minimo", "entre", "desde", "soles", "s", "aprox",
		"al", "menos", "mas", "de", "a", "y", "como", "el", "la", "los", "las",
		"todos", "todas", "catalogo", "lista", "completa",
		"dame", "muestrame", "ensename", "comprar",
		"precio", "barato", "barata", "caro", "cara", "tipo", "hay", "tienen",
		"por", "favor", "podrias", "alrededor", "aproximadamente", "cerca",
		"con", "del", "tienes", "hola", "gracias", "unos", "unas",
	},
	[]string{"lampara", "lamparas", "plafon", "plafones", "panel", "paneles", "foco", "focos", "spot", "dicroico", "dicroicos"},
	[]string{"tira", "tiras", "cinta", "cintas", "manguera", "mangueras", "neon"},
	[]string{"sala", "comedor", "dormitorio", "habitacion", "cocina", "bano", "pasillo", "pasadizo"},
	[]string{"letrero", "letreros", "aviso", "avisos", "cartel", "carteles"},
	[]string{"catalogo", "lista de productos", "lista completa"},
	[]string{
		"todos los productos", "todo el catalogo", "todo tu catalogo", "todo su catalogo",
		"ver todo", "todo lo que tienes",
	},
)

// DefaultLexicon returns the shared Spanish lighting and security vocabulary.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

func newLexicon(synonyms map[string][]string, stopwords, lamp, strip, room, sign, catalog, everything []string) *Lexicon {
	l := &Lexicon{
		synonyms:        make(map[string][]string, len(synonyms)),
		stopwords:       make(map[string]struct{}, len(stopwords)),
		lampTerms:       normalizeAll(lamp),
		stripTerms:      normalizeAll(strip),
		roomTerms:       normalizeAll(room),
		signTerms:       normalizeAll(sign),
		catalogTerms:    normalizeAll(catalog),
		everythingTerms: normalizeAll(everything),
	}
	for key, values := range synonyms {
		l.synonyms[Normalize(key)] = normalizeAll(values)
	}
	for _, w := range stopwords {
		l.stopwords[Normalize(w)] = struct{}{}
	}
	return l
}

func normalizeAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = Normalize(w)
	}
	return out
}

// IsStopword reports whether a normalized token carries no product meaning.
func (l *Lexicon) IsStopword(token string) bool {
	_, ok := l.stopwords[token]
	return ok
}

// Synonyms returns the expansions for a normalized dictionary key.
// The returned slice must not be modified.
func (l *Lexicon) Synonyms(key string) ([]string, bool) {
	s, ok := l.synonyms[key]
	return s, ok
}

// MentionsLamp reports whether text names a rigid fixture (lamp, panel, spot, bulb).
func (l *Lexicon) MentionsLamp(text string) bool { return containsAny(text, l.lampTerms) }

// MentionsStrip reports whether text names flexible lighting (strip, tape, neon hose).
func (l *Lexicon) MentionsStrip(text string) bool { return containsAny(text, l.stripTerms) }

// MentionsRoom reports whether text names a room or living space.
func (l *Lexicon) MentionsRoom(text string) bool { return containsAny(text, l.roomTerms) }

// MentionsSign reports whether text names signage.
func (l *Lexicon) MentionsSign(text string) bool { return containsAny(text, l.signTerms) }

// AsksForEverything reports whether a normalized message requests the full catalog.
// Both a catalog term and an "everything" quantifier are required, so
// "catalogo de focos" is a regular search.
func (l *Lexicon) AsksForEverything(text string) bool {
	return containsAny(text, l.catalogTerms) && containsAny(text, l.everythingTerms)
}

func containsAny(text string, terms []string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, t := range terms {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

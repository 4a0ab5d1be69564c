package usecase

import (
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/electrocyb/backend/internal/domain"
)

// minTokenLength is the shortest token that carries meaning for matching
const minTokenLength = 3

// QueryAnalysis is everything the engine derives from a customer message before
// touching the catalog.
type QueryAnalysis struct {
	Raw        string             // trimmed message as typed
	Normalized string             // lowercased, accents stripped
	PriceRange *domain.PriceRange // nil when no price was stated
	Keywords   []string           // core tokens plus synonyms, insertion ordered, no duplicates
	CoreTokens []string           // tokens typed literally, stopwords removed
}

// QueryPreprocessor turns free text into tokens, keywords and a price range
type QueryPreprocessor struct {
	lexicon            *Lexicon
	logger             zerolog.Logger
	enableDebugLogging bool
}

// NewQueryPreprocessor creates a new query preprocessor. A nil lexicon selects DefaultLexicon.
func NewQueryPreprocessor(lexicon *Lexicon, logger zerolog.Logger, enableDebugLogging bool) *QueryPreprocessor {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	return &QueryPreprocessor{
		lexicon:            lexicon,
		logger:             logger,
		enableDebugLogging: enableDebugLogging,
	}
}

// Analyze normalizes a message and extracts price range, keywords and core tokens
func (p *QueryPreprocessor) Analyze(message string) QueryAnalysis {
	raw := strings.TrimSpace(message)
	normalized := Normalize(raw)

	analysis := QueryAnalysis{
		Raw:        raw,
		Normalized: normalized,
		PriceRange: ExtractPriceRange(normalized),
		Keywords:   p.ExpandKeywords(normalized),
		CoreTokens: p.CoreTokens(normalized),
	}

	if p.enableDebugLogging {
		p.logger.Debug().
			Str("input", raw).
			Str("normalized", normalized).
			Strs("keywords", analysis.Keywords).
			Strs("core_tokens", analysis.CoreTokens).
			Bool("price_range", analysis.PriceRange != nil).
			Msg("query analyzed")
	}

	return analysis
}

// ExpandKeywords returns the meaningful tokens of a normalized message plus their
// synonyms. Expansion only adds terms. When nothing survives, the whole message is
// used as a single keyword.
func (p *QueryPreprocessor) ExpandKeywords(normalized string) []string {
	tokens := splitTokens(normalized)
	seen := make(map[string]struct{})
	var keywords []string
	add := func(k string) {
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}

	for i, token := range tokens {
		if p.isMeaningful(token) {
			add(token)
			if synonyms, ok := p.lexicon.Synonyms(token); ok {
				for _, s := range synonyms {
					add(s)
				}
			}
		}
		// two-word dictionary keys such as "tira led" or "kit solar"
		if i+1 < len(tokens) {
			if synonyms, ok := p.lexicon.Synonyms(token + " " + tokens[i+1]); ok {
				for _, s := range synonyms {
					add(s)
				}
			}
		}
	}

	if len(keywords) == 0 {
		if whole := strings.TrimSpace(normalized); whole != "" {
			keywords = append(keywords, whole)
		}
	}

	return keywords
}

// CoreTokens returns the tokens the customer typed literally, without synonyms,
// in message order.
func (p *QueryPreprocessor) CoreTokens(normalized string) []string {
	var core []string
	for _, token := range splitTokens(normalized) {
		if p.isMeaningful(token) {
			core = append(core, token)
		}
	}
	return core
}

func (p *QueryPreprocessor) isMeaningful(token string) bool {
	return len(token) >= minTokenLength && !p.lexicon.IsStopword(token)
}

// splitTokens splits on whitespace and trims punctuation around each token
func splitTokens(s string) []string {
	fields := strings.Fields(s)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		t := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

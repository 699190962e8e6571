// Package clean removes speech-recognition hallucinations from transcripts.
//
// Whisper-family models hallucinate during silence or low audio: random
// non-English text before the lecture starts, repeated filler phrases at the
// end ("Thank you. Thank you. Thank you."), and gibberish during quiet
// stretches. Clean applies pattern heuristics to strip these.
package clean

import (
	"regexp"
	"strings"
)

// scriptRunPatterns match runs of non-Latin scripts that never occur in a
// lecture transcript and are a reliable hallucination signal.
var scriptRunPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[\x{AC00}-\x{D7A3}]+`),           // Hangul
	regexp.MustCompile(`[\x{4E00}-\x{9FAF}]+`),           // Han
	regexp.MustCompile(`[\x{3041}-\x{3096}\x{30A1}-\x{30FA}]+`), // Hiragana / Katakana
	regexp.MustCompile(`[\x{0400}-\x{04FF}]+`),           // Cyrillic
}

// gibberishWordPattern matches word-level artifacts the model is known to
// emit: pseudo-Welsh tokens and words with accented characters that do not
// appear in English lecture speech.
var gibberishWordPattern = regexp.MustCompile(
	`(?i)\b(sy'n|gyms|gyflen|newidda|roedd|gwilia|gyfly|canyan|ayag|teu|aun|iag)\b` +
		`|\b[A-Za-z]*[äöüáéíóúàèìòùâêîôûãõñ][a-zA-Z]*\b`)

// lectureStartPattern marks phrasings lecturers open with. The earliest match
// anchors where real content begins.
var lectureStartPattern = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`(?:okay|alright|so|well|hey|hi|hello)?,?\s*my friends`,
	`(?:okay|alright|so|well)?,?\s*today`,
	`welcome\s+(?:to|back|everyone)`,
	`(?:good\s+)?(?:morning|afternoon|evening)`,
	`let's\s+(?:get\s+started|begin|start|talk|look)`,
	`we're\s+going\s+to`,
	`going\s+to\s+be\s+a`,
	`hello\s+(?:everyone|everybody|class)`,
}, "|"))

var (
	multiSpacePattern   = regexp.MustCompile(`\s+`)
	leadingPunctPattern = regexp.MustCompile(`^[,.\s]+`)
	wordPattern         = regexp.MustCompile(`\b[a-zA-Z]+\b`)
)

// repeatThreshold is the run length at which identical consecutive sentences
// are collapsed to a single instance.
const repeatThreshold = 3

// commonEnglishWords is the vocabulary used to judge whether a sentence is
// coherent English rather than a hallucinated fragment.
var commonEnglishWords = makeWordSet(
	"the", "a", "an", "is", "are", "was", "were", "be", "been",
	"have", "has", "had", "do", "does", "did", "will", "would",
	"could", "should", "may", "might", "must", "shall", "can",
	"to", "of", "in", "for", "on", "with", "at", "by", "from",
	"this", "that", "these", "those", "it", "its", "you", "your",
	"we", "our", "they", "their", "i", "my", "me", "he", "she",
	"and", "or", "but", "if", "so", "as", "what", "which", "who",
	"how", "when", "where", "why", "all", "each", "every", "both",
	"few", "more", "most", "other", "some", "such", "no", "not",
	"only", "same", "than", "too", "very", "just", "also", "now",
	"here", "there", "then", "once", "going", "want", "need",
	"like", "know", "think", "see", "get", "make", "take", "come",
	"right", "okay", "well", "yeah", "yes", "really",
	"today", "already", "use", "using", "copy", "local", "laptop",
)

// fillerSentences are short closing phrases that carry no lecture content.
var fillerSentences = makeWordSet(
	"thank you.", "thank you", "thanks.", "thanks",
	"thank you!", "thanks!", "bye.", "bye", "goodbye.",
	"goodbye", "see you.", "see you", "okay.", "okay",
	"alright.", "alright", "hey.", "hey", "yeah.", "yeah",
)

// informalIndicators flag post-lecture chatter in trailing sentences.
var informalIndicators = []string{
	"okay", "alright", "hey", "yeah", "um", "uh",
	"like", "i mean", "you know", "right",
}

func makeWordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Clean strips hallucinated text from a raw transcript. It is a pure
// transform and idempotent: Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	s := text
	for _, re := range scriptRunPatterns {
		s = re.ReplaceAllString(s, "")
	}
	s = gibberishWordPattern.ReplaceAllString(s, "")

	sentences := splitSentences(s)
	sentences = trimLeading(sentences)
	sentences = collapseRepeats(sentences)
	sentences = trimTrailing(sentences)

	out := strings.Join(sentences, " ")
	out = multiSpacePattern.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	out = leadingPunctPattern.ReplaceAllString(out, "")
	return out
}

// splitSentences splits text after terminal punctuation followed by
// whitespace. Joining the result with single spaces round-trips.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Consume a run of terminal punctuation, then require whitespace.
		j := i
		for j+1 < len(runes) && (runes[j+1] == '.' || runes[j+1] == '!' || runes[j+1] == '?') {
			j++
		}
		if j+1 < len(runes) && isSpace(runes[j+1]) {
			sentence := strings.TrimSpace(string(runes[start : j+1]))
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = j + 1
		}
		i = j
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}

// collapseRepeats reduces runs of repeatThreshold or more identical
// consecutive sentences to a single instance.
func collapseRepeats(sentences []string) []string {
	if len(sentences) == 0 {
		return sentences
	}
	out := make([]string, 0, len(sentences))
	for i := 0; i < len(sentences); {
		j := i + 1
		key := normalizeSentence(sentences[i])
		for j < len(sentences) && normalizeSentence(sentences[j]) == key {
			j++
		}
		if j-i >= repeatThreshold {
			out = append(out, sentences[i])
		} else {
			out = append(out, sentences[i:j]...)
		}
		i = j
	}
	return out
}

func normalizeSentence(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// trimLeading drops hallucinated sentences before the first one that looks
// like lecture content. When a lecture-start phrase occurs mid-sentence, the
// prefix before it is cut as well. If nothing matches, the text is kept
// unchanged rather than destroyed.
func trimLeading(sentences []string) []string {
	for i, sentence := range sentences {
		if loc := lectureStartPattern.FindStringIndex(sentence); loc != nil {
			kept := append([]string{}, sentences[i:]...)
			kept[0] = strings.TrimSpace(kept[0][loc[0]:])
			return kept
		}
		if isCoherentEnglish(sentence) {
			return sentences[i:]
		}
	}
	return sentences
}

// isCoherentEnglish reports whether a sentence reads as English rather than
// a hallucinated fragment: at least three common words, or a quarter of its
// words drawn from the common vocabulary.
func isCoherentEnglish(sentence string) bool {
	s := strings.TrimSpace(sentence)
	if len(s) < 10 {
		return false
	}
	words := wordPattern.FindAllString(strings.ToLower(s), -1)
	if len(words) < 3 {
		return false
	}
	common := 0
	for _, w := range words {
		if _, ok := commonEnglishWords[w]; ok {
			common++
		}
	}
	if common >= 3 {
		return true
	}
	return float64(common)/float64(len(words)) >= 0.25
}

// trimTrailing removes closing filler and post-lecture chatter, iterating to
// a fixpoint so a second Clean pass finds nothing left to strip.
func trimTrailing(sentences []string) []string {
	end := len(sentences)
	for end > 0 {
		last := normalizeSentence(sentences[end-1])

		if _, ok := fillerSentences[last]; ok {
			end--
			continue
		}
		if len(last) < 15 {
			end--
			continue
		}
		words := len(strings.Fields(last))
		informal := 0
		for _, ind := range informalIndicators {
			if strings.Contains(last, ind) {
				informal++
			}
		}
		if words < 10 && informal >= 2 {
			end--
			continue
		}
		break
	}
	return sentences[:end]
}

package intent

// stopwords is the standard English function-word set augmented with
// tokens common in RAG-system chatter, used by the layer 0 garbage
// heuristic to recognize utterances that are mostly filler.
var stopwords = buildStopwordSet()

// IsStopword reports whether word (expected lowercase) is in the
// classifier's stopword set. Exported so the groundedness verifier's
// content-word extraction (§4.10) uses the same vocabulary rather than
// maintaining a second list.
func IsStopword(word string) bool {
	_, ok := stopwords[word]
	return ok
}

func buildStopwordSet() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "of", "to",
		"in", "on", "at", "by", "for", "with", "about", "against", "between",
		"into", "through", "during", "before", "after", "above", "below", "from",
		"up", "down", "out", "off", "over", "under", "again", "further", "once",
		"is", "am", "are", "was", "were", "be", "been", "being", "have", "has",
		"had", "having", "do", "does", "did", "doing", "will", "would", "shall",
		"should", "can", "could", "may", "might", "must", "i", "me", "my",
		"myself", "we", "our", "ours", "ourselves", "you", "your", "yours",
		"yourself", "yourselves", "he", "him", "his", "himself", "she", "her",
		"hers", "herself", "it", "its", "itself", "they", "them", "their",
		"theirs", "themselves", "what", "which", "who", "whom", "this", "that",
		"these", "those", "as", "until", "while", "so", "than", "too", "very",
		"just", "not", "no", "nor", "own", "same", "such", "only", "here",
		"there", "when", "where", "why", "how", "all", "any", "both", "each",
		"few", "more", "most", "other", "some", "okay", "ok", "yeah", "yep",
		"context", "source", "document", "information",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

package lexical

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/yanyiwu/gojieba"
)

var (
	multiSpaceRegex = regexp.MustCompile(`\s+`)
	urlRegex        = regexp.MustCompile(`https?://\S+`)
	emailRegex      = regexp.MustCompile(`\b[\w.%+-]+@[\w.-]+\.[a-zA-Z]{2,}\b`)
	punctRegex      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// Tokenizer splits text into lowercase terms for the BM25-family
// scorer, segmenting CJK runs with gojieba (the teacher's
// PluginPreprocess tokenizer) and falling back to whitespace splitting
// for everything else, so a mixed-language corpus indexes both scripts
// sensibly.
type Tokenizer struct {
	jieba *gojieba.Jieba
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{jieba: gojieba.NewJieba()}
}

// Close releases the jieba dictionary. Call once when the tokenizer is
// no longer needed.
func (t *Tokenizer) Close() {
	if t.jieba != nil {
		t.jieba.Free()
		t.jieba = nil
	}
}

// Tokenize lowercases, strips URLs/emails/punctuation, and segments the
// result. Per §4.3 this is also how a lexical query is tokenized, so
// build and search must call the same function.
func (t *Tokenizer) Tokenize(text string) []string {
	text = urlRegex.ReplaceAllString(text, " ")
	text = emailRegex.ReplaceAllString(text, " ")
	text = punctRegex.ReplaceAllString(text, " ")
	text = multiSpaceRegex.ReplaceAllString(text, " ")
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}

	segments := t.jieba.CutForSearch(text, true)
	tokens := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" || isAllSpace(seg) {
			continue
		}
		tokens = append(tokens, seg)
	}
	return tokens
}

func isAllSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

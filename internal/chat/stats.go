package chat

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

// Top-N limits for the frequency tables, matching the report consumers.
const (
	topChars   = 100
	topEmojis  = 20
	topPhrases = 50
)

// mediaMarkers exclude forwarded media placeholders from text statistics.
var mediaMarkers = []string{"[图片]", "[文件]", "[表情]"}

// systemPrefix marks messages injected by Feishu itself.
const systemPrefix = "[系统消息]"

// laughPattern matches latin and CJK laugh runs. Full-width latin is folded
// to ASCII before matching (ｈａｈａ -> haha).
var laughPattern = regexp.MustCompile(`(?i)k{3,}|(?:ha){2,}|hua+|ahu+|哈哈+|嘻嘻+|嘿嘿+`)

// emoji ranges cover the BMP symbol blocks plus every supplementary-plane
// rune. Broad on purpose: exports carry skin-tone modifiers, ZWJ sequences
// and flag pairs that narrower tables split apart.
var emojiTable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200d, Hi: 0x200d, Stride: 1},
		{Lo: 0x231a, Hi: 0x231a, Stride: 1},
		{Lo: 0x23cf, Hi: 0x23cf, Stride: 1},
		{Lo: 0x23e9, Hi: 0x23e9, Stride: 1},
		{Lo: 0x2600, Hi: 0x2b55, Stride: 1},
		{Lo: 0x3030, Hi: 0x3030, Stride: 1},
		{Lo: 0xfe0f, Hi: 0xfe0f, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10000, Hi: 0x10ffff, Stride: 1},
	},
}

// FreqPair is a token with its occurrence count. It serializes as a
// two-element array (["哈哈", 12]) to keep the established
// parsed_messages.json shape.
type FreqPair struct {
	Token string
	Count int
}

// MarshalJSON emits the pair as [token, count].
func (p FreqPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{p.Token, p.Count})
}

// UnmarshalJSON accepts the [token, count] form.
func (p *FreqPair) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &p.Token); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Count)
}

// Stats summarizes one participant's messaging style.
type Stats struct {
	TargetName     string     `json:"target_name"`
	TotalMessages  int        `json:"total_messages"`
	TextMessages   int        `json:"text_messages"`
	AvgCharsPerMsg float64    `json:"avg_chars_per_msg"`
	TopChars       []FreqPair `json:"top_chars"`
	TopEmojis      []FreqPair `json:"top_emojis"`
	LaughRatio     float64    `json:"laugh_ratio"`
	TopPhrases     []FreqPair `json:"top_phrases"`
}

// Analyze computes frequency statistics over the target's messages.
// System messages and media placeholders are excluded from the text set.
func Analyze(target []Message, targetName string) *Stats {
	texts := textMessages(target)

	stats := &Stats{
		TargetName:    targetName,
		TotalMessages: len(target),
		TextMessages:  len(texts),
	}
	if len(texts) == 0 {
		stats.TopChars = []FreqPair{}
		stats.TopEmojis = []FreqPair{}
		stats.TopPhrases = []FreqPair{}
		return stats
	}

	stats.AvgCharsPerMsg = round1(avgRuneLen(texts))
	stats.TopChars = topN(charCounts(texts), topChars)
	stats.TopEmojis = topN(emojiCounts(texts), topEmojis)
	stats.LaughRatio = round2(laughRatio(texts))
	stats.TopPhrases = topN(phraseCounts(texts), topPhrases)

	return stats
}

// textMessages filters out empty, system, and media-placeholder messages.
func textMessages(msgs []Message) []string {
	var texts []string
	for _, m := range msgs {
		if m.Text == "" || !isTextMessage(m.Text) {
			continue
		}
		texts = append(texts, m.Text)
	}
	return texts
}

// isTextMessage reports whether a message carries analyzable text.
func isTextMessage(text string) bool {
	if strings.HasPrefix(text, systemPrefix) {
		return false
	}
	for _, marker := range mediaMarkers {
		if strings.Contains(text, marker) {
			return false
		}
	}
	return true
}

// avgRuneLen returns the mean rune count per message.
func avgRuneLen(texts []string) float64 {
	total := 0
	for _, t := range texts {
		total += utf8.RuneCountInString(t)
	}
	return float64(total) / float64(len(texts))
}

// charCounts counts every non-space, non-digit rune across all messages.
func charCounts(texts []string) map[string]int {
	counts := make(map[string]int)
	for _, t := range texts {
		for _, r := range t {
			if unicode.IsSpace(r) || unicode.IsDigit(r) {
				continue
			}
			counts[string(r)]++
		}
	}
	return counts
}

// emojiCounts counts maximal runs of emoji-range runes. A run of
// consecutive matching runes (ZWJ sequence, repeated emoji) is one token.
func emojiCounts(texts []string) map[string]int {
	counts := make(map[string]int)
	for _, t := range texts {
		var run []rune
		for _, r := range t {
			if unicode.Is(emojiTable, r) {
				run = append(run, r)
				continue
			}
			if len(run) > 0 {
				counts[string(run)]++
				run = run[:0]
			}
		}
		if len(run) > 0 {
			counts[string(run)]++
		}
	}
	return counts
}

// laughRatio is the fraction of messages containing a laugh run.
func laughRatio(texts []string) float64 {
	matched := 0
	for _, t := range texts {
		if laughPattern.MatchString(width.Fold.String(t)) {
			matched++
		}
	}
	return float64(matched) / float64(len(texts))
}

// phraseCounts counts every 2-rune and 3-rune substring per message.
func phraseCounts(texts []string) map[string]int {
	counts := make(map[string]int)
	for _, t := range texts {
		runes := []rune(t)
		for i := 0; i+2 <= len(runes); i++ {
			counts[string(runes[i:i+2])]++
		}
		for i := 0; i+3 <= len(runes); i++ {
			counts[string(runes[i:i+3])]++
		}
	}
	return counts
}

// topN returns the n most frequent tokens, count descending. Ties order by
// token so output is deterministic.
func topN(counts map[string]int, n int) []FreqPair {
	pairs := make([]FreqPair, 0, len(counts))
	for tok, c := range counts {
		pairs = append(pairs, FreqPair{Token: tok, Count: c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		return pairs[i].Token < pairs[j].Token
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Summary is a one-line human description of the stats.
func (s *Stats) Summary() string {
	return fmt.Sprintf("%d messages (%d text), avg %.1f chars, laugh ratio %.2f",
		s.TotalMessages, s.TextMessages, s.AvgCharsPerMsg, s.LaughRatio)
}

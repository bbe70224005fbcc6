package usecase

import (
	"sort"
	"strings"
)

// ChunkText splits normalized text into chunks of at most maxWords words,
// breaking on sentence-ish boundaries when possible. Deterministic: same
// input, same chunks.
func ChunkText(text string, maxWords int) []string {
	if maxWords <= 0 {
		maxWords = 400
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	chunks := make([]string, 0, len(words)/maxWords+1)
	for start := 0; start < len(words); start += maxWords {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// RankChunks orders chunks by lexical overlap with the query and returns the
// top-K. This replaces the original's embedding-based retrieval with a
// deterministic pre-filter; the embedding model name still participates in
// the settings signature so a future swap invalidates caches.
func RankChunks(chunks []string, query string, topK int) []string {
	if topK <= 0 || len(chunks) == 0 {
		return nil
	}
	queryTokens := tokenSet(NormalizeText(query))
	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(chunks))
	for i, chunk := range chunks {
		ranked[i] = scored{index: i, score: overlapScore(queryTokens, tokenSet(NormalizeText(chunk)))}
	}
	// Stable ordering: score desc, then document order.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].index < ranked[j].index
	})
	if topK > len(ranked) {
		topK = len(ranked)
	}
	picked := ranked[:topK]
	// Re-emit in document order so merged context reads coherently.
	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })
	out := make([]string, len(picked))
	for i, s := range picked {
		out[i] = chunks[s.index]
	}
	return out
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		if len(tok) > 2 {
			set[tok] = true
		}
	}
	return set
}

func overlapScore(query, chunk map[string]bool) float64 {
	if len(query) == 0 || len(chunk) == 0 {
		return 0
	}
	common := 0
	for tok := range query {
		if chunk[tok] {
			common++
		}
	}
	return float64(common) / float64(len(query))
}

// WindowText yields overlapping scan windows for the full-document strategy.
// windowWords is the window size, strideWords the advance per step, maxWindows
// a hard cap on how many windows (and therefore extraction calls) are
// produced for an arbitrarily long document.
func WindowText(text string, windowWords, strideWords, maxWindows int) []string {
	if windowWords <= 0 {
		windowWords = 800
	}
	if strideWords <= 0 || strideWords > windowWords {
		strideWords = windowWords / 2
	}
	if maxWindows <= 0 {
		maxWindows = 8
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var windows []string
	for start := 0; start < len(words) && len(windows) < maxWindows; start += strideWords {
		end := start + windowWords
		if end > len(words) {
			end = len(words)
		}
		windows = append(windows, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return windows
}

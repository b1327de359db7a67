package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Default chunking parameters, in bytes.
const (
	DefaultMaxChunkSize = 1000
	DefaultOverlap      = 150
)

var pageMarkerRegex = regexp.MustCompile(`\[PAGE_(\d+)\]`)

// Chunk is one bounded span of cleaned text, tagged with the page that
// was active when the chunk started.
type Chunk struct {
	Text      string
	Index     int
	StartPage int
}

type pageSegment struct {
	page int
	text string
}

// splitPageSegments walks the [PAGE_n] markers and returns the text
// between them, each span tagged with its page number. Text before the
// first marker belongs to page 1.
func splitPageSegments(text string) []pageSegment {
	var segments []pageSegment
	page := 1
	last := 0

	for _, loc := range pageMarkerRegex.FindAllStringSubmatchIndex(text, -1) {
		if span := text[last:loc[0]]; span != "" {
			segments = append(segments, pageSegment{page: page, text: span})
		}
		page = atoiOrOne(text[loc[2]:loc[3]])
		last = loc[1]
	}
	if span := text[last:]; span != "" {
		segments = append(segments, pageSegment{page: page, text: span})
	}
	return segments
}

func atoiOrOne(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	if n < 1 {
		return 1
	}
	return n
}

// ChunkText packs blank-line-delimited paragraphs greedily into chunks of
// at most maxSize bytes, carrying the last overlap bytes of each sealed
// chunk into the next so context survives the boundary. A single
// paragraph longer than maxSize is never split; it becomes an oversized
// chunk on its own.
//
// Page attribution: a chunk is tagged with the page active when its
// buffer started. A chunk seeded with overlap text inherits the page of
// the sealed chunk's tail, since that is where its first characters came
// from.
func ChunkText(text string, maxSize, overlap int) []Chunk {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}

	var chunks []Chunk
	current := ""
	chunkStartPage := 1
	lastParaPage := 1
	index := 0

	for _, segment := range splitPageSegments(text) {
		currentPage := segment.page

		for _, para := range strings.Split(segment.text, "\n\n") {
			para = strings.TrimSpace(para)
			if para == "" {
				continue
			}

			if len(current)+len(para) <= maxSize {
				if current == "" {
					chunkStartPage = currentPage
				}
				current += para + "\n\n"
				lastParaPage = currentPage
				continue
			}

			if current == "" {
				// Oversized paragraph: keep it whole even though it
				// exceeds maxSize.
				current = para + "\n\n"
				chunkStartPage = currentPage
				lastParaPage = currentPage
				continue
			}

			chunks = append(chunks, Chunk{
				Text:      strings.TrimSpace(current),
				Index:     index,
				StartPage: chunkStartPage,
			})
			index++

			seed := overlapTail(current, overlap)
			current = seed + para + "\n\n"
			if seed == "" {
				chunkStartPage = currentPage
			} else {
				chunkStartPage = lastParaPage
			}
			lastParaPage = currentPage
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, Chunk{
			Text:      strings.TrimSpace(current),
			Index:     index,
			StartPage: chunkStartPage,
		})
	}

	return chunks
}

// overlapTail returns the last n bytes of text, adjusted forward so the
// cut never lands inside a multi-byte rune.
func overlapTail(text string, n int) string {
	if len(text) <= n {
		return text
	}
	start := len(text) - n
	for start < len(text) && !utf8.RuneStart(text[start]) {
		start++
	}
	return text[start:]
}

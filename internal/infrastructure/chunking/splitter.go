package chunking

import "strings"

// Splitter cuts extracted document text into fixed-size rune windows with a
// small overlap, so a fact straddling a window boundary still lands whole in
// at least one chunk. Sizes are in runes, not bytes: extracted text is
// frequently non-ASCII.
type Splitter struct {
	Size    int
	Overlap int
}

func NewSplitter(size, overlap int) *Splitter {
	if size <= 0 {
		size = 900
	}
	switch {
	case overlap < 0:
		overlap = 0
	case overlap >= size:
		overlap = size / 4
	}
	return &Splitter{Size: size, Overlap: overlap}
}

func (s *Splitter) Split(text string) []string {
	runes := []rune(text)
	total := len(runes)
	if total == 0 {
		return nil
	}

	stride := s.Size - s.Overlap
	if stride <= 0 {
		stride = s.Size
	}

	chunks := make([]string, 0, total/stride+1)
	for offset := 0; ; offset += stride {
		window := runes[offset:min(offset+s.Size, total)]
		if chunk := strings.TrimSpace(string(window)); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if offset+s.Size >= total {
			break
		}
	}
	return chunks
}

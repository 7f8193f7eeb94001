package detector

import "unicode/utf8"

// runeIndex converts byte offsets into code point offsets for one text.
type runeIndex struct {
	ascii bool
	pos   []int // byte offset -> rune offset, len(text)+1 entries
}

func newRuneIndex(text string) *runeIndex {
	ascii := true
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return &runeIndex{ascii: true}
	}

	// Recognizers report offsets on rune starts, so only those are filled.
	pos := make([]int, len(text)+1)
	n := 0
	for i := range text {
		pos[i] = n
		n++
	}
	pos[len(text)] = n
	return &runeIndex{pos: pos}
}

func (x *runeIndex) offset(b int) int {
	if x.ascii {
		return b
	}
	return x.pos[b]
}

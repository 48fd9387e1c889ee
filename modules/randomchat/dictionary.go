package randomchat

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// Word tags in the serialized form.
const (
	tagWord   = 0
	tagStart1 = 1
	tagStart2 = 2
	tagEnd    = 0xFF
)

// word is one position in a learned trigram: a sentence-start marker, a
// sentence end, or an index into the dictionary's word table.
type word struct {
	tag   uint8
	index uint32
}

var (
	start1 = word{tag: tagStart1}
	start2 = word{tag: tagStart2}
	end    = word{tag: tagEnd}
)

func wordAt(index uint32) word { return word{tag: tagWord, index: index} }

// less orders words for the deterministic on-disk form: sentence markers
// first, then word indexes, then end.
func (w word) less(o word) bool {
	// Markers sort by tag except End which sorts last.
	rank := func(w word) uint32 {
		switch w.tag {
		case tagStart1:
			return 0
		case tagStart2:
			return 1
		case tagWord:
			return 2
		default:
			return 3
		}
	}
	if rank(w) != rank(o) {
		return rank(w) < rank(o)
	}
	return w.index < o.index
}

func (w word) toBytes(out []byte) []byte {
	var buf [5]byte
	buf[0] = w.tag
	if w.tag == tagWord {
		buf[0] = 0
		binary.LittleEndian.PutUint32(buf[1:], w.index)
	}
	return append(out, buf[:]...)
}

// entry is a two-word window keying the possible continuations.
type entry struct {
	first, second word
}

// Dictionary is a trigram markov model over everything the bot has heard.
// Words are interned in a table; transitions map two-word windows to
// weighted continuations.
type Dictionary struct {
	words    []string
	indexMap map[string]uint32
	dict     map[entry]map[word]uint32
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{
		indexMap: make(map[string]uint32),
		dict:     make(map[entry]map[word]uint32),
	}
}

// insertWord interns a word and returns its index. Lookup is
// case-insensitive but the first spelling seen is the one kept.
func (d *Dictionary) insertWord(w string) uint32 {
	key := strings.ToLower(w)
	if index, ok := d.indexMap[key]; ok {
		return index
	}
	index := uint32(len(d.words))
	d.words = append(d.words, w)
	d.indexMap[key] = index
	return index
}

// LearnFromLine records every trigram of the line, with start and end
// markers around the words.
func (d *Dictionary) LearnFromLine(line string) {
	fields := strings.Fields(line)
	window := make([]word, 0, len(fields)+3)
	window = append(window, start1, start2)
	for _, f := range fields {
		window = append(window, wordAt(d.insertWord(f)))
	}
	window = append(window, end)

	for i := 0; i+2 < len(window); i++ {
		key := entry{window[i], window[i+1]}
		next := window[i+2]
		continuations, ok := d.dict[key]
		if !ok {
			continuations = make(map[word]uint32)
			d.dict[key] = continuations
		}
		continuations[next]++
	}
}

// nextWord draws a weighted continuation for the window, false when the
// window was never seen.
func (d *Dictionary) nextWord(rng *rand.Rand, w1, w2 word) (word, bool) {
	continuations, ok := d.dict[entry{w1, w2}]
	if !ok || len(continuations) == 0 {
		return word{}, false
	}

	ordered := sortedWords(continuations)
	var sum uint32
	for _, w := range ordered {
		sum += continuations[w]
	}

	pick := uint32(rng.Int63n(int64(sum)))
	for _, w := range ordered {
		weight := continuations[w]
		if pick < weight {
			return w, true
		}
		pick -= weight
	}
	return word{}, false
}

// GenerateSentence walks the model from the start markers until the end
// marker or a dead end. An empty dictionary yields an empty string.
func (d *Dictionary) GenerateSentence(rng *rand.Rand) string {
	w1, w2 := start1, start2

	var words []string
	for {
		next, ok := d.nextWord(rng, w1, w2)
		if !ok || next.tag == tagEnd {
			break
		}
		if next.tag == tagWord {
			words = append(words, d.words[next.index])
		}
		w1, w2 = w2, next
	}
	return strings.Join(words, " ")
}

// ToBytes serializes the dictionary: a little-endian u32 word count and
// length-prefixed words, then a u32 entry count and for each entry its two
// 5-byte window words, a u32 continuation count, and (word, weight) pairs.
func (d *Dictionary) ToBytes() []byte {
	var out []byte
	var u32 [4]byte

	putU32 := func(x uint32) {
		binary.LittleEndian.PutUint32(u32[:], x)
		out = append(out, u32[:]...)
	}

	putU32(uint32(len(d.words)))
	for _, w := range d.words {
		putU32(uint32(len(w)))
		out = append(out, w...)
	}

	putU32(uint32(len(d.dict)))
	for _, key := range d.sortedEntries() {
		out = key.first.toBytes(out)
		out = key.second.toBytes(out)

		continuations := d.dict[key]
		putU32(uint32(len(continuations)))
		for _, w := range sortedWords(continuations) {
			out = w.toBytes(out)
			putU32(continuations[w])
		}
	}
	return out
}

// FromBytes parses a serialized dictionary.
func FromBytes(data []byte) (*Dictionary, error) {
	r := byteReader{data: data}
	d := NewDictionary()

	numWords, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numWords; i++ {
		w, err := r.str()
		if err != nil {
			return nil, err
		}
		d.words = append(d.words, w)
		d.indexMap[strings.ToLower(w)] = i
	}

	numEntries, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < numEntries; i++ {
		first, err := r.word()
		if err != nil {
			return nil, err
		}
		second, err := r.word()
		if err != nil {
			return nil, err
		}
		numResults, err := r.u32()
		if err != nil {
			return nil, err
		}
		continuations := make(map[word]uint32, numResults)
		for j := uint32(0); j < numResults; j++ {
			w, err := r.word()
			if err != nil {
				return nil, err
			}
			weight, err := r.u32()
			if err != nil {
				return nil, err
			}
			continuations[w] = weight
		}
		d.dict[entry{first, second}] = continuations
	}
	return d, nil
}

func (d *Dictionary) sortedEntries() []entry {
	entries := make([]entry, 0, len(d.dict))
	for key := range d.dict {
		entries = append(entries, key)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].first != entries[j].first {
			return entries[i].first.less(entries[j].first)
		}
		return entries[i].second.less(entries[j].second)
	})
	return entries
}

func sortedWords(m map[word]uint32) []word {
	words := make([]word, 0, len(m))
	for w := range m {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool { return words[i].less(words[j]) })
	return words
}

type byteReader struct {
	data   []byte
	cursor int
}

func (r *byteReader) u32() (uint32, error) {
	if r.cursor+4 > len(r.data) {
		return 0, fmt.Errorf("randomchat: truncated dictionary at byte %d", r.cursor)
	}
	x := binary.LittleEndian.Uint32(r.data[r.cursor:])
	r.cursor += 4
	return x, nil
}

func (r *byteReader) str() (string, error) {
	length, err := r.u32()
	if err != nil {
		return "", err
	}
	if r.cursor+int(length) > len(r.data) {
		return "", fmt.Errorf("randomchat: truncated word at byte %d", r.cursor)
	}
	s := string(r.data[r.cursor : r.cursor+int(length)])
	r.cursor += int(length)
	return s, nil
}

func (r *byteReader) word() (word, error) {
	if r.cursor+5 > len(r.data) {
		return word{}, fmt.Errorf("randomchat: truncated entry at byte %d", r.cursor)
	}
	buf := r.data[r.cursor : r.cursor+5]
	r.cursor += 5

	switch buf[0] {
	case tagWord:
		return wordAt(binary.LittleEndian.Uint32(buf[1:])), nil
	case tagStart1:
		return start1, nil
	case tagStart2:
		return start2, nil
	case tagEnd:
		return end, nil
	default:
		return word{}, fmt.Errorf("randomchat: unknown word tag %#x", buf[0])
	}
}

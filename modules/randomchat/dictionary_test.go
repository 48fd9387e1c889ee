package randomchat

import (
	"math/rand"
	"reflect"
	"testing"
)

func TestLearnAndGenerate(t *testing.T) {
	d := NewDictionary()
	d.LearnFromLine("the quick brown fox")

	// A single learned line has exactly one continuation per window, so
	// generation reproduces it regardless of the rng.
	got := d.GenerateSentence(rand.New(rand.NewSource(1)))
	if got != "the quick brown fox" {
		t.Error("wrong sentence:", got)
	}
}

func TestGenerateEmptyDictionary(t *testing.T) {
	d := NewDictionary()
	if got := d.GenerateSentence(rand.New(rand.NewSource(1))); got != "" {
		t.Error("empty dictionary should generate nothing, got:", got)
	}
}

func TestInsertWordCaseInsensitive(t *testing.T) {
	d := NewDictionary()
	d.LearnFromLine("Hello hello HELLO")

	if len(d.words) != 1 {
		t.Fatal("case variants should intern once, got:", d.words)
	}
	// The first spelling seen wins.
	if d.words[0] != "Hello" {
		t.Error("wrong kept spelling:", d.words[0])
	}
}

func TestLearnAccumulatesWeights(t *testing.T) {
	d := NewDictionary()
	d.LearnFromLine("a b")
	d.LearnFromLine("a b")

	continuations := d.dict[entry{start1, start2}]
	if len(continuations) != 1 {
		t.Fatal("expected one continuation, got:", continuations)
	}
	for _, weight := range continuations {
		if weight != 2 {
			t.Error("expected weight 2, got:", weight)
		}
	}
}

func TestDictionaryRoundTrip(t *testing.T) {
	d := NewDictionary()
	d.LearnFromLine("the quick brown fox")
	d.LearnFromLine("the lazy dog naps")
	d.LearnFromLine("quick naps help")

	restored, err := FromBytes(d.ToBytes())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	if !reflect.DeepEqual(d.words, restored.words) {
		t.Error("words differ:", d.words, restored.words)
	}
	if !reflect.DeepEqual(d.indexMap, restored.indexMap) {
		t.Error("index maps differ")
	}
	if !reflect.DeepEqual(d.dict, restored.dict) {
		t.Error("transition tables differ")
	}
}

func TestFromBytesTruncated(t *testing.T) {
	d := NewDictionary()
	d.LearnFromLine("a b c")
	blob := d.ToBytes()

	for _, cut := range []int{0, 2, len(blob) / 2, len(blob) - 1} {
		if _, err := FromBytes(blob[:cut]); err == nil {
			t.Errorf("truncation at %d should fail", cut)
		}
	}
}

func TestFromBytesEmptyDictionary(t *testing.T) {
	restored, err := FromBytes(NewDictionary().ToBytes())
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if len(restored.words) != 0 || len(restored.dict) != 0 {
		t.Error("expected an empty dictionary")
	}
}

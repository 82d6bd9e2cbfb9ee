// Package vocab maps the distinct characters of a corpus to dense integer
// ids and back. The table is built once from the full corpus and never
// mutated; both the trainer and the generator receive it as an explicit
// value.
package vocab

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
)

// Vocab is an immutable character table. Ids are assigned in sorted rune
// order, so the same corpus always yields the same table.
type Vocab struct {
	runes []rune
	ids   map[rune]int
}

// Build scans text and assigns an id to every distinct rune, in sorted
// order.
func Build(text string) *Vocab {
	seen := make(map[rune]struct{})
	for _, r := range text {
		seen[r] = struct{}{}
	}
	runes := make([]rune, 0, len(seen))
	for r := range seen {
		runes = append(runes, r)
	}
	sort.Slice(runes, func(i, j int) bool { return runes[i] < runes[j] })
	return fromRunes(runes)
}

func fromRunes(runes []rune) *Vocab {
	ids := make(map[rune]int, len(runes))
	for i, r := range runes {
		ids[r] = i
	}
	return &Vocab{runes: runes, ids: ids}
}

// Size returns the number of distinct characters in the table.
func (v *Vocab) Size() int { return len(v.runes) }

// ID returns the id for r and whether r is in the table.
func (v *Vocab) ID(r rune) (int, bool) {
	id, ok := v.ids[r]
	return id, ok
}

// Rune returns the character assigned to id.
func (v *Vocab) Rune(id int) (rune, bool) {
	if id < 0 || id >= len(v.runes) {
		return 0, false
	}
	return v.runes[id], true
}

// Encode maps text to ids. Runes that never appeared in the corpus the
// table was built from are dropped; since the table covers the full
// corpus, this only affects generation prompts.
func (v *Vocab) Encode(text string) []int {
	out := make([]int, 0, len(text))
	for _, r := range text {
		if id, ok := v.ids[r]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Decode maps ids back to text, skipping out-of-range ids.
func (v *Vocab) Decode(ids []int) string {
	var b strings.Builder
	for _, id := range ids {
		if id >= 0 && id < len(v.runes) {
			b.WriteRune(v.runes[id])
		}
	}
	return b.String()
}

type vocabFile struct {
	Chars string `json:"chars"`
	Size  int    `json:"size"`
}

// Save writes the table to path as JSON.
func (v *Vocab) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(vocabFile{Chars: string(v.runes), Size: len(v.runes)})
}

// Load reads a table previously written by Save, preserving the id
// assignment exactly.
func Load(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var vf vocabFile
	if err := json.NewDecoder(f).Decode(&vf); err != nil {
		return nil, err
	}
	return fromRunes([]rune(vf.Chars)), nil
}

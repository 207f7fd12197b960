// Package hexagram casts a hexagram from three drawn numbers and renders
// the divination answer.
package hexagram

import (
	"fmt"
	"strings"

	"yijing/internal/types"
)

// Trigram is one of the eight trigrams.
type Trigram struct {
	Name    string
	Symbol  string
	Element string
}

// Hexagram is an entry of the hexagram table.
type Hexagram struct {
	Number  int
	Name    string
	Meaning string
	Fortune string
}

// Trigrams is indexed by n % 8. Index 8 repeats 坤 so that table lookups by
// any value in 0..8 succeed.
var Trigrams = [9]Trigram{
	{Name: "坤", Symbol: "☷", Element: "地"},
	{Name: "乾", Symbol: "☰", Element: "天"},
	{Name: "兌", Symbol: "☱", Element: "澤"},
	{Name: "離", Symbol: "☲", Element: "火"},
	{Name: "震", Symbol: "☳", Element: "雷"},
	{Name: "巽", Symbol: "☴", Element: "風"},
	{Name: "坎", Symbol: "☵", Element: "水"},
	{Name: "艮", Symbol: "☶", Element: "山"},
	{Name: "坤", Symbol: "☷", Element: "地"},
}

// table is keyed by upper trigram name + lower trigram name.
var table = map[string]Hexagram{
	"乾乾": {Number: 1, Name: "乾為天", Meaning: "元亨利貞。剛健中正，自強不息。", Fortune: "大吉"},
	"坤坤": {Number: 2, Name: "坤為地", Meaning: "元亨，利牝馬之貞。", Fortune: "吉"},
	"坎震": {Number: 3, Name: "水雷屯", Meaning: "元亨利貞，勿用有攸往。", Fortune: "中平"},
	"艮坎": {Number: 4, Name: "山水蒙", Meaning: "亨。匪我求童蒙，童蒙求我。", Fortune: "中下"},
	"坎乾": {Number: 5, Name: "水天需", Meaning: "有孚，光亨，貞吉。", Fortune: "中上"},
	"乾坎": {Number: 6, Name: "天水訟", Meaning: "有孚，窒。惕中吉。", Fortune: "下下"},
	"坤坎": {Number: 7, Name: "地水師", Meaning: "貞，丈人，吉無咎。", Fortune: "中上"},
	"坎坤": {Number: 8, Name: "水地比", Meaning: "吉。原筮元永貞，無咎。", Fortune: "上上"},
	"巽乾": {Number: 9, Name: "風天小畜", Meaning: "亨。密雲不雨。", Fortune: "中下"},
	"乾兌": {Number: 10, Name: "天澤履", Meaning: "履虎尾，不咥人，亨。", Fortune: "中上"},
}

const fallbackKey = "乾乾"

// Lookup returns the hexagram for an upper/lower trigram pair.
func Lookup(upper, lower Trigram) (Hexagram, bool) {
	h, ok := table[upper.Name+lower.Name]
	return h, ok
}

// Reading is the result of casting three numbers.
type Reading struct {
	Numbers      [3]int
	Upper        Trigram
	Lower        Trigram
	Hexagram     Hexagram
	ChangingLine int
	// Known is false when the trigram pair is missing from the table and
	// the reading fell back to 乾為天.
	Known bool
}

// Cast computes the reading for three drawn numbers: the upper trigram comes
// from the second number, the lower from the first, and the changing line
// from the third.
func Cast(numbers [3]int) Reading {
	upper := Trigrams[mod(numbers[1], 8)]
	lower := Trigrams[mod(numbers[0], 8)]
	h, ok := Lookup(upper, lower)
	if !ok {
		h = table[fallbackKey]
	}
	line := mod(numbers[2], 6)
	if line == 0 {
		line = 6
	}
	return Reading{
		Numbers:      numbers,
		Upper:        upper,
		Lower:        lower,
		Hexagram:     h,
		ChangingLine: line,
		Known:        ok,
	}
}

func mod(n, m int) int {
	r := n % m
	if r < 0 {
		r += m
	}
	return r
}

// DTO converts the reading to its wire form.
func (r Reading) DTO() *types.HexagramDTO {
	return &types.HexagramDTO{
		Number:       r.Hexagram.Number,
		Name:         r.Hexagram.Name,
		Meaning:      r.Hexagram.Meaning,
		Fortune:      r.Hexagram.Fortune,
		ChangingLine: r.ChangingLine,
		Numbers:      r.Numbers[:],
	}
}

// Summary is the 卦象資訊 block shared by the answer box and the
// interpretation prompt.
func (r Reading) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "本卦：第 %d 卦 - %s\n", r.Hexagram.Number, r.Hexagram.Name)
	fmt.Fprintf(&b, "上卦：%s（%s）%s\n", r.Upper.Name, r.Upper.Element, r.Upper.Symbol)
	fmt.Fprintf(&b, "下卦：%s（%s）%s\n", r.Lower.Name, r.Lower.Element, r.Lower.Symbol)
	fmt.Fprintf(&b, "卦義：%s\n", r.Hexagram.Meaning)
	fmt.Fprintf(&b, "運勢：%s\n", r.Hexagram.Fortune)
	fmt.Fprintf(&b, "變爻：第 %d 爻", r.ChangingLine)
	return b.String()
}

package syntax

// SelectorKind tags a bracketed index/range/key narrowing a variable or
// method expansion (spec.md §4.3, "Selector").
type SelectorKind uint8

const (
	SelAll SelectorKind = iota
	SelIndex
	SelRange
	SelKey
)

// Selector is the parsed form of a `[...]` suffix.
type Selector struct {
	Kind SelectorKind

	Index int // SelIndex; negative counts from the end

	// SelRange: Lo/Hi hold the bound text as written; it is read as an
	// integer literal, not expanded. HasLo/HasHi mark open ends (".." / "..5").
	Lo, Hi       Word
	HasLo, HasHi bool
	Inclusive    bool // a '=' after the dots (`lo..=hi`) makes the range inclusive of Hi

	Key Word // SelKey: the key, used as literal text
}

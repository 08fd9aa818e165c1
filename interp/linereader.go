package interp

// LineReader is the external collaborator contract for an interactive
// front end (spec.md §1, "the line editor and history file ... consumed
// via a LineReader interface"): the core never reads raw stdin bytes for
// an interactive prompt itself, it asks a LineReader for one line at a
// time. ReadLine reports ok == false when the input stream is exhausted.
type LineReader interface {
	// ReadLine prompts with prompt and returns one line of input, without
	// its trailing newline. ok is false at end of input.
	ReadLine(prompt string) (line string, ok bool)
}

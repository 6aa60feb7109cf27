package command

import "strings"

// VerbAliases maps shorthand verbs to their canonical forms. Expansion only
// ever touches the first token of a line.
var VerbAliases = map[string]string{
	"Q":    "QUIT",
	"EXIT": "QUIT",
	"LS":   "LIST",
	"RM":   "REMOVE",
	"?":    "HELP",
	"H":    "HELP",
}

// ExpandVerb resolves verb through VerbAliases. verb must already be
// upper-cased.
func ExpandVerb(verb string) string {
	if expansion, ok := VerbAliases[verb]; ok {
		return expansion
	}
	return verb
}

// ParseCommand splits toParse into a Command. The verb is upper-cased and
// alias-expanded; arguments keep their original case and are split on runs
// of whitespace.
//
// An empty or whitespace-only input parses to a zero Command with a nil
// error.
func ParseCommand(toParse string) (Command, error) {
	fields := strings.Fields(toParse)
	if len(fields) < 1 {
		return Command{}, nil
	}

	return Command{
		Verb: ExpandVerb(strings.ToUpper(fields[0])),
		Args: fields[1:],
	}, nil
}

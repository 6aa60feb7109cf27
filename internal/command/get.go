package command

import (
	"bufio"
	"fmt"
)

// Reader is a type that can be used for getting command input.
type Reader interface {
	// ReadCommand reads a single user command. It will block until one is
	// ready. If there is an error or input is at end (EOF), the returned
	// string will be empty, otherwise it will always be non-empty.
	ReadCommand() (string, error)

	// Close performs any operations required to clean up the resources
	// created by the Reader. It should be called at least once when the
	// Reader is no longer needed.
	Close() error
}

// Get obtains a single command from input by reading from the provided
// Reader. It reads lines until one parses to a Command with a non-empty
// verb.
func Get(cmdStream Reader, ostream *bufio.Writer) (Command, error) {
	var cmd Command

	for cmd.Verb == "" {
		input, err := cmdStream.ReadCommand()
		if err != nil {
			return cmd, fmt.Errorf("could not get input: %w", err)
		}

		cmd, err = ParseCommand(input)
		if err != nil {
			if _, werr := ostream.WriteString(err.Error() + "\n"); werr != nil {
				return cmd, fmt.Errorf("could not write output: %w", werr)
			}
			if werr := ostream.Flush(); werr != nil {
				return cmd, fmt.Errorf("could not flush output: %w", werr)
			}
		}
	}

	return cmd, nil
}

/*
Dtlsi starts an interactive debug session against the devicetree language
server's analysis core, without going through the JSON-RPC transport.

It can open a root devicetree source file as a context and then accept
commands to list contexts, switch the active one, inspect diagnostics, dump
compiled output, or list symbols - useful for exercising internal/dts/context
and internal/dts/query from a terminal while developing or diagnosing an
editor integration.

Usage:

	dtlsi [flags]

The flags are:

	-v, --version
		Give the current version of dtls and then exit.

	-r, --root FILE
		Open the given devicetree source file as the initial context's root.

	-d, --direct
		Force reading directly from the console as opposed to using GNU
		readline based routines for reading command input even if launched in
		a tty with stdin and stdout.

	-c, --command COMMANDS
		Immediately run the given command(s) at start. Can be multiple
		commands separated by the ";" character.

Once a session has started, type "help" for the list of available commands.
To exit the interpreter, type "quit".
*/
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"

	"github.com/dkrn/dts-ls/internal/command"
	"github.com/dkrn/dts-ls/internal/dts/context"
	"github.com/dkrn/dts-ls/internal/dts/context/cache"
	"github.com/dkrn/dts-ls/internal/dts/query"
	"github.com/dkrn/dts-ls/internal/dts/settings"
	"github.com/dkrn/dts-ls/internal/input"
	"github.com/dkrn/dts-ls/internal/version"
)

const (
	ExitSuccess = iota
	ExitSessionError
	ExitInitError
)

// consoleOutputWidth is the column width diagnostic text is wrapped to
// before being printed.
const consoleOutputWidth = 80

var (
	returnCode   = ExitSuccess
	flagVersion  = pflag.BoolP("version", "v", false, "Gives the version info")
	rootFile     = pflag.StringP("root", "r", "", "A devicetree source file to open as the initial context's root")
	forceDirect  = pflag.BoolP("direct", "d", false, "Force reading directly from stdin instead of going through GNU readline where possible")
	startCommand = pflag.StringP("command", "c", "", "Execute the given debug commands immediately at start and leave the interpreter open")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occured: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return
	}

	sess := newSession()
	defer sess.close()

	if *rootFile != "" {
		if _, err := sess.mgr.AddContext("root", *rootFile, nil); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: could not open %q: %s\n", *rootFile, err.Error())
			returnCode = ExitInitError
			return
		}
	}

	var startCommands []string
	if *startCommand != "" {
		startCommands = strings.Split(*startCommand, ";")
	}

	if err := sess.run(startCommands); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitSessionError
	}
}

// session holds the interactive debug state: one context.Manager and the
// command reader driving it.
type session struct {
	mgr *context.Manager
	in  command.Reader
	out *bufio.Writer
}

func newSession() *session {
	useReadline := !*forceDirect && !pflag.Lookup("command").Changed

	var reader command.Reader
	var err error
	if useReadline {
		reader, err = input.NewInteractiveReader()
		if err != nil {
			reader = input.NewDirectReader(os.Stdin)
		}
	} else {
		reader = input.NewDirectReader(os.Stdin)
	}

	return &session{
		mgr: context.NewManager(settings.Settings{}, cache.NewMemory()),
		in:  reader,
		out: bufio.NewWriter(os.Stdout),
	}
}

func (s *session) close() error {
	return s.in.Close()
}

// run executes any startCommands first, then drops into the interactive
// loop until "quit" is received or input reaches EOF.
func (s *session) run(startCommands []string) error {
	fmt.Println("dts-ls debug session")
	fmt.Println("=====================")
	fmt.Println(`type "help" for a list of commands, "quit" to exit`)

	for _, c := range startCommands {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		cmd, err := command.ParseCommand(c)
		if err != nil {
			return fmt.Errorf("parse startup command %q: %w", c, err)
		}
		if !s.dispatch(cmd) {
			return nil
		}
	}

	for {
		cmd, err := command.Get(s.in, s.out)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("get command: %w", err)
		}
		if !s.dispatch(cmd) {
			return nil
		}
	}
}

// dispatch runs one parsed Command. It returns false when the session
// should end.
func (s *session) dispatch(cmd command.Command) bool {
	if cmd.Verb == "" {
		return true
	}

	switch cmd.Verb {
	case "QUIT":
		fmt.Println("goodbye")
		return false
	case "HELP":
		s.printHelp()
	case "OPEN":
		s.cmdOpen(cmd.Args)
	case "LIST":
		s.cmdList()
	case "USE":
		s.cmdUse(cmd.Args)
	case "ACTIVE":
		s.cmdActive()
	case "REBUILD":
		s.cmdRebuild(cmd.Args)
	case "REMOVE":
		s.cmdRemove(cmd.Args)
	case "DIAG":
		s.cmdDiag(cmd.Args)
	case "SYMBOLS":
		s.cmdSymbols(cmd.Args)
	case "COMPILED":
		s.cmdCompiled(cmd.Args)
	default:
		fmt.Printf("unrecognized command %q, type \"help\" for the list\n", strings.ToLower(cmd.Verb))
	}
	return true
}

func (s *session) printHelp() {
	fmt.Print(`commands (aliases in parens):
  open NAME FILE      open FILE as the root of a new context named NAME
  list (ls)           list all contexts
  use ID_OR_NAME      switch the active context
  active              show the active context
  rebuild ID          re-evaluate a context from disk
  remove ID (rm)      tear down a context
  diag [ID]           show diagnostics (active context if ID omitted)
  symbols [ID]        show the symbol tree (active context if ID omitted)
  compiled [ID]       show compiled devicetree source
  quit (q, exit)      end the session
`)
}

func (s *session) cmdOpen(args []string) {
	if len(args) != 2 {
		fmt.Println(`usage: open NAME FILE`)
		return
	}
	c, err := s.mgr.AddContext(args[0], args[1], nil)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		return
	}
	fmt.Printf("opened context %s (%s)\n", c.ID, c.Name)
}

func (s *session) cmdList() {
	ctxs := s.mgr.GetContexts()
	if len(ctxs) == 0 {
		fmt.Println("(no contexts)")
		return
	}
	for _, c := range ctxs {
		fmt.Printf("%s\t%-12s stable=%-5v generation=%d\n", c.ID, c.Name, c.Stable(), c.Generation())
	}
}

func (s *session) cmdUse(args []string) {
	if len(args) != 1 {
		fmt.Println(`usage: use ID_OR_NAME`)
		return
	}
	c, err := s.mgr.SetActive(args[0])
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		return
	}
	fmt.Printf("active context is now %s (%s)\n", c.ID, c.Name)
}

func (s *session) cmdActive() {
	c, ok := s.mgr.ActiveContext()
	if !ok {
		fmt.Println("(no active context)")
		return
	}
	fmt.Printf("%s\t%s\troot=%s\n", c.ID, c.Name, c.RootURI)
}

func (s *session) cmdRebuild(args []string) {
	id, ok := s.resolveID(args)
	if !ok {
		return
	}
	c, err := s.mgr.RequestContext(id, "", "", nil)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		return
	}
	fmt.Printf("rebuilt %s, now at generation %d, stable=%v\n", c.ID, c.Generation(), c.Stable())
}

func (s *session) cmdRemove(args []string) {
	id, ok := s.resolveID(args)
	if !ok {
		return
	}
	if err := s.mgr.RemoveContext(id); err != nil {
		fmt.Printf("error: %s\n", err.Error())
		return
	}
	fmt.Printf("removed %s\n", id)
}

func (s *session) cmdDiag(args []string) {
	c, ok := s.contextOrActive(args)
	if !ok {
		return
	}
	diags := c.Diagnostics()
	if len(diags) == 0 {
		fmt.Println("(no diagnostics)")
		return
	}
	for _, d := range diags {
		msg := rosed.Edit(d.Message()).Wrap(consoleOutputWidth).String()
		fmt.Printf("[%s] %s: %s\n", d.Severity.String(), d.Range.String(), msg)
	}
}

func (s *session) cmdSymbols(args []string) {
	c, ok := s.contextOrActive(args)
	if !ok {
		return
	}
	syms := query.Symbols(c.Result().Root)
	if len(syms) == 0 {
		fmt.Println("(no symbols)")
		return
	}
	for _, sym := range syms {
		printSymbol(sym, 0)
	}
}

func printSymbol(s query.Symbol, depth int) {
	fmt.Printf("%s%s\t%s\n", strings.Repeat("  ", depth), s.Name, s.Path)
	for _, c := range s.Children {
		printSymbol(c, depth+1)
	}
}

func (s *session) cmdCompiled(args []string) {
	c, ok := s.contextOrActive(args)
	if !ok {
		return
	}
	fmt.Println(query.CompiledDTSOutput(c.Result().Root))
}

// resolveID returns args[0] if present, otherwise the active context's ID.
func (s *session) resolveID(args []string) (string, bool) {
	if len(args) >= 1 {
		return args[0], true
	}
	c, ok := s.mgr.ActiveContext()
	if !ok {
		fmt.Println("error: no ID given and no active context")
		return "", false
	}
	return c.ID, true
}

func (s *session) contextOrActive(args []string) (*context.Context, bool) {
	if len(args) >= 1 {
		for _, c := range s.mgr.GetContexts() {
			if c.ID == args[0] {
				return c, true
			}
		}
		fmt.Printf("error: no such context %q\n", args[0])
		return nil, false
	}
	c, ok := s.mgr.ActiveContext()
	if !ok {
		fmt.Println("error: no active context")
		return nil, false
	}
	return c, true
}

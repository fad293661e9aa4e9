package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

type Options struct {
	// Args is argv without the program name (typically os.Args[1:]).
	Args []string

	// In/Out/Err override standard I/O. If nil, the os ones are used.
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Context is passed to a command handler. Flag values are read through the pointers (or Values) bound when the command was built.
type Context struct {
	context.Context

	Command *Command
	Args    []string

	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run parses opts.Args against the tree under root, runs the selected command, and returns a process exit code: 0 on success, 2 for usage errors
// (which also print the command's help to Err), and otherwise 1 or the code of an ExitCoder.
func Run(ctx context.Context, root *Command, opts Options) int {
	if root == nil {
		panic("cli: Run called with nil root")
	}
	if root.Name == "" {
		panic("cli: Run called with root.Name empty")
	}

	c := &Context{Context: ctx, In: opts.In, Out: opts.Out, Err: opts.Err}
	if c.In == nil {
		c.In = os.Stdin
	}
	if c.Out == nil {
		c.Out = os.Stdout
	}
	if c.Err == nil {
		c.Err = os.Stderr
	}

	selected, args, err := parseArgv(root, opts.Args, c.Out)
	switch {
	case errors.Is(err, errHelpPrinted):
		return 0
	case err != nil:
		printUsageError(c.Err, selected, err)
		return 2
	case selected.Run == nil && len(args) == 0:
		printUsageError(c.Err, selected, usageErrorf("missing required subcommand"))
		return 2
	case selected.Run == nil:
		printUsageError(c.Err, selected, usageErrorf("unknown subcommand: %s", args[0]))
		return 2
	}

	if selected.Args != nil {
		if err := selected.Args(args); err != nil {
			return exitCode(c.Err, selected, err, true)
		}
	}

	c.Command, c.Args = selected, args
	if err := selected.Run(c); err != nil {
		return exitCode(c.Err, selected, err, false)
	}
	return 0
}

// exitCode reports err and returns the exit code for it. Errors with code 2 print usage. Other errors print just their message, unless they come from
// argument validation (argsErr), which is always a usage error unless it carries its own code.
func exitCode(w io.Writer, cmd *Command, err error, argsErr bool) int {
	code := 1
	if argsErr {
		code = 2
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		code = ec.ExitCode()
	}

	switch code {
	case 0:
	case 2:
		printUsageError(w, cmd, err)
	default:
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(w, msg)
		}
	}
	return code
}

func printUsageError(w io.Writer, cmd *Command, err error) {
	msg := err.Error()
	var ue UsageError
	if errors.As(err, &ue) {
		msg = ue.Message
	}
	if msg != "" {
		fmt.Fprintf(w, "%s\n\n", msg)
	}
	writeHelp(w, cmd)
}

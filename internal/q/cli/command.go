// Package cli is a small command-tree CLI framework: commands with aliases, local and persistent typed flags, positional arg validators, generated help,
// and exit codes (0 ok, 1 failure, 2 usage).
package cli

import "slices"

// RunFunc is a command handler.
type RunFunc func(c *Context) error

// ArgsFunc validates positional args. Usage mistakes should be reported as a UsageError (or any ExitCoder with code 2).
type ArgsFunc func(args []string) error

// Command is one node of a command tree.
type Command struct {
	Name    string   // token that invokes the command ("accept" in "prog accept")
	Aliases []string // other tokens that invoke it

	Short   string
	Long    string
	Example string

	Args ArgsFunc // optional
	Run  RunFunc  // optional; a command without Run only groups subcommands

	parent     *Command
	children   []*Command
	local      *FlagSet
	persistent *FlagSet
}

// AddCommand attaches children to c. It panics on a nil or unnamed child, or one that already has a parent.
func (c *Command) AddCommand(children ...*Command) {
	for _, child := range children {
		switch {
		case child == nil:
			panic("cli: AddCommand called with nil child")
		case child.parent != nil:
			panic("cli: AddCommand called with a child already attached to a parent")
		case child.Name == "":
			panic("cli: AddCommand called with a child with empty Name")
		}
		child.parent = c
		c.children = append(c.children, child)
	}
}

// Commands returns a copy of c's direct children.
func (c *Command) Commands() []*Command {
	return slices.Clone(c.children)
}

// Flags returns the flags that only c accepts.
func (c *Command) Flags() *FlagSet {
	if c.local == nil {
		c.local = newFlagSet()
	}
	return c.local
}

// PersistentFlags returns the flags accepted by c and all of its descendants.
func (c *Command) PersistentFlags() *FlagSet {
	if c.persistent == nil {
		c.persistent = newFlagSet()
	}
	return c.persistent
}

func (c *Command) child(token string) *Command {
	for _, ch := range c.children {
		if ch.Name == token || slices.Contains(ch.Aliases, token) {
			return ch
		}
	}
	return nil
}

// path returns the commands from the root down to c.
func (c *Command) path() []*Command {
	var p []*Command
	for cur := c; cur != nil; cur = cur.parent {
		p = append(p, cur)
	}
	slices.Reverse(p)
	return p
}

package cli

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Value is a flag's value. Flags of any type can be registered with FlagSet.Var.
type Value interface {
	String() string
	Set(string) error
	Type() string // shown in help, e.g. "line:col"
}

// boolFlag is implemented by values that don't take an argument: "--flag" means "--flag=true".
type boolFlag interface {
	IsBoolFlag() bool
}

type boolValue bool

func (b *boolValue) String() string   { return strconv.FormatBool(bool(*b)) }
func (b *boolValue) Type() string     { return "bool" }
func (b *boolValue) IsBoolFlag() bool { return true }
func (b *boolValue) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = boolValue(v)
	return nil
}

type stringValue string

func (s *stringValue) String() string     { return string(*s) }
func (s *stringValue) Type() string       { return "string" }
func (s *stringValue) Set(v string) error { *s = stringValue(v); return nil }

type intValue int

func (i *intValue) String() string { return strconv.Itoa(int(*i)) }
func (i *intValue) Type() string   { return "int" }
func (i *intValue) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*i = intValue(v)
	return nil
}

// flag is one registered flag.
type flag struct {
	name      string
	shorthand rune // 0 if none
	usage     string
	value     Value
	changed   bool
}

func (f *flag) isBool() bool {
	b, ok := f.value.(boolFlag)
	return ok && b.IsBoolFlag()
}

func (f *flag) display() string {
	if f.shorthand != 0 {
		return fmt.Sprintf("-%c/--%s", f.shorthand, f.name)
	}
	return "--" + f.name
}

// FlagSet is the set of flags a command declares. A shorthand of 0 means the flag has no one-letter form.
type FlagSet struct {
	flags []*flag
}

func newFlagSet() *FlagSet {
	return &FlagSet{}
}

// Bool registers a boolean flag and returns where its value is stored.
func (fs *FlagSet) Bool(name string, shorthand rune, def bool, usage string) *bool {
	p := new(bool)
	*p = def
	fs.Var((*boolValue)(p), name, shorthand, usage)
	return p
}

// String registers a string flag and returns where its value is stored.
func (fs *FlagSet) String(name string, shorthand rune, def string, usage string) *string {
	p := new(string)
	*p = def
	fs.Var((*stringValue)(p), name, shorthand, usage)
	return p
}

// Int registers an int flag and returns where its value is stored.
func (fs *FlagSet) Int(name string, shorthand rune, def int, usage string) *int {
	p := new(int)
	*p = def
	fs.Var((*intValue)(p), name, shorthand, usage)
	return p
}

// Var registers a flag parsed by v. v's value before parsing is the default. It panics on an empty name, a nil v, or a duplicate name or shorthand.
func (fs *FlagSet) Var(v Value, name string, shorthand rune, usage string) {
	switch {
	case name == "":
		panic("cli: flag name must be non-empty")
	case v == nil:
		panic("cli: Var called with nil Value")
	case fs.lookup(name) != nil:
		panic("cli: duplicate flag: --" + name)
	case shorthand != 0 && fs.lookupShort(shorthand) != nil:
		panic(fmt.Sprintf("cli: duplicate shorthand flag: -%c", shorthand))
	}
	fs.flags = append(fs.flags, &flag{name: name, shorthand: shorthand, usage: usage, value: v})
}

// Changed reports whether the flag name was set on the command line.
func (fs *FlagSet) Changed(name string) bool {
	f := fs.lookup(name)
	return f != nil && f.changed
}

func (fs *FlagSet) lookup(name string) *flag {
	for _, f := range fs.flags {
		if f.name == name {
			return f
		}
	}
	return nil
}

func (fs *FlagSet) lookupShort(r rune) *flag {
	for _, f := range fs.flags {
		if f.shorthand == r {
			return f
		}
	}
	return nil
}

// activeFlags returns the flags c accepts: the persistent flags of c and its ancestors, then c's local flags. It panics if two of them conflict.
func (c *Command) activeFlags() *FlagSet {
	active := newFlagSet()
	add := func(fs *FlagSet) {
		if fs == nil {
			return
		}
		for _, f := range fs.flags {
			if active.lookup(f.name) != nil {
				panic("cli: flag name conflict across command path: --" + f.name)
			}
			if f.shorthand != 0 && active.lookupShort(f.shorthand) != nil {
				panic(fmt.Sprintf("cli: shorthand conflict across command path: -%c", f.shorthand))
			}
			active.flags = append(active.flags, f)
		}
	}
	for _, cmd := range c.path() {
		add(cmd.persistent)
	}
	add(c.local)
	slices.SortFunc(active.flags, func(a, b *flag) int { return strings.Compare(a.name, b.name) })
	return active
}

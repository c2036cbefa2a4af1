package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
)

// Command is one devtool subcommand
type Command interface {
	Name() string
	Description() string
	Run(args []string) error
}

// Registry maps subcommand names to commands
type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds cmd, replacing any command with the same name
func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

func (r *Registry) Get(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns the commands ordered by name
func (r *Registry) List() []Command {
	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	slices.SortFunc(cmds, func(a, b Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return cmds
}

// PrintHelp prints usage to stdout
func (r *Registry) PrintHelp() {
	r.WriteHelp(stdout)
}

// WriteHelp writes usage with aligned descriptions
func (r *Registry) WriteHelp(w io.Writer) {
	fmt.Fprintln(w, "Usage: devtool <command> [args...]")
	fmt.Fprintln(w, "\nAvailable Commands:")

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, cmd := range r.List() {
		fmt.Fprintf(tw, "  %s\t%s\n", cmd.Name(), cmd.Description())
	}
	_ = tw.Flush()
}

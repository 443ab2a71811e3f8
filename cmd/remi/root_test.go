package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func findCommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("%s has no %q subcommand", parent.Name(), name)
	return nil
}

func TestCommandTree(t *testing.T) {
	root := rootCmd()

	for _, name := range []string{"login", "logout", "reminders", "locations", "history"} {
		findCommand(t, root, name)
	}

	locations := findCommand(t, root, "locations")
	findCommand(t, locations, "list")
	findCommand(t, locations, "add")
}

func TestRemindersEditCommand(t *testing.T) {
	edit := findCommand(t, findCommand(t, rootCmd(), "reminders"), "edit")

	for _, flag := range []string{"category", "text", "trigger", "value"} {
		if edit.Flags().Lookup(flag) == nil {
			t.Errorf("edit is missing the --%s flag", flag)
		}
	}

	if err := edit.Args(edit, []string{}); err == nil {
		t.Error("edit should require a note id argument")
	}
	if err := edit.Args(edit, []string{"6ba7b810-9dad-11d1-80b4-00c04fd430c8"}); err != nil {
		t.Errorf("edit rejected a single note id: %v", err)
	}
}

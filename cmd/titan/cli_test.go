package main

import (
	"testing"
)

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "titan" {
		t.Errorf("rootCmd.Use = %q, want titan", rootCmd.Use)
	}

	for _, name := range []string{"run", "validate", "version", "completion"} {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want version", versionCmd.Use)
	}
	if versionCmd.Run == nil {
		t.Error("versionCmd.Run should not be nil")
	}
}

func TestRunCommandFlags(t *testing.T) {
	for _, flag := range []string{"listen", "log-level", "dry-run"} {
		if runCmd.Flags().Lookup(flag) == nil {
			t.Errorf("run command is missing flag %q", flag)
		}
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestVersionCommandPrintsVersion(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("basicc "+version)) {
		t.Errorf("expected version output, got %q", out.String())
	}
}

func TestInitCommandScaffoldsProject(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(cwd)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"init", "demo"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "demo", "main.basic")); err != nil {
		t.Errorf("expected demo/main.basic to exist: %v", err)
	}
}

func TestCheckCommandOnCleanProgramSucceeds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.basic")
	if err := os.WriteFile(path, []byte("DIM X AS INTEGER\nX = 1\nPRINT X\n"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{"check", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("expected check to pass on a clean program, got: %v", err)
	}
}

func TestCheckCommandOnBrokenProgramFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.basic")
	if err := os.WriteFile(path, []byte("OPTION EXPLICIT\nX = 1\n"), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cmd := newRootCmd()
	cmd.SetArgs([]string{"check", path})
	if err := cmd.Execute(); err == nil {
		t.Error("expected check to fail on an undeclared variable under OPTION EXPLICIT")
	}
}

func TestColorizeLeavesTextUnchangedWhenNotATerminal(t *testing.T) {
	text := "error: prog.bas:1:1: boom\n"
	if got := colorize(text, false); got != text {
		t.Errorf("expected colorize(false) to be a no-op, got %q", got)
	}
}

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the root command with a non-existent env file so only the
// defaults and the process environment apply.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	env := filepath.Join(t.TempDir(), "missing.env")
	rootCmd.SetArgs(append([]string{"--env", env}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReferenceCommand(t *testing.T) {
	out, err := run(t, "reference", "--check=false", "--plain=false", "1")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != "00 00000 00000 00000 00001 00002" {
		t.Errorf("reference = %q", got)
	}

	out, err = run(t, "reference", "--check=false", "--plain", "1")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != "000000000000000000000100002" {
		t.Errorf("plain reference = %q", got)
	}

	if _, err := run(t, "reference", "--check", "--plain=false", "00 00000 00000 00000 00001 00002"); err != nil {
		t.Errorf("valid reference rejected: %v", err)
	}
	if _, err := run(t, "reference", "--check", "--plain=false", "00 00000 00000 00000 00001 00003"); err == nil {
		t.Error("expected check digit error")
	}
	if _, err := run(t, "reference", "--check=false", "--plain=false", strings.Repeat("9", 23)); err == nil {
		t.Error("expected error for a 23 digit order id")
	}
}

func TestConditionsCommand(t *testing.T) {
	out, err := run(t, "conditions", "--date", "2026-03-01", "--total", "118.10", "2:10;0:30")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"2026-03-11", "115.75", "2026-03-31", "118.10"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %s:\n%s", want, out)
		}
	}

	if _, err := run(t, "conditions", "--date", "2026-03-01", "--total", "10", "2:10"); err == nil {
		t.Error("expected error for conditions without a 0 % clause")
	}
	if _, err := run(t, "conditions", "--date", "01.03.2026", "--total", "10", "0:30"); err == nil {
		t.Error("expected error for a bad date")
	}
}

func TestIBANCommand(t *testing.T) {
	out, err := run(t, "iban", "CH44 3199 9123 0008 8901 2")
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out); got != "CH4431999123000889012 QR-IBAN" {
		t.Errorf("iban = %q", got)
	}
	if _, err := run(t, "iban", "CH00 0000 0000 0000 0000 0"); err == nil {
		t.Error("expected invalid IBAN")
	}
}

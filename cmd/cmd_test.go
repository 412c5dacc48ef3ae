package cmd

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	want := []string{"serve", "reindex", "version", "hash-password"}

	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRunHashPassword(t *testing.T) {
	if err := runHashPassword(""); err == nil {
		t.Error("empty password should be rejected")
	}
}

func TestBcryptHashVerifies(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	if !strings.HasPrefix(string(hash), "$2") {
		t.Errorf("hash %q missing bcrypt prefix", hash)
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte("hunter2")); err != nil {
		t.Errorf("CompareHashAndPassword: %v", err)
	}
}

func TestVersionDefaults(t *testing.T) {
	if Version == "" || BuildTime == "" || GitCommit == "" {
		t.Error("version variables must have defaults for non-ldflags builds")
	}
}

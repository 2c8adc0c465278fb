package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/polkiloo/rewardengine/internal/pkg/auth"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestRunIssuesParsableToken(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-subject", "42", "-ttl", "1h"}, env(map[string]string{"TOKEN_SECRET": "s3cr3t"}), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	token := strings.TrimSpace(out.String())
	subject, err := auth.NewHMACStrategy("s3cr3t", auth.Options{}).ParseToken(token)
	if err != nil {
		t.Fatalf("token rejected: %v", err)
	}
	if subject != 42 {
		t.Fatalf("expected subject 42, got %d", subject)
	}
}

func TestRunSecretFlagOverridesEnv(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-secret", "flag", "-subject", "1"}, env(map[string]string{"TOKEN_SECRET": "env"}), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	token := strings.TrimSpace(out.String())
	if _, err := auth.NewHMACStrategy("env", auth.Options{}).ParseToken(token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected env secret to be ignored, got %v", err)
	}
}

func TestRunHonoursTTL(t *testing.T) {
	issued := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	nowFunc = func() time.Time { return issued }
	t.Cleanup(func() { nowFunc = time.Now })

	var out bytes.Buffer
	if err := run([]string{"-secret", "s", "-subject", "1", "-ttl", "1m"}, env(nil), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	later := auth.NewHMACStrategy("s", auth.Options{Now: func() time.Time { return issued.Add(2 * time.Minute) }})
	if _, err := later.ParseToken(strings.TrimSpace(out.String())); !errors.Is(err, auth.ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestRunValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing secret", args: []string{"-subject", "1"}},
		{name: "missing subject", args: []string{"-secret", "s"}},
		{name: "negative ttl", args: []string{"-secret", "s", "-subject", "1", "-ttl", "-1h"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args, env(nil), &bytes.Buffer{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

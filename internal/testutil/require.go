// Package testutil holds the small assertion helpers shared by tests.
package testutil

import (
	"reflect"
	"strings"
	"testing"
)

// RequireNoError fails the test immediately if err is non-nil.
func RequireNoError(t *testing.T, err error, message string) {
	t.Helper()
	if err == nil {
		return
	}
	if message == "" {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Fatalf("%s: %v", message, err)
}

// RequireError fails the test immediately if err is nil.
func RequireError(t *testing.T, err error, message string) {
	t.Helper()
	if err != nil {
		return
	}
	if message == "" {
		t.Fatal("expected an error")
	}
	t.Fatalf("%s: expected an error", message)
}

// RequireEqual fails the test immediately when values are not deeply equal.
func RequireEqual(t *testing.T, got any, want any, message string) {
	t.Helper()
	if reflect.DeepEqual(got, want) {
		return
	}
	if message == "" {
		t.Fatalf("values differ.\nwant: %#v\ngot:  %#v", want, got)
	}
	t.Fatalf("%s.\nwant: %#v\ngot:  %#v", message, want, got)
}

// RequireTrue fails the test immediately if condition is false.
func RequireTrue(t *testing.T, condition bool, message string) {
	t.Helper()
	if condition {
		return
	}
	if message == "" {
		t.Fatal("expected condition to be true")
	}
	t.Fatalf("%s.", message)
}

// RequireStringContains fails the test immediately if substring is missing.
func RequireStringContains(t *testing.T, haystack string, needle string, message string) {
	t.Helper()
	if needle == "" || strings.Contains(haystack, needle) {
		return
	}
	if message == "" {
		t.Fatalf("expected %q to contain %q", haystack, needle)
	}
	t.Fatalf("%s: expected %q to contain %q", message, haystack, needle)
}

// RequireNotContains fails the test immediately if substring is present.
func RequireNotContains(t *testing.T, haystack string, needle string, message string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		return
	}
	if message == "" {
		t.Fatalf("expected %q not to contain %q", haystack, needle)
	}
	t.Fatalf("%s: expected %q not to contain %q", message, haystack, needle)
}

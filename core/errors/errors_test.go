package errors

import (
	"strings"
	"testing"
)

func TestWriteErrorMessage(t *testing.T) {
	e := &WriteError{
		Message:     "bad element",
		IRStart:     5,
		IREnd:       20,
		SourceStart: 2,
		SourceEnd:   10,
	}
	got := e.Error()
	if !strings.Contains(got, "source 2-10") || !strings.Contains(got, "ir 5-20") {
		t.Errorf("Error() = %q, missing ranges", got)
	}

	noSource := &WriteError{Message: "bad element", IRStart: 5, IREnd: 20, SourceStart: -1, SourceEnd: -1}
	got = noSource.Error()
	if strings.Contains(got, "source") {
		t.Errorf("Error() = %q, should omit source range", got)
	}
}

func TestWriteErrorUnwrap(t *testing.T) {
	e := &WriteError{Message: "x", Err: ErrUnknownTag}
	if !Is(e, ErrUnknownTag) {
		t.Error("Is(e, ErrUnknownTag) = false")
	}
	plain := &WriteError{Message: "x"}
	if !Is(plain, ErrInvalidInput) {
		t.Error("Is(plain, ErrInvalidInput) = false")
	}
}

func TestUnsupportedError(t *testing.T) {
	e := NewUnsupported("serializer", "toml")
	if !Is(e, ErrUnsupported) {
		t.Error("Is(e, ErrUnsupported) = false")
	}
	if !strings.Contains(e.Error(), "serializer") {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestParseError(t *testing.T) {
	e := NewParse("IR", 42, "boom")
	if !strings.Contains(e.Error(), "offset 42") {
		t.Errorf("Error() = %q", e.Error())
	}
	noOffset := NewParse("IR", -1, "boom")
	if strings.Contains(noOffset.Error(), "offset") {
		t.Errorf("Error() = %q, should omit offset", noOffset.Error())
	}
}

func TestCollection(t *testing.T) {
	c := NewCollection()
	if c.First() != nil {
		t.Error("First() on empty collection should be nil")
	}

	c.Add(&WriteError{Message: "first"})
	c.Add(&WriteError{Message: "second"})
	c.Warn("watch out %d", 7)

	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
	errs := c.Errors()
	if len(errs) != 2 || errs[0].Message != "first" {
		t.Errorf("Errors() = %v", errs)
	}
	if got := c.First().(*WriteError).Message; got != "first" {
		t.Errorf("First().Message = %q, want %q", got, "first")
	}
	warnings := c.Warnings()
	if len(warnings) != 1 || warnings[0] != "watch out 7" {
		t.Errorf("Warnings() = %v", warnings)
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(ErrUnknownTag, "parsing %s", "thing")
	if !Is(err, ErrUnknownTag) {
		t.Error("wrapped error lost its target")
	}
	if Wrapf(nil, "x") != nil {
		t.Error("Wrapf(nil) should be nil")
	}
}

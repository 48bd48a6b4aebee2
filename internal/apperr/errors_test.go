package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"invalid", InvalidInput("save", "Please type your signature."), KindInvalidInput},
		{"wrapped precondition", fmt.Errorf("commit: %w", MissingPrecondition("flatten", "No PDF file found.")), KindMissingPrecondition},
		{"external", External("render", "cannot parse document", errors.New("bad xref")), KindExternalFailure},
		{"superseded", fmt.Errorf("load: %w", ErrSuperseded), KindMissingPrecondition},
		{"plain", errors.New("boom"), KindInternal},
	}
	for _, tc := range tests {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("%s: KindOf = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", InvalidInput("save", "Please select a font style."))
	if !errors.Is(err, &Error{Kind: KindInvalidInput}) {
		t.Fatal("expected kind match")
	}
	if errors.Is(err, &Error{Kind: KindExternalFailure}) {
		t.Fatal("unexpected match on different kind")
	}
	if errors.Is(err, &Error{Kind: KindInvalidInput, Op: "upload"}) {
		t.Fatal("unexpected match on different op")
	}
}

func TestMessage(t *testing.T) {
	cause := errors.New("xref broken")
	err := External("render", "", cause)
	if got := Message(err); got != "xref broken" {
		t.Fatalf("Message = %q", got)
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be unwrapped")
	}
	if got := Message(InvalidInput("upload", "Please upload a valid PDF file.")); got != "Please upload a valid PDF file." {
		t.Fatalf("Message = %q", got)
	}
}

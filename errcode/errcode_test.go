package errcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":             OK,
		"not_supported":  NotSupported,
		"io_error":       IOError,
		"invalid_config": InvalidConfig,
		"error":          Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c.Error())
		}
	}
}

func TestOf(t *testing.T) {
	cause := errors.New("nack")
	wrapped := fmt.Errorf("attr: %w", Wrap(IOError, "attr_set", cause))

	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"nil", nil, OK},
		{"bare code", NotSupported, NotSupported},
		{"E", Wrap(InvalidConfig, "init", nil), InvalidConfig},
		{"wrapped E", wrapped, IOError},
		{"foreign", cause, Error},
	}
	for _, tc := range cases {
		if got := Of(tc.err); got != tc.want {
			t.Errorf("%s: Of() = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestEMatchesCodeAndCause(t *testing.T) {
	cause := errors.New("nack")
	err := Wrap(IOError, "attr_set", cause)
	if !errors.Is(err, IOError) {
		t.Fatal("errors.Is(err, IOError) = false")
	}
	if errors.Is(err, NotSupported) {
		t.Fatal("errors.Is(err, NotSupported) = true")
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause not reachable through Unwrap")
	}
	if got, want := err.Error(), "attr_set: io_error: nack"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestOfPrefersOutermostE(t *testing.T) {
	err := Wrap(IOError, "attr_set", NotSupported)
	if got := Of(err); got != IOError {
		t.Fatalf("Of() = %q, want %q", got, IOError)
	}
	if got := Of(fmt.Errorf("ctx: %w", err)); got != IOError {
		t.Fatalf("Of(wrapped) = %q, want %q", got, IOError)
	}
}

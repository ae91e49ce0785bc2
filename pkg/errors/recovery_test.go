package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// scoreRow mimics a batch row evaluation that may panic.
func scoreRow(panicValue interface{}) (err error) {
	defer Recover(&err, "batch.row")
	if panicValue != nil {
		panic(panicValue)
	}
	return nil
}

func TestRecover_WithPanic(t *testing.T) {
	err := scoreRow("index out of range")
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "batch.row" {
		t.Errorf("Operation = %q, want batch.row", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if panicErr.Error() != "panic in batch.row: index out of range" {
		t.Errorf("Error() = %q", panicErr.Error())
	}
	if !strings.Contains(panicErr.String(), "Stack trace:") {
		t.Error("String() should include stack trace information")
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	if err := scoreRow(nil); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("scaler rejected row")

	testFunc := func() (err error) {
		defer Recover(&err, "batch.row")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "panic in batch.row") {
		t.Errorf("Error message should contain panic info: %s", err)
	}
	if !errors.Is(err, originalErr) {
		t.Error("Should be able to identify original error with errors.Is")
	}
}

func TestSafeExecute(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		if err := SafeExecute("predict", func() error { return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("returned error passes through", func(t *testing.T) {
		want := fmt.Errorf("invalid row")
		if err := SafeExecute("predict", func() error { return want }); err != want {
			t.Fatalf("got %v, want %v", err, want)
		}
	})

	t.Run("panic becomes PanicError", func(t *testing.T) {
		err := SafeExecute("predict", func() error {
			var m map[string]float64
			m["size"] = 1 // assignment to nil map
			return nil
		})
		var panicErr *PanicError
		if !errors.As(err, &panicErr) {
			t.Fatalf("Expected PanicError, got %T", err)
		}
	})
}

func TestPanicError_Unwrap(t *testing.T) {
	if NewPanicError("op", "plain value").Unwrap() != nil {
		t.Error("string panic value should not unwrap")
	}

	cause := fmt.Errorf("boom")
	if !errors.Is(NewPanicError("op", cause), cause) {
		t.Error("PanicError should unwrap an error panic value")
	}
}

func TestRecover_DifferentPanicTypes(t *testing.T) {
	testCases := []struct {
		name       string
		panicValue interface{}
	}{
		{"string panic", "string panic"},
		{"int panic", 42},
		{"error panic", fmt.Errorf("error as panic")},
		{"struct panic", struct{ Msg string }{"struct message"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := scoreRow(tc.panicValue)

			var panicErr *PanicError
			if !errors.As(err, &panicErr) {
				t.Fatalf("Expected PanicError, got %T", err)
			}
			if fmt.Sprintf("%v", panicErr.PanicValue) != fmt.Sprintf("%v", tc.panicValue) {
				t.Errorf("PanicValue = %v, want %v", panicErr.PanicValue, tc.panicValue)
			}
		})
	}
}

func BenchmarkSafeExecute_NoPanic(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = SafeExecute("BenchmarkOp", func() error {
			return nil
		})
	}
}

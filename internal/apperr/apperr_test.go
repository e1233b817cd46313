// Package apperr 提供错误分类单元测试
package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"load error", Load("unsupported file type: %s", ".zip"), ErrLoad},
		{"service error", Service("llm generate failed"), ErrService},
		{"persistence error", Persistence("failed to create session"), ErrPersistence},
		{"not found error", NotFound("knowledge base %s", "kb1"), ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, sentinel) = false", tt.err)
			}

			// 分类之间互不重叠
			for _, other := range []error{ErrLoad, ErrService, ErrPersistence, ErrNotFound} {
				if other != tt.sentinel && errors.Is(tt.err, other) {
					t.Errorf("%v unexpectedly matches %v", tt.err, other)
				}
			}
		})
	}
}

func TestErrorMessageFormatting(t *testing.T) {
	err := Load("unsupported file type: %s", ".zip")
	if !strings.Contains(err.Error(), ".zip") {
		t.Errorf("error message = %q, missing formatted argument", err.Error())
	}
}

func TestClassificationSurvivesWrapping(t *testing.T) {
	inner := Service("retrieve failed")
	wrapped := fmt.Errorf("answer question: %w", inner)

	if !errors.Is(wrapped, ErrService) {
		t.Error("wrapped error lost its classification")
	}
}

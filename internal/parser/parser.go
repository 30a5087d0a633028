// Package parser recovers structured records from model output that is
// supposed to be pure JSON but sometimes arrives wrapped in prose or
// markdown fences. Recovery is two-stage: a strict parse first, then a
// single retry after stripping known wrapping artifacts. Garbage input
// fails; the parser never fabricates a record.
package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// #region parse-error
// ParseError reports that both parse stages failed. Raw preserves the
// original input for diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("structured output parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
// #endregion parse-error

// #region extract
// Extract returns the JSON object contained in raw. Stage 1 requires raw
// itself to be a valid JSON object. Stage 2 strips fence markers and
// surrounding prose and retries once. Identical input always yields
// identical output.
func Extract(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)

	// Stage 1: strict parse of the input as-is.
	if err := checkObject(trimmed); err == nil {
		return json.RawMessage(trimmed), nil
	}

	// Stage 2: strip decoration and retry exactly once.
	candidate := stripDecoration(trimmed)
	if candidate == "" {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("no JSON object found")}
	}
	if err := checkObject(candidate); err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return json.RawMessage(candidate), nil
}

// checkObject verifies that s is exactly one well-formed JSON object.
func checkObject(s string) error {
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&obj); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON object")
	}
	return nil
}
// #endregion extract

// #region strip
// stripDecoration removes fenced-block wrapping and leading/trailing
// prose, returning the first balanced brace span. Brace scanning skips
// braces inside JSON string literals.
func stripDecoration(s string) string {
	// Prefer the body of a fenced block when one is present.
	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		// Drop an optional language tag on the fence line.
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			first := strings.TrimSpace(rest[:nl])
			if first == "json" || first == "" {
				rest = rest[nl+1:]
			}
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			s = rest[:end]
		}
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}
// #endregion strip

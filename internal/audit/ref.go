package audit

import (
	"fmt"
	"strings"
)

// Ref identifies one GitHub-hosted repository.
type Ref struct {
	Owner string
	Repo  string
}

func (r Ref) String() string { return r.Owner + "/" + r.Repo }

// InvalidReferenceError reports a repository reference that could not be
// parsed. It aborts the pipeline before any analyzer runs.
type InvalidReferenceError struct {
	Input  string
	Reason string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid repository reference %q: %s", e.Input, e.Reason)
}

// ParseRef parses "owner/repo", tolerating a full https://github.com/ URL
// prefix and a trailing .git suffix.
func ParseRef(input string) (Ref, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "https://github.com/")
	s = strings.TrimPrefix(s, "http://github.com/")
	s = strings.TrimPrefix(s, "github.com/")
	s = strings.TrimSuffix(s, ".git")
	s = strings.Trim(s, "/")

	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return Ref{}, &InvalidReferenceError{Input: input, Reason: "want owner/repo"}
	}
	for _, part := range parts {
		if part == "" {
			return Ref{}, &InvalidReferenceError{Input: input, Reason: "empty owner or repo"}
		}
		if strings.ContainsAny(part, " \t") {
			return Ref{}, &InvalidReferenceError{Input: input, Reason: "whitespace in owner or repo"}
		}
	}
	return Ref{Owner: parts[0], Repo: parts[1]}, nil
}

// Package ids implements the two value identifiers used throughout
// ghpilotd: IssueId (an issue or pull request within a repository) and
// RepoId (a repository). Both parse from and format to the compact
// text grammar documented in SPEC_FULL.md §C.3 / spec.md §6.
package ids

import (
	"fmt"
	"strconv"
	"strings"
)

// IssueId identifies a single issue or pull request.
type IssueId struct {
	Owner  string
	Repo   string
	Number uint64
}

// NewIssueId constructs an IssueId from its parts.
func NewIssueId(owner, repo string, number uint64) IssueId {
	return IssueId{Owner: owner, Repo: repo, Number: number}
}

// String renders the IssueId as "{owner}/{repo}#{number}".
func (id IssueId) String() string {
	return fmt.Sprintf("%s/%s#%d", id.Owner, id.Repo, id.Number)
}

// RepoId returns the repository this issue belongs to.
func (id IssueId) RepoId() RepoId {
	return RepoId{Owner: id.Owner, Repo: id.Repo}
}

// IssueIdParseErrorKind distinguishes the three ways an IssueId string
// can fail to parse, mirroring the original Rust implementation's
// IssueIdParseError enum.
type IssueIdParseErrorKind int

const (
	// ErrMissingNumber means the `#{number}` portion was absent, empty, or not a valid integer.
	ErrMissingNumber IssueIdParseErrorKind = iota
	// ErrMissingRepoSeparator means the `{owner}/{repo}` portion had no `/`.
	ErrMissingRepoSeparator
	// ErrFormat covers every other malformed-whole case (empty string, missing `#` entirely).
	ErrFormat
)

// IssueIdParseError is returned by ParseIssueId on failure.
type IssueIdParseError struct {
	Kind    IssueIdParseErrorKind
	Message string
	Wrapped error
}

func (e *IssueIdParseError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
	}
	return e.Message
}

func (e *IssueIdParseError) Unwrap() error { return e.Wrapped }

// ParseIssueId parses a string of the form "{owner}/{repo}#{number}".
//
// The split order matches the original implementation exactly: split on
// '#' first into a repo-part and number-part, then split the repo-part
// on '/'. This determines which error a given malformed string produces.
func ParseIssueId(s string) (IssueId, error) {
	hashSplit := strings.SplitN(s, "#", 2)
	repoPart := hashSplit[0]
	if len(hashSplit) < 2 {
		return IssueId{}, &IssueIdParseError{
			Kind:    ErrFormat,
			Message: "the `#{number}` portion of the string was missing or incomplete",
		}
	}
	numberPart := hashSplit[1]
	number, err := strconv.ParseUint(numberPart, 10, 64)
	if err != nil {
		return IssueId{}, &IssueIdParseError{
			Kind:    ErrMissingNumber,
			Message: "the issue or pr number was missing",
			Wrapped: err,
		}
	}

	slashSplit := strings.SplitN(repoPart, "/", 2)
	owner := slashSplit[0]
	if len(slashSplit) < 2 {
		return IssueId{}, &IssueIdParseError{
			Kind:    ErrMissingRepoSeparator,
			Message: "could not extract repository name from the string",
		}
	}
	repo := slashSplit[1]

	return IssueId{Owner: owner, Repo: repo, Number: number}, nil
}

// RepoId identifies a repository.
type RepoId struct {
	Owner string
	Repo  string
}

// NewRepoId constructs a RepoId from its parts.
func NewRepoId(owner, repo string) RepoId {
	return RepoId{Owner: owner, Repo: repo}
}

// String renders the RepoId as "{owner}/{repo}".
func (id RepoId) String() string {
	return fmt.Sprintf("%s/%s", id.Owner, id.Repo)
}

// RepoIdParseErrorKind distinguishes RepoId parse failures.
type RepoIdParseErrorKind int

const (
	ErrRepoMissingSeparator RepoIdParseErrorKind = iota
	ErrRepoFormat
)

// RepoIdParseError is returned by ParseRepoId on failure.
type RepoIdParseError struct {
	Kind    RepoIdParseErrorKind
	Message string
}

func (e *RepoIdParseError) Error() string { return e.Message }

// ParseRepoId parses a string of the form "{owner}/{repo}".
func ParseRepoId(s string) (RepoId, error) {
	parts := strings.SplitN(s, "/", 2)
	owner := parts[0]
	if len(parts) < 2 {
		return RepoId{}, &RepoIdParseError{
			Kind:    ErrRepoMissingSeparator,
			Message: "could not extract repository name from the string",
		}
	}
	repo := parts[1]
	if owner == "" {
		return RepoId{}, &RepoIdParseError{Kind: ErrRepoFormat, Message: "owner cannot be empty"}
	}
	if repo == "" {
		return RepoId{}, &RepoIdParseError{Kind: ErrRepoFormat, Message: "repo cannot be empty"}
	}
	return RepoId{Owner: owner, Repo: repo}, nil
}

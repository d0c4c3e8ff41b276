// Package model defines the domain types shared across ciwatch packages.
package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// WatchedPR identifies one tracked pull request.
// The (Owner, Repo, Number) triple is the de-duplication key.
type WatchedPR struct {
	Owner  string `json:"owner" yaml:"owner"`
	Repo   string `json:"repo" yaml:"repo"`
	Number uint   `json:"number" yaml:"number"`
}

// String returns the PR reference in owner/repo#number form.
func (p WatchedPR) String() string {
	return fmt.Sprintf("%s/%s#%d", p.Owner, p.Repo, p.Number)
}

// FullName returns the repository in owner/repo form.
func (p WatchedPR) FullName() string {
	return p.Owner + "/" + p.Repo
}

// Equal reports whether two references point at the same pull request.
// Owner and repository names are compared case-insensitively, as GitHub does.
func (p WatchedPR) Equal(other WatchedPR) bool {
	return p.Number == other.Number &&
		strings.EqualFold(p.Owner, other.Owner) &&
		strings.EqualFold(p.Repo, other.Repo)
}

// ParseWatchedPR parses a pull request reference. Accepted forms:
//
//	owner/repo#123
//	https://github.com/owner/repo/pull/123
func ParseWatchedPR(ref string) (WatchedPR, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return WatchedPR{}, fmt.Errorf("empty pull request reference")
	}

	if strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return parsePRURL(ref)
	}

	repoPart, numPart, ok := strings.Cut(ref, "#")
	if !ok {
		return WatchedPR{}, fmt.Errorf("invalid pull request reference %q (use owner/repo#number)", ref)
	}
	owner, repo, ok := splitFullName(repoPart)
	if !ok {
		return WatchedPR{}, fmt.Errorf("invalid repository %q in reference %q", repoPart, ref)
	}
	number, err := parseNumber(numPart)
	if err != nil {
		return WatchedPR{}, fmt.Errorf("invalid pull request number in %q: %w", ref, err)
	}

	return WatchedPR{Owner: owner, Repo: repo, Number: number}, nil
}

// parsePRURL parses https://github.com/owner/repo/pull/123 style URLs.
func parsePRURL(raw string) (WatchedPR, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return WatchedPR{}, fmt.Errorf("invalid pull request URL %q: %w", raw, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || (parts[2] != "pull" && parts[2] != "pulls") {
		return WatchedPR{}, fmt.Errorf("invalid pull request URL %q", raw)
	}
	number, err := parseNumber(parts[3])
	if err != nil {
		return WatchedPR{}, fmt.Errorf("invalid pull request number in %q: %w", raw, err)
	}

	return WatchedPR{Owner: parts[0], Repo: parts[1], Number: number}, nil
}

// SplitFullName splits an owner/repo string.
func SplitFullName(fullName string) (owner, repo string, err error) {
	owner, repo, ok := splitFullName(fullName)
	if !ok {
		return "", "", fmt.Errorf("invalid repository %q (use owner/repo)", fullName)
	}
	return owner, repo, nil
}

func splitFullName(fullName string) (owner, repo string, ok bool) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func parseNumber(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("number must be positive")
	}
	return uint(n), nil
}

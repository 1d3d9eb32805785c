package parser

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/quantmind-br/repofetch-go/internal/domain"
)

var (
	// GitHub account names: alphanumeric and single hyphens, no leading/trailing hyphen
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9](?:-?[A-Za-z0-9])*$`)

	// Repository names additionally allow dots and underscores
	repoPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// Parse converts a GitHub folder URL into a RepoRef.
//
// Accepted shapes:
//
//	https://github.com/<owner>/<repo>
//	https://github.com/<owner>/<repo>/tree/<ref>
//	https://github.com/<owner>/<repo>/tree/<ref>/<path...>
//
// The blob marker is accepted in place of tree, matching what the GitHub
// UI produces when a file inside the folder was open. Any other shape
// fails with domain.ErrInvalidURL. No network access happens here; a URL
// without a ref leaves RepoRef.Ref empty for the fetcher to resolve.
func Parse(rawURL string) (*domain.RepoRef, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(rawURL), "/")

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidURL, rawURL)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidURL, u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host != "github.com" && host != "www.github.com" {
		return nil, fmt.Errorf("%w: host %q is not github.com", domain.ErrInvalidURL, u.Hostname())
	}

	segments := splitPath(u.Path)
	if len(segments) < 2 {
		return nil, fmt.Errorf("%w: URL does not point to a repository", domain.ErrInvalidURL)
	}

	owner := segments[0]
	repo := strings.TrimSuffix(segments[1], ".git")

	if !ownerPattern.MatchString(owner) {
		return nil, fmt.Errorf("%w: invalid owner %q", domain.ErrInvalidURL, owner)
	}
	if !repoPattern.MatchString(repo) {
		return nil, fmt.Errorf("%w: invalid repository %q", domain.ErrInvalidURL, repo)
	}

	ref := &domain.RepoRef{
		Owner: owner,
		Repo:  repo,
	}

	rest := segments[2:]
	if len(rest) == 0 {
		return ref, nil
	}

	if rest[0] != "tree" && rest[0] != "blob" {
		return nil, fmt.Errorf("%w: unexpected path segment %q", domain.ErrInvalidURL, rest[0])
	}
	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: missing ref after %q", domain.ErrInvalidURL, rest[0])
	}

	ref.Ref = rest[1]
	if len(rest) > 2 {
		ref.SubPath = NormalizeSubPath(strings.Join(rest[2:], "/"))
	}

	return ref, nil
}

// NormalizeSubPath cleans a folder path taken from a URL: percent
// escapes decoded, backslashes normalized, surrounding slashes dropped.
func NormalizeSubPath(p string) string {
	if p == "" {
		return ""
	}

	if decoded, err := url.PathUnescape(p); err == nil {
		p = decoded
	}

	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.Trim(p, "/")
	p = path.Clean(p)

	if p == "." {
		return ""
	}
	return p
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

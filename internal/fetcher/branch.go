package fetcher

import (
	"context"
	"fmt"
	"os"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/memory"
)

// FallbackBranch is used when the remote HEAD cannot be determined.
const FallbackBranch = "main"

// DetectDefaultBranch resolves the default branch of a repository by
// listing its advertised refs, the in-process equivalent of
// `git ls-remote --symref <url> HEAD`. No clone happens.
func DetectDefaultBranch(ctx context.Context, repoURL string) (string, error) {
	remote := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{repoURL},
	})

	opts := &git.ListOptions{}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		opts.Auth = &githttp.BasicAuth{
			Username: "token",
			Password: token,
		}
	}

	refs, err := remote.ListContext(ctx, opts)
	if err != nil {
		return "", fmt.Errorf("list remote refs: %w", err)
	}

	for _, ref := range refs {
		if ref.Name() == plumbing.HEAD && ref.Type() == plumbing.SymbolicReference {
			return ref.Target().Short(), nil
		}
	}

	return "", fmt.Errorf("remote did not advertise a symbolic HEAD")
}

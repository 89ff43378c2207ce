// Package git shells out to the git command for the optional auto-commit
// integration. The source control folder is expected to already be a
// repository; dotconf never clones or pushes.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"dotconf/pkg/errors"
	"dotconf/pkg/logging"
)

var log = logging.GetLogger("git")

// Client runs git commands in a fixed working directory.
type Client struct {
	dir string
}

// NewClient returns a client operating on dir.
func NewClient(dir string) *Client {
	return &Client{dir: dir}
}

// IsRepo reports whether the client's directory is inside a git work tree.
func (c *Client) IsRepo(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = c.dir
	return cmd.Run() == nil
}

// HasChanges reports whether the work tree has staged or unstaged changes.
func (c *Client) HasChanges(ctx context.Context) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// CommitAll stages everything under the work tree and commits it. A clean
// tree is not an error; the commit is simply skipped.
func (c *Client) CommitAll(ctx context.Context, message string) error {
	changed, err := c.HasChanges(ctx)
	if err != nil {
		return err
	}
	if !changed {
		log.Debug().Str("dir", c.dir).Msg("work tree clean, nothing to commit")
		return nil
	}
	if _, err := c.run(ctx, "add", "--all"); err != nil {
		return err
	}
	if _, err := c.run(ctx, "commit", "-m", message); err != nil {
		return err
	}
	log.Info().Str("dir", c.dir).Str("message", message).Msg("committed changes")
	return nil
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", errors.Newf(errors.ErrIoFailure, "git %s failed: %s", args[0], detail)
	}
	return stdout.String(), nil
}

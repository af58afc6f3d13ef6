// Package hostgroup adds the current user to a local Windows group through
// the net command.
package hostgroup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultGroup is the local group whose members may manage Hyper-V.
const DefaultGroup = "Hyper-V Administrators"

// alreadyMember is printed by net when the account is already in the group.
const alreadyMember = "System error 1378"

var (
	// ErrNoUser is returned when the current user cannot be determined.
	ErrNoUser = errors.New("cannot determine current user")

	// ErrEmptyGroup is returned when no group name is given.
	ErrEmptyGroup = errors.New("group name cannot be empty")
)

// Runner runs an external command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// CurrentUser returns the name of the user running the process. USERNAME is
// preferred because it carries the bare account name on Windows.
func CurrentUser() (string, error) {
	if name := strings.TrimSpace(os.Getenv("USERNAME")); name != "" {
		return name, nil
	}

	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoUser, err)
	}
	if u.Username == "" {
		return "", ErrNoUser
	}

	// DOMAIN\name
	if i := strings.LastIndex(u.Username, `\`); i >= 0 {
		return u.Username[i+1:], nil
	}
	return u.Username, nil
}

// EnsureMember adds account to the local group. An account that is already
// a member is not an error.
func EnsureMember(ctx context.Context, r Runner, group, account string) error {
	group = strings.TrimSpace(group)
	if group == "" {
		return ErrEmptyGroup
	}
	if strings.TrimSpace(account) == "" {
		return ErrNoUser
	}

	logger := log.FromContext(ctx).With("group", group, "user", account)
	logger.Info("Adding user to local group...")

	out, err := r.Run(ctx, "net", "localgroup", group, "/add", account)
	if err != nil {
		if strings.Contains(string(out), alreadyMember) {
			logger.Info("User is already a member")
			return nil
		}
		return fmt.Errorf("failed to add %s to %q: %w\nOutput: %s", account, group, err, strings.TrimSpace(string(out)))
	}

	logger.Info("User added to local group")
	return nil
}

// AddCurrentUser adds the user running the process to group.
func AddCurrentUser(ctx context.Context, r Runner, group string) error {
	account, err := CurrentUser()
	if err != nil {
		return err
	}
	return EnsureMember(ctx, r, group, account)
}

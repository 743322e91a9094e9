package pipeline

import (
	"fmt"
	"strings"

	"github.com/antenna-three/fgo-farming-solver-api/internal/env"
	"github.com/antenna-three/fgo-farming-solver-api/internal/errors"
)

// Classify maps a git ref to the environment it deploys. The rules are
// exact, not substring containment: the branch main deploys prod, a
// branch under feature/ deploys dev, and anything else is not a deploy
// target (a branch named main-fix must not reach prod).
func Classify(ref string) (env.Environment, error) {
	branch := strings.TrimPrefix(ref, "refs/heads/")

	switch {
	case branch == "main":
		return env.Prod, nil
	case strings.HasPrefix(branch, "feature/") && len(branch) > len("feature/"):
		return env.Dev, nil
	default:
		return "", fmt.Errorf("%w: %q", errors.ErrNoDeployTarget, ref)
	}
}

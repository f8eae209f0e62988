// Package mount tracks the bind mounts a cradle invocation needs and
// derives the container-side path for each host path.
package mount

import (
	"strings"
)

// DefaultRoot is the namespace root under which all translated host
// paths are placed inside the container. It is chosen to not collide
// with anything a payload image ships itself.
const DefaultRoot = "/docker_mounts"

// Mount is a single host-to-container bind mount.
type Mount struct {
	Source string // absolute path on the host
	Target string // path inside the container
}

// TargetPath derives the container-side path for an absolute host path.
// The derivation is pure string work: the drive-letter separator ":" is
// stripped, backslashes become forward slashes, and the result is placed
// under root. Two calls with the same inputs always yield the same
// target, which is what makes mount deduplication work.
func TargetPath(root, hostPath string) string {
	p := strings.ReplaceAll(hostPath, ":", "")
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimLeft(p, "/")
	return strings.TrimRight(root, "/") + "/" + p
}

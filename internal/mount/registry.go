package mount

// Registry accumulates the bind mounts for one invocation. It keeps
// first-seen order and collapses duplicate (source, target) pairs into a
// single entry. The zero value is not usable; create one with NewRegistry.
type Registry struct {
	root   string
	mounts []Mount
	seen   map[Mount]bool
}

// NewRegistry creates a registry placing all targets under root.
// An empty root falls back to DefaultRoot.
func NewRegistry(root string) *Registry {
	if root == "" {
		root = DefaultRoot
	}
	return &Registry{
		root: root,
		seen: make(map[Mount]bool),
	}
}

// Add derives the container path for an absolute host path, records the
// mount pair if it is new, and returns the container path. Registering
// the same host path twice yields one entry and the same target both times.
func (r *Registry) Add(hostPath string) string {
	target := TargetPath(r.root, hostPath)
	r.AddPair(hostPath, target)
	return target
}

// AddPair records an explicit mount pair, used for fixed mounts whose
// target is not derived (the log directory, the docker control socket).
func (r *Registry) AddPair(source, target string) {
	m := Mount{Source: source, Target: target}
	if r.seen[m] {
		return
	}
	r.seen[m] = true
	r.mounts = append(r.mounts, m)
}

// Mounts returns the registered mounts in first-seen order.
// The returned slice is a copy.
func (r *Registry) Mounts() []Mount {
	out := make([]Mount, len(r.mounts))
	copy(out, r.mounts)
	return out
}

// Len returns the number of distinct registered mounts.
func (r *Registry) Len() int {
	return len(r.mounts)
}

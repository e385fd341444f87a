package namespace

import "strings"

// nodeEntryName finds the full "param.type" name parent files child under.
func nodeEntryName(parent, child *Node) (string, bool) {
	for _, c := range parent.Children {
		if c.Node == child {
			return c.Name, true
		}
	}
	return "", false
}

// pathSegments returns n's absolute path as a list of entry names from
// just below the root down to n. The root itself contributes no segment.
func pathSegments(n *Node) []string {
	var segs []string
	for n.parent != nil {
		name, ok := nodeEntryName(n.parent, n)
		if !ok {
			name = n.Name
		}
		segs = append([]string{name}, segs...)
		n = n.parent
	}
	return segs
}

// RelativeLink computes the relative symlink target text that, read from
// inside dir, resolves to target: walk up from dir to the nodes' common
// ancestor with "..", then back down target's remaining path components.
// This is the inverse of ResolveSymlink's walk, grounded on the original
// implementation's parent-relative path resolution (kotonode.rs's
// resolve_symlink_1).
func RelativeLink(dir, target *Node) string {
	from := pathSegments(dir)
	to := pathSegments(target)

	common := 0
	for common < len(from) && common < len(to) && from[common] == to[common] {
		common++
	}

	var parts []string
	for i := common; i < len(from); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, to[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

// ResolveSymlink walks link's target path starting at dir (the symlink's
// own parent directory), following each ".." and name component, and
// returns the node it lands on. It touches only namespace tree pointers,
// never a unit's lock, so it is safe to call while the graph's mutation
// lock is held (SyncSymlink does), and it finishes before its caller
// sets any unit slot.
func ResolveSymlink(dir *Node, link string) (*Node, bool) {
	cur := dir
	for _, part := range strings.Split(link, "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			if cur.parent == nil {
				return nil, false
			}
			cur = cur.parent
		default:
			next, ok := cur.Lookup(part)
			if !ok {
				return nil, false
			}
			cur = next
		}
	}
	return cur, true
}

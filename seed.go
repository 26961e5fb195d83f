package dhttrace

// initialMembers decides which nodes are members before the first event.
//
// An explicit seed list always wins. Without one, the node that acts first
// is assumed to be a pre-existing member, unless its first action is a Join:
// then it becomes a member through that join like any other node.
func initialMembers(log *Log, seeds []string) []string {
	if len(seeds) > 0 {
		var (
			set  = make(map[string]struct{}, len(seeds))
			uniq []string
		)
		for _, node := range seeds {
			if _, dup := set[node]; dup || node == "" {
				continue
			}
			set[node] = struct{}{}
			uniq = append(uniq, node)
		}
		return uniq
	}

	if len(log.Events) == 0 {
		return nil
	}

	var first, ok = log.Events[0].(*Operation)
	if !ok || first.Kind == KindJoin {
		return nil
	}
	return []string{first.Node}
}

package merge

import "strings"

// Conflict markers emitted into merged text. The local side always comes
// first so users read their own change before the remote one.
const (
	MarkerLocal     = "<<<<<<< LOCAL"
	MarkerSeparator = "======="
	MarkerServer    = ">>>>>>> SERVER"
)

// ThreeWayText merges local and server line-wise against the known ancestor
// base. Spans changed on only one side take that side's lines; identical
// changes collapse; diverging changes become a conflict block delimited by
// MarkerLocal/MarkerSeparator/MarkerServer.
func ThreeWayText(base, local, server string) string {
	return mergeLines(strings.Split(base, "\n"), local, server)
}

// TwoWayText merges local and server without a known ancestor by
// synthesizing one from their longest common subsequence. Used for legacy
// records that predate base-version tracking.
func TwoWayText(local, server string) string {
	localLines := strings.Split(local, "\n")
	serverLines := strings.Split(server, "\n")
	return mergeLines(LongestCommonSubsequence(localLines, serverLines), local, server)
}

func mergeLines(baseLines []string, local, server string) string {
	localLines := strings.Split(local, "\n")
	serverLines := strings.Split(server, "\n")

	var out []string
	for _, block := range Diff3(localLines, baseLines, serverLines) {
		if block.Conflict == nil {
			out = append(out, block.OK...)
			continue
		}
		out = append(out, MarkerLocal)
		out = append(out, block.Conflict.A...)
		out = append(out, MarkerSeparator)
		out = append(out, block.Conflict.B...)
		out = append(out, MarkerServer)
	}
	return strings.Join(out, "\n")
}

// ThreeWayIDs merges two orderings of unique ids against a common ancestor
// ordering. Ids removed on one side and untouched on the other are removed,
// insertions from both sides are kept at their positions, and when both
// sides insert different ids into the same span the local ids come first.
// The result never contains duplicates.
func ThreeWayIDs(base, local, server []string) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(ids []string) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	for _, block := range Diff3(local, base, server) {
		if block.Conflict == nil {
			add(block.OK)
			continue
		}
		add(block.Conflict.A)
		add(block.Conflict.B)
	}
	return out
}

// Package signature derives stable content fingerprints for candidate lines.
//
// A signature is the visible text plus the sorted, canonicalised basenames
// of the line's icons. Two renders of the same line collapse to the same
// signature even when the host rotates asset cache-busting hashes.
package signature

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
)

// assetHash matches a dotted run of 6+ hex characters inside a filename,
// the cache-busting segment bundlers splice into asset names
// (road_blue.33012eed15cae5aa6a05.svg).
var assetHash = regexp.MustCompile(`\.[0-9a-fA-F]{6,}\.`)

// Canonicalize reduces an image source URL to a stable basename: path
// basename, query and fragment stripped, cache-bust hash segments removed.
// Fail-open: anything that cannot be processed comes back unchanged, so a
// weird URL can at worst miss a dedup, never cause a wrong one.
func Canonicalize(src string) string {
	if src == "" {
		return src
	}

	name := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		name = u.Path
	}
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		return src
	}

	for {
		stripped := assetHash.ReplaceAllString(name, ".")
		if stripped == name {
			break
		}
		name = stripped
	}
	return name
}

// Compute returns the dedup fingerprint for a candidate line. Pure and
// deterministic; icon order on the line does not matter, only the multiset
// of canonical names.
func Compute(text string, images []string) string {
	names := make([]string, 0, len(images))
	for _, src := range images {
		names = append(names, Canonicalize(src))
	}
	sort.Strings(names)
	return text + "|imgs:" + strings.Join(names, ",")
}

// AdjacencyKey pairs a candidate's signature with its nearest preceding
// candidate's signature, identifying one specific sibling arrangement.
func AdjacencyKey(prevSig, sig string) string {
	return prevSig + ">>" + sig
}

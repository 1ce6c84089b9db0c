package domain

import "sort"

// FilterCompatible reduces a platform's version list to the subset valid for
// the target loader and game version, ordered newest first. An empty result
// is a valid outcome, to be interpreted by the caller as "no compatible
// version".
//
// Ordering: platform-reported release time descending; ties broken by version
// identifier, semantic comparison when both identifiers parse as semver,
// literal string comparison otherwise. The ordering is total and stable for a
// fixed input, which is what makes resolution deterministic.
func FilterCompatible(versions []ModVersion, loader Loader, gv GameVersion) []ModVersion {
	out := make([]ModVersion, 0, len(versions))
	for _, v := range versions {
		if v.SupportsLoader(loader) && v.SupportsGameVersion(gv) {
			out = append(out, v)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.ReleasedAt.Equal(b.ReleasedAt) {
			return a.ReleasedAt.After(b.ReleasedAt)
		}
		return CompareVersions(a.ID, b.ID) > 0
	})

	return out
}

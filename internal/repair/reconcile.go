package repair

import (
	"quorumfs/internal/cluster"
)

// Freshest returns the index of the existing entry with the strictly
// highest version. Ties go to the first one encountered. ok is false when
// no entry exists.
func Freshest(metas []cluster.FileMetadata) (idx int, ok bool) {
	idx = -1
	best := cluster.NoVersion
	for i, m := range metas {
		if !m.Exists {
			continue
		}
		if idx == -1 || m.Version > best {
			idx, best = i, m.Version
		}
	}
	return idx, idx != -1
}

// MaxVersion returns the highest version among existing entries, or
// NoVersion if none exist.
func MaxVersion(metas []cluster.FileMetadata) int64 {
	if idx, ok := Freshest(metas); ok {
		return metas[idx].Version
	}
	return cluster.NoVersion
}

// Latest collapses per-replica listings to one entry per filename, keeping
// the highest version seen. Ties keep the first entry encountered. Output
// order follows the first appearance of each filename.
func Latest(listings ...[]cluster.FileMetadata) []cluster.FileMetadata {
	index := make(map[string]int)
	var out []cluster.FileMetadata

	for _, listing := range listings {
		for _, m := range listing {
			if !m.Exists {
				continue
			}
			i, seen := index[m.Filename]
			if !seen {
				index[m.Filename] = len(out)
				out = append(out, m)
				continue
			}
			if m.Version > out[i].Version {
				out[i] = m
			}
		}
	}
	return out
}

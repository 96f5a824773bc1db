package repair

import (
	"testing"

	"quorumfs/internal/cluster"
)

func meta(name string, version int64, port int) cluster.FileMetadata {
	return cluster.FileMetadata{
		Filename: name,
		Version:  version,
		Exists:   version != cluster.NoVersion,
		Owner:    cluster.NodeIdentity{Host: "127.0.0.1", Port: port},
	}
}

func TestFreshest(t *testing.T) {
	tests := []struct {
		name    string
		metas   []cluster.FileMetadata
		wantIdx int
		wantOK  bool
	}{
		{"single", []cluster.FileMetadata{meta("x", 2, 1)}, 0, true},
		{"highest wins", []cluster.FileMetadata{meta("x", 3, 1), meta("x", 5, 2), meta("x", 1, 3)}, 1, true},
		{"tie goes to first", []cluster.FileMetadata{meta("x", 4, 1), meta("x", 4, 2)}, 0, true},
		{"missing ignored", []cluster.FileMetadata{meta("x", cluster.NoVersion, 1), meta("x", 0, 2)}, 1, true},
		{"none exist", []cluster.FileMetadata{meta("x", cluster.NoVersion, 1), meta("x", cluster.NoVersion, 2)}, -1, false},
		{"empty", nil, -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := Freshest(tt.metas)
			if idx != tt.wantIdx || ok != tt.wantOK {
				t.Errorf("Freshest() = (%d,%v), want (%d,%v)", idx, ok, tt.wantIdx, tt.wantOK)
			}
		})
	}
}

func TestMaxVersion(t *testing.T) {
	if v := MaxVersion(nil); v != cluster.NoVersion {
		t.Errorf("Expected NoVersion, got %d", v)
	}
	if v := MaxVersion([]cluster.FileMetadata{meta("x", 2, 1), meta("x", 7, 2)}); v != 7 {
		t.Errorf("Expected 7, got %d", v)
	}
}

func TestLatest_KeepsMaxPerFilename(t *testing.T) {
	listings := [][]cluster.FileMetadata{
		{meta("x", 3, 1), meta("y", 1, 1)},
		{meta("x", 5, 2)},
		{meta("x", 1, 3), meta("z", 2, 3)},
	}

	got := Latest(listings...)

	if len(got) != 3 {
		t.Fatalf("Expected 3 files, got %d: %+v", len(got), got)
	}
	want := []struct {
		name    string
		version int64
		port    int
	}{
		{"x", 5, 2},
		{"y", 1, 1},
		{"z", 2, 3},
	}
	for i, w := range want {
		if got[i].Filename != w.name || got[i].Version != w.version || got[i].Owner.Port != w.port {
			t.Errorf("Entry %d = %+v, want %s@%d from %d", i, got[i], w.name, w.version, w.port)
		}
	}
}

func TestLatest_TieKeepsFirst(t *testing.T) {
	got := Latest(
		[]cluster.FileMetadata{meta("x", 2, 1)},
		[]cluster.FileMetadata{meta("x", 2, 2)},
	)
	if len(got) != 1 || got[0].Owner.Port != 1 {
		t.Errorf("Expected first owner to win the tie, got %+v", got)
	}
}

func TestLatest_Empty(t *testing.T) {
	if got := Latest(); len(got) != 0 {
		t.Errorf("Expected no entries, got %+v", got)
	}
}

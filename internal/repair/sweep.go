package repair

import (
	"context"

	"github.com/sirupsen/logrus"

	"quorumfs/internal/cluster"
	"quorumfs/internal/storage"
)

// ReadFunc performs a logical, quorum-backed read of filename.
type ReadFunc func(ctx context.Context, filename string) cluster.Result

// Sweeper brings every locally held file up to the version the cluster
// reports for it.
type Sweeper struct {
	store storage.Store
	read  ReadFunc
	log   logrus.FieldLogger
}

// NewSweeper creates a sweeper over the local store. read is usually the
// node's own logical Read, which a replica forwards to the coordinator.
func NewSweeper(store storage.Store, read ReadFunc, log logrus.FieldLogger) *Sweeper {
	return &Sweeper{store: store, read: read, log: log}
}

// Sweep runs one pass. It stops at the first file whose read or local write
// fails and returns that failure; the remaining files wait for the next pass.
// A returned version older than the local one is skipped, since the local
// version never decreases.
func (s *Sweeper) Sweep(ctx context.Context) cluster.Result {
	local := s.store.AllMetadata()
	repaired := 0

	for _, meta := range local {
		if err := ctx.Err(); err != nil {
			return cluster.Failure(cluster.KindUnreachable, "update cancelled: %v", err)
		}

		res := s.read(ctx, meta.Filename)
		if !res.OK() {
			s.log.WithFields(logrus.Fields{"file": meta.Filename, "kind": res.Kind}).
				Warn("Update aborted, read failed")
			return res
		}

		switch {
		case res.Version == meta.Version:
			continue
		case res.Version < meta.Version:
			s.log.WithFields(logrus.Fields{
				"file":   meta.Filename,
				"local":  meta.Version,
				"remote": res.Version,
			}).Warn("Cluster returned an older version than the local copy, keeping local")
			continue
		}

		wr := s.store.Write(meta.Filename, res.Contents, res.Version)
		if !wr.OK() {
			s.log.WithFields(logrus.Fields{"file": meta.Filename, "kind": wr.Kind}).
				Warn("Update aborted, local write failed")
			return wr
		}
		repaired++
		s.log.WithFields(logrus.Fields{
			"file": meta.Filename,
			"from": meta.Version,
			"to":   res.Version,
		}).Info("Repaired stale local copy")
	}

	s.log.WithFields(logrus.Fields{"files": len(local), "repaired": repaired}).Debug("Update pass complete")
	return cluster.Success()
}

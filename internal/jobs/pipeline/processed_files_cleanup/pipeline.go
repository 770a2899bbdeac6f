package processed_files_cleanup

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	jobrt "github.com/yungbote/carepulse-backend/internal/jobs/runtime"
)

type SweepStats struct {
	Scanned int `json:"scanned"`
	Removed int `json:"removed"`
	Failed  int `json:"failed"`
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	cutoff := time.Now().Add(-p.maxAge)

	var total SweepStats
	for i, dir := range p.dirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		jc.Progress("sweep", 5+90*i/len(p.dirs))
		s := p.sweep(dir, cutoff)
		total.Scanned += s.Scanned
		total.Removed += s.Removed
		total.Failed += s.Failed
	}

	p.log.Info("Cleanup finished", "scanned", total.Scanned, "removed", total.Removed, "failed", total.Failed)
	jc.Succeed("done", total)
	return nil
}

// sweep removes regular files under dir last modified before cutoff.
// Per-file problems are logged and counted, never fatal.
func (p *Pipeline) sweep(dir string, cutoff time.Time) SweepStats {
	var s SweepStats
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			p.log.Warn("Cleanup walk error", "path", path, "error", err)
			s.Failed++
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		s.Scanned++
		info, err := d.Info()
		if err != nil {
			p.log.Warn("Cleanup stat failed", "path", path, "error", err)
			s.Failed++
			return nil
		}
		if !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			p.log.Warn("Cleanup remove failed", "path", path, "error", err)
			s.Failed++
			return nil
		}
		s.Removed++
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			p.log.Debug("Cleanup dir missing", "dir", dir)
		} else {
			p.log.Warn("Cleanup dir unreadable", "dir", dir, "error", err)
			s.Failed++
		}
	}
	return s
}

package repo

import (
	"fmt"

	"github.com/odvcencio/lut/pkg/object"
)

// VerifyReport counts the objects reachable from HEAD by type.
type VerifyReport struct {
	Commits int
	Trees   int
	Blobs   int
}

// Total returns the number of verified objects.
func (v *VerifyReport) Total() int {
	return v.Commits + v.Trees + v.Blobs
}

// Verify loads every object reachable from HEAD, checking that each one
// inflates, hashes to its name, and decodes. An empty HEAD verifies
// nothing.
func (r *Repo) Verify() (*VerifyReport, error) {
	head, err := r.Head.LoadHead()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	report := &VerifyReport{}
	if head == "" {
		return report, nil
	}

	objects, err := object.Reachable(r.Store, []object.Hash{head})
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	for _, typ := range objects {
		switch typ {
		case object.TypeCommit:
			report.Commits++
		case object.TypeTree:
			report.Trees++
		case object.TypeBlob:
			report.Blobs++
		}
	}
	return report, nil
}

// Package cleanup implements pruning of old briefing sessions.
package cleanup

import (
	"fmt"
	"time"

	"github.com/berth-dev/briefing/internal/model"
)

// Store is the part of a session store pruning needs.
type Store interface {
	List() ([]model.Summary, error)
	Delete(id string) error
}

// PruneByAge removes sessions last updated more than maxAgeDays before now.
// If dryRun is true, nothing is deleted; the function only returns the ids
// that would be removed. Returns the list of pruned session ids.
func PruneByAge(st Store, maxAgeDays int, now time.Time, dryRun bool) ([]string, error) {
	summaries, err := st.List()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	cutoff := now.AddDate(0, 0, -maxAgeDays)
	var victims []string
	for _, s := range summaries {
		if s.UpdatedAt.Before(cutoff) {
			victims = append(victims, s.SessionID)
		}
	}

	return remove(st, victims, dryRun)
}

// PruneKeepRecent removes all sessions except the keep most recently created.
// If dryRun is true, nothing is deleted. Returns the list of pruned ids.
func PruneKeepRecent(st Store, keep int, dryRun bool) ([]string, error) {
	summaries, err := st.List()
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	// List is newest first.
	if len(summaries) <= keep {
		return nil, nil
	}

	var victims []string
	for _, s := range summaries[keep:] {
		victims = append(victims, s.SessionID)
	}

	return remove(st, victims, dryRun)
}

func remove(st Store, ids []string, dryRun bool) ([]string, error) {
	var pruned []string
	for _, id := range ids {
		if !dryRun {
			if err := st.Delete(id); err != nil {
				return pruned, fmt.Errorf("removing %s: %w", id, err)
			}
		}
		pruned = append(pruned, id)
	}
	return pruned, nil
}

package engine

// ReclaimResult reports how many content objects were removed by Delete or
// Cleanup and how many compressed bytes were freed.
type ReclaimResult struct {
	ObjectsRemoved int
	BytesFreed     int64
}

// Delete removes manifest id and, if warranted, reclaims the content
// objects it alone referenced.
//
// After removing the manifest, it computes R (hashes still referenced by
// any remaining manifest) and C (hashes that were in the deleted manifest
// but not in R). C is reclaimed immediately when cleanup is true, when its
// total on-disk size exceeds the configured threshold (default 100 MiB),
// or when no manifests remain at all. Otherwise C is left for a later
// Cleanup call.
func (e *Engine) Delete(id int, cleanup bool) (ReclaimResult, error) {
	if err := e.requireInitialized(); err != nil {
		return ReclaimResult{}, err
	}

	unlock, err := e.lock()
	if err != nil {
		return ReclaimResult{}, err
	}
	defer unlock()

	deleted, err := e.manifest.Read(id)
	if err != nil {
		return ReclaimResult{}, err
	}

	if err := e.manifest.Delete(id); err != nil {
		return ReclaimResult{}, err
	}

	remainingIDs, err := e.manifest.List()
	if err != nil {
		return ReclaimResult{}, err
	}

	referenced, err := e.hashesReferencedBy(remainingIDs)
	if err != nil {
		return ReclaimResult{}, err
	}

	candidates := make([]string, 0)
	seen := make(map[string]bool)
	for _, rec := range deleted.Files {
		if seen[rec.Hash] {
			continue
		}
		seen[rec.Hash] = true
		if !referenced[rec.Hash] {
			candidates = append(candidates, rec.Hash)
		}
	}

	if len(candidates) == 0 {
		return ReclaimResult{}, nil
	}

	var candidateBytes int64
	for _, hash := range candidates {
		if size, err := e.content.Size(hash); err == nil {
			candidateBytes += size
		}
	}

	shouldReclaim := cleanup || len(remainingIDs) == 0 || candidateBytes > e.cfg.CleanupThresholdBytes
	if !shouldReclaim {
		e.log.Debug("orphaned content left for later cleanup", "candidates", len(candidates), "bytes", candidateBytes)
		return ReclaimResult{}, nil
	}

	result, err := e.reclaim(candidates)
	if err != nil {
		// Manifest removal already committed; cleanup failures are
		// non-fatal per the propagation rule for delete.
		e.log.Warn("cleanup after delete failed", "error", err)
		return result, nil
	}

	e.log.Info("delete reclaimed content", "id", id, "objects", result.ObjectsRemoved, "bytes", result.BytesFreed)
	return result, nil
}

// Cleanup recomputes the reference set across every remaining manifest and
// removes every content object not referenced by any of them. Safe to run
// at any time; idempotent.
func (e *Engine) Cleanup() (ReclaimResult, error) {
	if err := e.requireInitialized(); err != nil {
		return ReclaimResult{}, err
	}

	unlock, err := e.lock()
	if err != nil {
		return ReclaimResult{}, err
	}
	defer unlock()

	ids, err := e.manifest.List()
	if err != nil {
		return ReclaimResult{}, err
	}

	referenced, err := e.hashesReferencedBy(ids)
	if err != nil {
		return ReclaimResult{}, err
	}

	all, err := e.content.Enumerate()
	if err != nil {
		return ReclaimResult{}, err
	}

	var orphaned []string
	for _, hash := range all {
		if !referenced[hash] {
			orphaned = append(orphaned, hash)
		}
	}

	result, err := e.reclaim(orphaned)
	if err != nil {
		return result, err
	}

	e.log.Info("cleanup complete", "objects", result.ObjectsRemoved, "bytes", result.BytesFreed)
	return result, nil
}

// hashesReferencedBy computes the set of content hashes referenced by any
// of the given manifest ids.
func (e *Engine) hashesReferencedBy(ids []int) (map[string]bool, error) {
	referenced := make(map[string]bool)
	for _, id := range ids {
		m, err := e.manifest.Read(id)
		if err != nil {
			return nil, err
		}
		for _, rec := range m.Files {
			referenced[rec.Hash] = true
		}
	}
	return referenced, nil
}

// reclaim deletes every hash in candidates from the Content Store,
// summing the compressed bytes freed before each deletion.
func (e *Engine) reclaim(candidates []string) (ReclaimResult, error) {
	var result ReclaimResult
	for _, hash := range candidates {
		size, sizeErr := e.content.Size(hash)
		if err := e.content.Delete(hash); err != nil {
			return result, err
		}
		if sizeErr == nil {
			result.BytesFreed += size
			result.ObjectsRemoved++
		}
	}
	return result, nil
}

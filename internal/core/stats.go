package core

import "donorregistry/pkg/domain"

// ComputeStats counts the full collection. It must be given the unfiltered
// list.
func ComputeStats(all []domain.Donor) domain.Stats {
	stats := domain.Stats{Total: len(all)}
	for _, d := range all {
		if d.HasBlood() {
			stats.BloodDonors++
		}
		if d.HasOrgan() {
			stats.OrganDonors++
		}
	}
	return stats
}

package substitute

import (
	"fmt"

	"github.com/agenthands/boqmatch/internal/core/model"
)

// Decide records the buyer's decision on the proposal with the given id.
func Decide(proposals []model.SubstitutionProposal, id string, d model.Decision) (model.SubstitutionProposal, error) {
	for i := range proposals {
		if proposals[i].ID != id {
			continue
		}
		if err := proposals[i].Decide(d); err != nil {
			return proposals[i], err
		}
		return proposals[i], nil
	}
	return model.SubstitutionProposal{}, fmt.Errorf("%w: %s", model.ErrUnknownProposal, id)
}

// ApplyDecisions returns the final selections after approved proposals have
// replaced the offers they were made for. Pending and rejected proposals
// leave the original selection alone, as does an approved proposal whose
// original offer is no longer the item's selection. The input map is not
// modified. The approved proposals that were applied are returned as well.
func ApplyDecisions(selections map[string]string, proposals []model.SubstitutionProposal) (map[string]string, []model.SubstitutionProposal) {
	final := make(map[string]string, len(selections))
	for k, v := range selections {
		final[k] = v
	}

	var applied []model.SubstitutionProposal
	for _, p := range proposals {
		if !p.Approved() {
			continue
		}
		if current, ok := final[p.NormalizedItemID]; !ok || current != p.OriginalOfferID {
			continue
		}
		final[p.NormalizedItemID] = p.SuggestedOfferID
		applied = append(applied, p)
	}
	return final, applied
}

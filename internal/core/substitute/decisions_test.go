package substitute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/boqmatch/internal/core/model"
)

func pending(id, item, from, to string) model.SubstitutionProposal {
	return model.SubstitutionProposal{ID: id, NormalizedItemID: item, OriginalOfferID: from, SuggestedOfferID: to, Decision: model.DecisionPending}
}

func TestDecide(t *testing.T) {
	props := []model.SubstitutionProposal{pending("p1", "L1", "O-1", "O-3"), pending("p2", "L2", "O-10", "O-11")}

	got, err := Decide(props, "p1", model.DecisionApproved)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionApproved, got.Decision)
	assert.Equal(t, model.DecisionApproved, props[0].Decision)

	// terminal states do not change
	_, err = Decide(props, "p1", model.DecisionRejected)
	assert.ErrorIs(t, err, model.ErrDecisionFinal)
	assert.Equal(t, model.DecisionApproved, props[0].Decision)

	_, err = Decide(props, "p2", model.DecisionPending)
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	_, err = Decide(props, "nope", model.DecisionApproved)
	assert.ErrorIs(t, err, model.ErrUnknownProposal)
}

func TestApplyDecisions(t *testing.T) {
	selections := map[string]string{"L1": "O-1", "L2": "O-10", "L3": "O-30"}

	approved := pending("p1", "L1", "O-1", "O-3")
	approved.Decision = model.DecisionApproved
	rejected := pending("p2", "L2", "O-10", "O-11")
	rejected.Decision = model.DecisionRejected
	stale := pending("p3", "L3", "O-31", "O-32")
	stale.Decision = model.DecisionApproved
	second := pending("p4", "L1", "O-1", "O-2")
	second.Decision = model.DecisionApproved
	open := pending("p5", "L3", "O-30", "O-33")

	final, applied := ApplyDecisions(selections, []model.SubstitutionProposal{approved, rejected, stale, second, open})

	assert.Equal(t, map[string]string{"L1": "O-3", "L2": "O-10", "L3": "O-30"}, final)
	require.Len(t, applied, 1)
	assert.Equal(t, "p1", applied[0].ID)
	// input untouched
	assert.Equal(t, "O-1", selections["L1"])
}

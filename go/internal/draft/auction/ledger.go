// Package auction tracks per-team budgets and the nomination rotation for
// auction drafts. The ledger enforces the reserve invariant: after buying a
// player for b, a team must keep at least 1 unit of budget for every roster
// slot still unfilled.
package auction

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// Ledger owns auction bookkeeping for one draft. It is not safe for
// concurrent use; the owning session serializes access.
type Ledger struct {
	order   []uuid.UUID
	budgets map[uuid.UUID]*models.Budget
	nomIdx  int
}

// NewLedger builds a ledger for the frozen draft order with uniform budgets.
func NewLedger(order []uuid.UUID, budgetPerTeam, slotsPerTeam int) *Ledger {
	budgets := make(map[uuid.UUID]*models.Budget, len(order))
	for _, teamID := range order {
		budgets[teamID] = &models.Budget{
			TeamID:     teamID,
			Total:      budgetPerTeam,
			SlotsTotal: slotsPerTeam,
		}
	}
	return &Ledger{order: order, budgets: budgets}
}

// Restore rebuilds a ledger from persisted budgets, preserving the frozen
// order and the nomination cursor.
func Restore(order []uuid.UUID, budgets []models.Budget, nomIdx int) *Ledger {
	l := &Ledger{
		order:   order,
		budgets: make(map[uuid.UUID]*models.Budget, len(budgets)),
		nomIdx:  nomIdx,
	}
	for i := range budgets {
		b := budgets[i]
		l.budgets[b.TeamID] = &b
	}
	return l
}

// Budget returns a copy of the team's budget.
func (l *Ledger) Budget(teamID uuid.UUID) (models.Budget, bool) {
	b, ok := l.budgets[teamID]
	if !ok {
		return models.Budget{}, false
	}
	return *b, true
}

// Budgets returns copies of every budget in draft order.
func (l *Ledger) Budgets() []models.Budget {
	out := make([]models.Budget, 0, len(l.order))
	for _, teamID := range l.order {
		out = append(out, *l.budgets[teamID])
	}
	return out
}

// MaxLegalBid recomputes, on demand, the largest bid the team may place:
// remaining budget minus a 1-unit reserve for every other unfilled slot.
// Returns 0 when the team is unknown or has no open slot.
func (l *Ledger) MaxLegalBid(teamID uuid.UUID) int {
	b, ok := l.budgets[teamID]
	if !ok || b.OpenSlots() <= 0 {
		return 0
	}
	maxBid := b.Remaining() - (b.OpenSlots() - 1)
	if maxBid < 0 {
		return 0
	}
	return maxBid
}

// CanBid reports whether amount is a legal bid for the team.
func (l *Ledger) CanBid(teamID uuid.UUID, amount int) bool {
	return amount >= 1 && amount <= l.MaxLegalBid(teamID)
}

// RecordSale debits the buying team and fills one roster slot. The reserve
// invariant is checked again at sale time; a violation means the caller
// accepted an illegal bid and is a programming error.
func (l *Ledger) RecordSale(teamID uuid.UUID, price int) error {
	b, ok := l.budgets[teamID]
	if !ok {
		return fmt.Errorf("unknown team %s", teamID)
	}
	if !l.CanBid(teamID, price) {
		return fmt.Errorf("sale of %d to team %s violates budget reserve (remaining %d, open slots %d)",
			price, teamID, b.Remaining(), b.OpenSlots())
	}
	b.Spent += price
	b.SlotsFilled++
	return nil
}

// NominatingTeam returns the team currently entitled to nominate. Teams with
// zero open slots are skipped permanently. ok is false once every roster is
// full.
func (l *Ledger) NominatingTeam() (uuid.UUID, bool) {
	for i := 0; i < len(l.order); i++ {
		idx := (l.nomIdx + i) % len(l.order)
		teamID := l.order[idx]
		if l.budgets[teamID].OpenSlots() > 0 {
			l.nomIdx = idx
			return teamID, true
		}
	}
	return uuid.Nil, false
}

// AdvanceNomination moves the rotation past the current nominator and
// returns the next team with an open slot.
func (l *Ledger) AdvanceNomination() (uuid.UUID, bool) {
	l.nomIdx = (l.nomIdx + 1) % len(l.order)
	return l.NominatingTeam()
}

// NominationIndex exposes the rotation cursor for snapshots.
func (l *Ledger) NominationIndex() int {
	return l.nomIdx
}

// AllRostersFull reports whether every team has filled every slot.
func (l *Ledger) AllRostersFull() bool {
	for _, b := range l.budgets {
		if b.OpenSlots() > 0 {
			return false
		}
	}
	return true
}

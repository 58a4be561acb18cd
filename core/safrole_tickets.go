package core

import (
	"fmt"
	"sort"
)

// Ticket is a single ring-VRF-backed submission toward the next epoch's
// slot assignment (spec §4.2): "{ id: 32B, attempt: u8 }".
type Ticket struct {
	ID      Hash
	Attempt uint8
}

// ValidateTicketsExtrinsic checks a batch of tickets against the rules of
// spec §4.2: strictly ascending ids, no duplicates, attempt < N, and a
// valid ring-VRF proof for signing context "jam_ticket_seal" ‖ η₃ ‖
// attempt against the ring rooted at ringRoot.
//
// proofs[i] must be the proof accompanying tickets[i]; callers obtain
// both from the wire extrinsic (proof framing is part of the external
// codec contract, §6, and is not re-derived here).
func ValidateTicketsExtrinsic(verifier RingVerifier, ringRoot Hash, eta3 Hash, maxAttempts int, tickets []Ticket, proofs [][]byte) error {
	if len(tickets) != len(proofs) {
		return fmt.Errorf("%w: tickets/proofs length mismatch", ErrSafroleBadTicketProof)
	}
	for i, t := range tickets {
		if int(t.Attempt) >= maxAttempts {
			return fmt.Errorf("%w: attempt %d >= max %d", ErrSafroleBadTicketAttempt, t.Attempt, maxAttempts)
		}
		if i > 0 && !ticketLess(tickets[i-1], t) {
			if tickets[i-1].ID == t.ID {
				return fmt.Errorf("%w: id %s", ErrSafroleDuplicateTicket, t.ID.Hex())
			}
			return fmt.Errorf("%w: ids not strictly ascending at index %d", ErrSafroleBadTicketOrder, i)
		}
		ctx := RingContext(eta3, t.Attempt)
		ok, err := verifier.Verify(ringRoot, ctx, t.ID, proofs[i])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSafroleBadTicketProof, err)
		}
		if !ok {
			return fmt.Errorf("%w: ticket %s", ErrSafroleBadTicketProof, t.ID.Hex())
		}
	}
	return nil
}

func ticketLess(a, b Ticket) bool {
	for i := 0; i < len(a.ID); i++ {
		if a.ID[i] != b.ID[i] {
			return a.ID[i] < b.ID[i]
		}
	}
	return false
}

// MergeTickets stably merges newTickets into existing (already sorted by
// id), preserving strict ascending order and rejecting duplicates against
// the existing accumulator. Used while within the ticket-submission
// window (spec §4.2 step (c)).
func MergeTickets(existing []Ticket, newTickets []Ticket) ([]Ticket, error) {
	merged := make([]Ticket, 0, len(existing)+len(newTickets))
	i, j := 0, 0
	for i < len(existing) && j < len(newTickets) {
		switch {
		case existing[i].ID == newTickets[j].ID:
			return nil, fmt.Errorf("%w: id %s", ErrSafroleDuplicateTicket, existing[i].ID.Hex())
		case ticketLess(existing[i], newTickets[j]):
			merged = append(merged, existing[i])
			i++
		default:
			merged = append(merged, newTickets[j])
			j++
		}
	}
	merged = append(merged, existing[i:]...)
	merged = append(merged, newTickets[j:]...)
	return merged, nil
}

// OutsideInOrder reorders id-sorted tickets as the slot assignment
// sequence for the next epoch (spec §4.2 "Outside-in ordering"):
// given 2n tickets sorted by id, [t0, t_{2n-1}, t1, t_{2n-2}, ...].
func OutsideInOrder(sorted []Ticket) []Ticket {
	n := len(sorted)
	out := make([]Ticket, n)
	lo, hi := 0, n-1
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			out[i] = sorted[lo]
			lo++
		} else {
			out[i] = sorted[hi]
			hi--
		}
	}
	return out
}

// sortTickets returns a copy of tickets sorted by ticketLess.
func sortTickets(tickets []Ticket) []Ticket {
	out := append([]Ticket(nil), tickets...)
	sort.Slice(out, func(i, j int) bool { return ticketLess(out[i], out[j]) })
	return out
}

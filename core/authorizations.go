package core

// AuthorizerUse is one (core, auth_hash) pair a block spends out of α
// (spec §4.1 step 6).
type AuthorizerUse struct {
	Core CoreIndex
	Hash Hash
}

// ProcessAuthorizations applies spec §4.1 step 6 to pools/queues in
// place: for each authorized use, remove the hash from the pool if
// present (a miss is silently ignored — §9 open question, resolved:
// processInputAuthorizers never surfaces a missing-auth error), then
// rotate one entry from φ[core][τ mod Q] into α[core].
func ProcessAuthorizations(pools AuthPools, queues AuthQueues, uses []AuthorizerUse, slot Slot, maxPoolItems int) error {
	for _, u := range uses {
		if int(u.Core) >= len(pools) {
			return ErrAuthorizationInvalidCore
		}
		pools.RemoveIfPresent(u.Core, u.Hash)
	}
	for core := 0; core < len(pools); core++ {
		incoming := queues.SlotFor(CoreIndex(core), slot)
		pools.Rotate(CoreIndex(core), incoming, maxPoolItems)
	}
	return nil
}

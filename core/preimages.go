package core

// PreimageRequest is one (requester, blob) pair submitted in a block's
// preimages extrinsic (spec §4.1 step 5 "Preimages", §3.2 storage
// integration).
type PreimageRequest struct {
	Service ServiceId
	Blob    []byte
}

func preimageHash(p PreimageRequest) Hash {
	return Blake2b256(p.Blob)
}

// ValidatePreimagesExtrinsic enforces spec §4.1 step 5's ordering and
// de-duplication rules: entries sorted ascending by (service, hash) with
// no duplicates, every target service account must exist, and the blob
// must have been solicited (service has a matching zero-length pending
// storage entry) rather than unsolicited.
func ValidatePreimagesExtrinsic(accounts ServiceAccounts, requests []PreimageRequest) error {
	type key struct {
		service ServiceId
		hash    Hash
	}
	var lastKey *key
	seen := make(map[key]struct{}, len(requests))

	for _, req := range requests {
		acct, ok := accounts[req.Service]
		if !ok {
			return ErrPreimageUnknownServiceAcct
		}
		h := preimageHash(req)
		k := key{service: req.Service, hash: h}

		if lastKey != nil {
			if k.service < lastKey.service || (k.service == lastKey.service && lessHash(k.hash, lastKey.hash)) {
				return ErrPreimagesNotOrdered
			}
		}
		if _, dup := seen[k]; dup {
			return ErrPreimageDuplicate
		}
		seen[k] = struct{}{}
		cp := k
		lastKey = &cp

		entry, solicited := acct.Storage[h]
		if !solicited || len(entry.Value) != 0 {
			return ErrPreimageUnneeded
		}
	}
	return nil
}

func lessHash(a, b Hash) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// ApplyPreimages integrates validated preimage requests into δ's
// storage, replacing each solicited empty placeholder with the actual
// blob (spec §3.2: "holding both storage entries and preimages").
func ApplyPreimages(accounts ServiceAccounts, requests []PreimageRequest, slot Slot) {
	for _, req := range requests {
		acct, ok := accounts[req.Service]
		if !ok {
			continue
		}
		h := preimageHash(req)
		acct.Storage[h] = StorageEntry{Value: append([]byte(nil), req.Blob...)}
		accounts[req.Service] = acct
	}
}

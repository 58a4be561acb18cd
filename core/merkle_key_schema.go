package core

// TrieKey is the 31-byte key every serialized σ entry is addressed by
// (spec §4.7 "Every σ field is encoded to a fixed-length key/value pair
// in a 31-byte-keyed dictionary").
type TrieKey [31]byte

// KeyKind classifies a TrieKey by its fixed-byte pattern (spec §4.7
// "Detection is by fixed-byte pattern (detectKeyType)").
type KeyKind int

const (
	KeyKindUnknown KeyKind = iota
	KeyKindComponent
	KeyKindServiceBase
	KeyKindServiceStorage
)

const serviceBaseKeyMarker = 255

// ComponentKey builds a state-component key: key[0] in {1..16}, rest
// zero (spec §4.7 "State-component keys").
func ComponentKey(component byte) TrieKey {
	var k TrieKey
	k[0] = component
	return k
}

// ServiceBaseKey builds a service-base key: byte 0 is the marker 255,
// service id interleaved at odd offsets 1,3,5,7 (spec §4.7
// "Service-base keys").
func ServiceBaseKey(id ServiceId) TrieKey {
	var k TrieKey
	k[0] = serviceBaseKeyMarker
	interleaveServiceId(&k, id)
	return k
}

// ServiceStorageKey builds a service-storage/preimage key: service id at
// even offsets 0,2,4,6, hash fragment at odd offsets 1,3,5,7 followed by
// entry-hash bytes 4..26 (23 bytes, filling the 31-byte key) (spec §4.7
// "Service-storage / preimage keys").
func ServiceStorageKey(id ServiceId, entryHash Hash) TrieKey {
	var k TrieKey
	idBytes := [4]byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	for i := 0; i < 4; i++ {
		k[2*i] = idBytes[i]
	}
	k[1] = entryHash[0]
	k[3] = entryHash[1]
	k[5] = entryHash[2]
	k[7] = entryHash[3]
	copy(k[8:31], entryHash[4:27])
	return k
}

func interleaveServiceId(k *TrieKey, id ServiceId) {
	idBytes := [4]byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	for i := 0; i < 4; i++ {
		k[2*i+1] = idBytes[i]
	}
}

// detectKeyType classifies a raw key by its fixed-byte pattern.
func detectKeyType(k TrieKey) KeyKind {
	if k[0] >= 1 && k[0] <= 16 {
		rest := true
		for i := 1; i < len(k); i++ {
			if k[i] != 0 {
				rest = false
				break
			}
		}
		if rest {
			return KeyKindComponent
		}
	}
	if k[0] == serviceBaseKeyMarker {
		return KeyKindServiceBase
	}
	return KeyKindServiceStorage
}

// extractServiceIdFromBase recovers the ServiceId from a service-base
// key's odd-offset bytes; extractServiceIdFromStorage below does the same
// from a service-storage key's even-offset bytes.
func extractServiceIdFromBase(k TrieKey) ServiceId {
	var idBytes [4]byte
	for i := 0; i < 4; i++ {
		idBytes[i] = k[2*i+1]
	}
	return ServiceId(uint32(idBytes[0])<<24 | uint32(idBytes[1])<<16 | uint32(idBytes[2])<<8 | uint32(idBytes[3]))
}

func extractServiceIdFromStorage(k TrieKey) ServiceId {
	var idBytes [4]byte
	for i := 0; i < 4; i++ {
		idBytes[i] = k[2*i]
	}
	return ServiceId(uint32(idBytes[0])<<24 | uint32(idBytes[1])<<16 | uint32(idBytes[2])<<8 | uint32(idBytes[3]))
}

// reconstructibleFragment reports whether a service-storage key's
// interleaved hash fragment (the four odd-offset bytes) has at least 3
// leading zero bytes, the lossy-reconstruction acceptance gate (spec
// §4.7: "accepted if the interleaved fragment has ≥3 leading zero
// bytes", §9 Open Question resolved: kept as specified despite being an
// ad-hoc heuristic).
func reconstructibleFragment(k TrieKey) bool {
	return k[1] == 0 && k[3] == 0 && k[5] == 0
}

package core

// Header is a block's header (spec §4.1 check 1: "slot monotonic,
// author index < V, seal and entropy-source signatures match κ").
type Header struct {
	ParentHash      Hash
	ParentStateRoot Hash
	Slot            Slot
	AuthorIndex     ValidatorIndex
	EntropySource   []byte
	Seal            []byte
	ExtrinsicsRoot  Hash
}

// DisputesExtrinsic bundles one block's dispute-resolution data (spec
// §4.1 step 4).
type DisputesExtrinsic struct {
	Verdicts []DisputeVerdict
	Culprits []Culprit
	Faults   []Fault
}

// Extrinsic is the full bundle of per-block data a header's
// extrinsics_root commits to (spec §3.4 "Data flow": "a header and an
// extrinsic bundle (tickets, preimages, guarantees, assurances,
// disputes)").
type Extrinsic struct {
	Tickets        []Ticket
	TicketProofs   [][]byte
	Preimages      []PreimageRequest
	Guarantees     []Guarantee
	Assurances     []Assurance
	Disputes       DisputesExtrinsic
	Authorizations []AuthorizerUse
}

// Block is a header paired with its extrinsic bundle.
type Block struct {
	Header    Header
	Extrinsic Extrinsic
}

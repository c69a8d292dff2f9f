package errors

// Code identifies the class of failure carried by an *Error. Verifier codes
// map directly onto the reason tags a caller sees from VerifyBlock; syncer
// codes are logged and absorbed into state transitions rather than
// propagated to a caller.
type Code int32

const (
	ErrUnknown Code = iota

	// generic
	ErrInvalidArgument
	ErrConfiguration
	ErrStorage
	ErrNotFound
	ErrProcessing
	ErrService

	// verifier reason tags — each is fatal for the offending block
	ErrGraffiti
	ErrHashNotMeetTarget
	ErrTooFarInFuture
	ErrBlockTooOld
	ErrSequenceOutOfOrder
	ErrInvalidTarget
	ErrInvalidMinersFee
	ErrInvalidTransactionProof
	ErrNoteCommitmentSize
	ErrNullifierCommitmentSize
	ErrInvalidSpend
	ErrDuplicateNullifier
	ErrMissingStateCommitment

	// syncer error kinds
	ErrRequestTimeout
	ErrCannotSatisfyRequest
	ErrDeserializeFailure
	ErrPeerDisconnect
	ErrFatalInvariant
)

var codeNames = map[Code]string{
	ErrUnknown:                 "UNKNOWN",
	ErrInvalidArgument:         "INVALID_ARGUMENT",
	ErrConfiguration:           "CONFIGURATION",
	ErrStorage:                 "STORAGE",
	ErrNotFound:                "NOT_FOUND",
	ErrProcessing:              "PROCESSING",
	ErrService:                 "SERVICE",
	ErrGraffiti:                "GRAFFITI",
	ErrHashNotMeetTarget:       "HASH_NOT_MEET_TARGET",
	ErrTooFarInFuture:          "TOO_FAR_IN_FUTURE",
	ErrBlockTooOld:             "BLOCK_TOO_OLD",
	ErrSequenceOutOfOrder:      "SEQUENCE_OUT_OF_ORDER",
	ErrInvalidTarget:           "INVALID_TARGET",
	ErrInvalidMinersFee:        "INVALID_MINERS_FEE",
	ErrInvalidTransactionProof: "INVALID_TRANSACTION_PROOF",
	ErrNoteCommitmentSize:      "NOTE_COMMITMENT_SIZE",
	ErrNullifierCommitmentSize: "NULLIFIER_COMMITMENT_SIZE",
	ErrInvalidSpend:            "INVALID_SPEND",
	ErrDuplicateNullifier:      "DUPLICATE_NULLIFIER",
	ErrMissingStateCommitment:  "MISSING_STATE_COMMITMENT",
	ErrRequestTimeout:          "REQUEST_TIMEOUT",
	ErrCannotSatisfyRequest:    "CANNOT_SATISFY_REQUEST",
	ErrDeserializeFailure:      "DESERIALIZE_FAILURE",
	ErrPeerDisconnect:          "PEER_DISCONNECT",
	ErrFatalInvariant:          "FATAL_INVARIANT",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}

	return "UNKNOWN"
}

// Fatal reports whether the block carrying this reason must never be
// re-requested. Syncer-side recoverable kinds return false.
func (c Code) Fatal() bool {
	switch c {
	case ErrRequestTimeout, ErrCannotSatisfyRequest, ErrDeserializeFailure, ErrPeerDisconnect:
		return false
	default:
		return true
	}
}

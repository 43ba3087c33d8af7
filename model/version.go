package model

import (
	"time"

	"github.com/google/uuid"
)

// Version is an immutable snapshot of a model's parameters. Candidates flow
// through the intake channel with only an ID and parameters; acceptance
// stamps the number and timestamp. After publication a Version is shared
// read-only across the whole worker fleet, so nothing may mutate it.
type Version struct {
	Number  int       // monotonically increasing, 0 at boot
	ID      uuid.UUID // correlates a candidate across evaluate, promote, archive
	Params  []byte    // opaque parameters, owned by the version
	Created time.Time // acceptance wall-clock time, zero until accepted
}

// Initial returns the version active at program start, numbered 0.
func Initial(params []byte) *Version {
	return &Version{
		Number: 0,
		ID:     uuid.New(),
		Params: cloneParams(params),
	}
}

// NewCandidate wraps freshly trained parameters as an unaccepted candidate.
func NewCandidate(params []byte) *Version {
	return &Version{
		ID:     uuid.New(),
		Params: cloneParams(params),
	}
}

// Accepted derives the accepted snapshot of a candidate. The original
// candidate is left untouched; acceptance is the only way a numbered,
// timestamped Version comes into existence.
func (v *Version) Accepted(number int, at time.Time) *Version {
	return &Version{
		Number:  number,
		ID:      v.ID,
		Params:  cloneParams(v.Params),
		Created: at,
	}
}

func cloneParams(params []byte) []byte {
	c := make([]byte, len(params))
	copy(c, params)
	return c
}

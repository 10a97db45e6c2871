package milestone

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iotaledger/hornet-core/packages/model/hornet"
)

func TestIsCandidateMatchesCoordinatorAddress(t *testing.T) {
	v := NewValidator(hornet.Hash("COORD"), 2, SpongeKerl)
	assert.True(t, v.IsCandidate(hornet.Hash("COORD")))
	assert.False(t, v.IsCandidate(hornet.Hash("OTHER")))
}

func TestSecurityLevelReturnsConfiguredValue(t *testing.T) {
	v := NewValidator(hornet.Hash("COORD"), 3, SpongeKerl)
	assert.Equal(t, 3, v.SecurityLevel())
}

func TestValidateRejectsNonCandidateAddress(t *testing.T) {
	v := NewValidator(hornet.Hash("COORD"), 2, SpongeKerl)
	_, err := v.Validate(Candidate{Address: hornet.Hash("OTHER")})
	assert.ErrorIs(t, err, ErrNotMilestoneCandidate)
}

func TestValidateRejectsUnknownSpongeType(t *testing.T) {
	v := NewValidator(hornet.Hash("COORD"), 2, SpongeType("unknown"))
	_, err := v.Validate(Candidate{Address: hornet.Hash("COORD")})
	assert.Error(t, err)
}

func TestNewSpongeSelectsConfiguredConstruction(t *testing.T) {
	for _, st := range []SpongeType{SpongeKerl, SpongeCurlP27, SpongeCurlP81} {
		s, err := NewSponge(st)
		assert.NoError(t, err)
		assert.NotNil(t, s)
	}

	_, err := NewSponge(SpongeType("bogus"))
	assert.Error(t, err)
}

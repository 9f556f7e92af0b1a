package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() TransferCreateRequest {
	return TransferCreateRequest{
		SenderFirstName:     "Mamadou",
		SenderPhone:         "+224620000001",
		OriginLocation:      "conakry",
		ReceiverFirstName:   "Fatou",
		ReceiverPhone:       "620000002",
		DestinationLocation: " Labe ",
		Amount:              1000,
		Fees:                100,
		Currency:            "gnf",
		RecoveryMode:        "especes",
	}
}

func TestTransferCreateRequest_Validate_Normalizes(t *testing.T) {
	req := validRequest()
	require.NoError(t, req.Validate())

	assert.Equal(t, "CONAKRY", req.OriginLocation)
	assert.Equal(t, "LABE", req.DestinationLocation)
	assert.Equal(t, "GNF", req.Currency)
	assert.Equal(t, "ESPECES", req.RecoveryMode)
}

func TestTransferCreateRequest_Validate_StopsAtFirstFailure(t *testing.T) {
	// several fields are wrong at once; the location check runs first
	req := validRequest()
	req.OriginLocation = "MARS"
	req.SenderPhone = "123"
	req.Amount = -1

	err := req.Validate()
	assert.ErrorIs(t, err, ErrInvalidLocation)
}

func TestValidPhone(t *testing.T) {
	valid := []string{
		"+224620000001",
		"00224620000001",
		"620000001",
		"+221770000000",
		"+33612345678",
		"+3247000000",
		"+12125550100",
	}
	for _, p := range valid {
		assert.True(t, ValidPhone(p), "expected %q to be accepted", p)
	}

	invalid := []string{
		"",
		"123",
		"abc",
		"+9991234567890",
		"720000001",
		"+2246200",
	}
	for _, p := range invalid {
		assert.False(t, ValidPhone(p), "expected %q to be rejected", p)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "CONAKRY", Normalize("  conakry "))
	assert.Equal(t, "NEW YORK", Normalize("new york"))
	assert.Equal(t, "", Normalize("   "))
}

func TestIsValidationError(t *testing.T) {
	req := validRequest()
	req.Currency = "BTC"
	err := req.Validate()

	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(assert.AnError))
	assert.False(t, IsValidationError(nil))
}

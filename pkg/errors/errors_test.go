package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_CarriesCodeAndMessage(t *testing.T) {
	err := New(ErrCodeScoreNotFound, "score missing")
	assert.Equal(t, ErrCodeScoreNotFound, err.Code)
	assert.Contains(t, err.Error(), "MATCH_003")
	assert.Contains(t, err.Error(), "score missing")
	assert.NotEmpty(t, err.Stack)
}

func TestWithDetail_DoesNotMutateOriginal(t *testing.T) {
	base := Validation("bad weights")
	detailed := base.WithDetail("sum=95")
	assert.Empty(t, base.Detail)
	assert.Equal(t, "sum=95", detailed.Detail)
	assert.Contains(t, detailed.Error(), "sum=95")
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodePersistence, "save"))
}

func TestWrap_PreservesCodeThroughUnknown(t *testing.T) {
	inner := NotFound("profile gone")
	wrapped := Wrap(inner, ErrCodeUnknown, "lookup failed")
	assert.Equal(t, ErrCodeNotFound, wrapped.Code)
	assert.True(t, stderrors.Is(wrapped, wrapped))
	assert.True(t, IsNotFound(wrapped))
}

func TestPersistence_ChainsCause(t *testing.T) {
	driver := stderrors.New("connection reset")
	err := Persistence("insert match score", driver)
	assert.Equal(t, ErrCodePersistence, err.Code)
	assert.True(t, stderrors.Is(err, driver))

	assert.Nil(t, Persistence("no rows affected", nil).Cause)
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := LimitExceeded("quota spent")
	outer := Wrap(fmt.Errorf("enrich: %w", inner), ErrCodeProvider, "enrichment failed")
	assert.True(t, IsCode(outer, ErrCodeLimitExceeded))
	assert.False(t, IsCode(outer, ErrCodePersistence))
}

func TestIsNotFound_DomainVariants(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeProfileNotFound, "p")))
	assert.True(t, IsNotFound(New(ErrCodeOpportunityNotFound, "o")))
	assert.True(t, IsNotFound(New(ErrCodeScoreNotFound, "s")))
	assert.False(t, IsNotFound(Validation("v")))
	assert.False(t, IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeValidation, GetCode(Validation("v")))
}

func TestHTTPStatusForCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidation, http.StatusUnprocessableEntity},
		{ErrCodeScoreNotFound, http.StatusNotFound},
		{ErrCodeLimitExceeded, http.StatusTooManyRequests},
		{ErrCodeProviderTimeout, http.StatusGatewayTimeout},
		{ErrCodePersistence, http.StatusInternalServerError},
		{ErrorCode("BOGUS"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusForCode(tt.code), "code: %s", tt.code)
	}
}

func TestClientServerClassification(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeBatchTooLarge))
	assert.False(t, IsServerError(ErrCodeBatchTooLarge))
	assert.True(t, IsServerError(ErrCodePersistence))
}

package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Role     string `json:"role" validate:"required,max=20"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=200"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(sampleRequest{Role: "chef", Quantity: 3}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(sampleRequest{Quantity: 500, Email: "not-an-email"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 3)

	byField := map[string]ValidationError{}
	for _, failure := range failures {
		byField[failure.Field] = failure
	}

	require.Equal(t, "required", byField["role"].Tag)
	require.Equal(t, "max", byField["quantity"].Tag)
	require.Equal(t, "200", byField["quantity"].Param)
	require.Equal(t, "email", byField["email"].Tag)
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "role", Tag: "required"},
		{Field: "quantity", Tag: "max", Param: "200"},
	}
	require.Equal(t, "role: required, quantity: max=200", errs.Error())

	require.Equal(t, "request validation failed", ValidationErrors{}.Error())
}

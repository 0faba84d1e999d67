package validation

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	Role         string `json:"role" validate:"omitempty,role"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	BusinessName string `json:"business_name" validate:"omitempty,bizname"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Register(v)
	return v
}

func TestToDetailsUsesJSONNames(t *testing.T) {
	err := newValidator().Struct(signup{Email: "nope", Password: "short", Role: "admin"})
	require.Error(t, err)

	d := ToDetails(err)
	assert.Equal(t, []string{"Enter a valid email address."}, d["email"])
	assert.Equal(t, []string{"Ensure this field has at least 8 characters."}, d["password"])
	assert.Equal(t, []string{`"admin" is not a valid choice.`}, d["role"])
}

func TestAliasesLimitLengths(t *testing.T) {
	long := "123456789012345678901"
	err := newValidator().Struct(signup{Email: "a@b.com", Password: "longenough", Phone: long})
	require.Error(t, err)
	assert.Equal(t, []string{"Ensure this field has no more than 20 characters."}, ToDetails(err)["phone"])

	assert.NoError(t, newValidator().Struct(signup{Email: "a@b.com", Password: "longenough", Role: "business"}))
}

func TestToDetailsPayloadErrors(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
	assert.Equal(t, []string{"Request body is empty."}, ToDetails(io.EOF)["payload"])

	var dst map[string]any
	err := json.Unmarshal([]byte("{"), &dst)
	assert.Equal(t, []string{"Invalid JSON."}, ToDetails(err)["payload"])

	var typed struct {
		Remember bool `json:"remember"`
	}
	err = json.Unmarshal([]byte(`{"remember":"yes"}`), &typed)
	assert.Equal(t, []string{"Incorrect type. Expected bool."}, ToDetails(err)["remember"])

	assert.Equal(t, []string{"Invalid payload."}, ToDetails(errors.New("x"))["payload"])
}

package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shopfront/retail-backend/pkg/errors"
)

type samplePayload struct {
	Email    string `json:"email" validate:"required,email"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestDecodeJSONBody(t *testing.T) {
	var ok samplePayload
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","quantity":2}`))
	require.NoError(t, DecodeJSONBody(req, &ok))
	assert.Equal(t, 2, ok.Quantity)

	cases := map[string]string{
		"empty":          ``,
		"unknown field":  `{"email":"a@example.com","quantity":1,"admin":true}`,
		"invalid values": `{"email":"nope","quantity":0}`,
		"trailing data":  `{"email":"a@example.com","quantity":1}{}`,
	}
	for name, body := range cases {
		var dest samplePayload
		err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)), &dest)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), name)
	}
}

func TestDecodeJSONBodyReportsFieldNames(t *testing.T) {
	var dest samplePayload
	err := DecodeJSONBody(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"","quantity":0}`)), &dest)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["email"])
	assert.Equal(t, "must be greater than 0", details["quantity"])
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&categories=8b0f6a2e-7d4b-4c55-9a57-1d3c1e2f4a10,1c9d7f2a-0b55-4f0e-8c1e-3a2b4c5d6e7f&min_price=10.50&state=true", nil)

	page, err := ParseQueryInt(req, "page", 1, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	ids, err := ParseQueryUUIDs(req, "categories")
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = ParseQueryUUID(req, "categories")
	assert.Error(t, err)

	price, err := ParseQueryDecimal(req, "min_price")
	require.NoError(t, err)
	assert.Equal(t, "10.5", price.String())

	state, err := ParseQueryBool(req, "state")
	require.NoError(t, err)
	assert.True(t, *state)

	missing, err := ParseQueryDecimal(req, "max_price")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bad := httptest.NewRequest(http.MethodGet, "/?min_price=-1&page=0", nil)
	_, err = ParseQueryDecimal(bad, "min_price")
	assert.Error(t, err)
	_, err = ParseQueryInt(bad, "page", 1, 1, 100)
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "iphone 15 pro", SanitizeString("  iphone   15\tpro ", 0))
	assert.Equal(t, "héll", SanitizeString("héllo", 4))
}

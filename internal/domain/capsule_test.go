package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRecipient(t *testing.T, raw string) Recipient {
	t.Helper()
	var r Recipient
	require.NoError(t, json.Unmarshal([]byte(raw), &r))
	return r
}

func TestRecipient_StringForm(t *testing.T) {
	r := decodeRecipient(t, `"Alice@Example.com"`)
	assert.Equal(t, "alice@example.com", r.Email)
}

func TestRecipient_StringWithoutAtSign(t *testing.T) {
	r := decodeRecipient(t, `"not-an-email"`)
	assert.Equal(t, "", r.Email)
}

func TestRecipient_ObjectForms(t *testing.T) {
	for _, field := range []string{"email", "value", "contact", "address"} {
		r := decodeRecipient(t, `{"`+field+`":"Bob@Example.com"}`)
		assert.Equal(t, "bob@example.com", r.Email, "field %s", field)
	}
}

func TestRecipient_ObjectFieldPriority(t *testing.T) {
	// "email" wins over "value" even when both carry addresses.
	r := decodeRecipient(t, `{"value":"second@example.com","email":"first@example.com"}`)
	assert.Equal(t, "first@example.com", r.Email)
}

func TestRecipient_ObjectSkipsNonEmailValues(t *testing.T) {
	// "email" holds junk, so resolution falls through to "contact".
	r := decodeRecipient(t, `{"email":"junk","contact":"real@example.com"}`)
	assert.Equal(t, "real@example.com", r.Email)
}

func TestRecipient_ObjectWithNoAddress(t *testing.T) {
	r := decodeRecipient(t, `{"name":"Bob","email":"nope"}`)
	assert.Equal(t, "", r.Email)
}

func TestRecipient_NormalizesWhitespace(t *testing.T) {
	r := decodeRecipient(t, `"  Carol@Example.COM  "`)
	assert.Equal(t, "carol@example.com", r.Email)
}

func TestRecipient_RoundTripsOriginalJSON(t *testing.T) {
	raw := `{"name":"Bob","email":"bob@example.com"}`
	r := decodeRecipient(t, raw)
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestRecipientEmails_DedupesPreservingOrder(t *testing.T) {
	recipients := []Recipient{
		decodeRecipient(t, `"b@example.com"`),
		decodeRecipient(t, `"a@example.com"`),
		decodeRecipient(t, `"B@Example.com"`), // duplicate of the first
		decodeRecipient(t, `"no-at-sign"`),
		decodeRecipient(t, `{"contact":"c@example.com"}`),
	}
	assert.Equal(t, []string{"b@example.com", "a@example.com", "c@example.com"}, RecipientEmails(recipients))
}

func TestCapsule_DisplayTitle(t *testing.T) {
	assert.Equal(t, "Hi", (&Capsule{Title: "Hi"}).DisplayTitle())
	assert.Equal(t, DefaultCapsuleTitle, (&Capsule{}).DisplayTitle())
	assert.Equal(t, DefaultCapsuleTitle, (&Capsule{Title: "   "}).DisplayTitle())
}

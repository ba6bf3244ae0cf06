package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New("Alice", "Hello there", 1700000000000, SourcePrimary)
	require.NoError(t, err)
	assert.Equal(t, "Alice", r.Sender())
	assert.Equal(t, "Hello there", r.Body())
	assert.Equal(t, int64(1700000000000), r.Timestamp())
	assert.Equal(t, SourcePrimary, r.SourceApp())

	_, err = New("Alice", "   ", 1, SourcePrimary)
	assert.ErrorIs(t, err, ErrEmptyBody)

	r, err = New("", "body text", 1, SourceBusiness)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", r.Sender())
}

func TestFingerprint(t *testing.T) {
	r, err := New("Bob", "see you", 42, SourcePrimary)
	require.NoError(t, err)
	assert.Equal(t, "Bob|see you|42", r.Fingerprint())

	other, err := New("Bob", "see you", 42, SourceBusiness)
	require.NoError(t, err)
	assert.Equal(t, r.Fingerprint(), other.Fingerprint(), "source app is not part of the key")
}

func TestPayload(t *testing.T) {
	r, err := New("Alice", "Hi", 7, SourcePrimary)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{
		"from":      "Alice",
		"body":      "Hi",
		"timestamp": int64(7),
		"type":      "whatsapp",
	}, r.Payload())
}

func TestSourceAppFor(t *testing.T) {
	app, ok := SourceAppFor("com.whatsapp")
	assert.True(t, ok)
	assert.Equal(t, SourcePrimary, app)

	app, ok = SourceAppFor("com.whatsapp.w4b")
	assert.True(t, ok)
	assert.Equal(t, SourceBusiness, app)

	_, ok = SourceAppFor("org.telegram.messenger")
	assert.False(t, ok)
}

func TestIsNonTrivial(t *testing.T) {
	assert.False(t, IsNonTrivial("abc"))
	assert.False(t, IsNonTrivial("    "))
	assert.False(t, IsNonTrivial(" abc"))
	assert.False(t, IsNonTrivial("  a  "), "measured after trimming")
	assert.True(t, IsNonTrivial(" abcd "))
	assert.False(t, IsNonTrivial("héé"))
	assert.True(t, IsNonTrivial("héllo"))
	assert.True(t, IsNonTrivial("😀😀"), "two surrogate pairs are four units")
}

func TestLen(t *testing.T) {
	assert.Equal(t, 0, Len(""))
	assert.Equal(t, 3, Len("héé"))
	assert.Equal(t, 2, Len("😀"))
	assert.Equal(t, 5, Len("a😀bc"))
}

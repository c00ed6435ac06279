package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestVerifySignature(t *testing.T) {
	v := NewVerifier("topsecret", zap.NewNop())
	body := []byte(`{"message":"approve INV-1"}`)

	sig := v.Sign(body)
	assert.True(t, v.VerifySignature(sig, body))
}

func TestVerifySignatureRejectsTamperedBody(t *testing.T) {
	v := NewVerifier("topsecret", zap.NewNop())
	sig := v.Sign([]byte(`{"message":"approve INV-1"}`))

	assert.False(t, v.VerifySignature(sig, []byte(`{"message":"approve INV-2"}`)))
}

func TestVerifySignatureRejectsGarbage(t *testing.T) {
	v := NewVerifier("topsecret", zap.NewNop())

	assert.False(t, v.VerifySignature("sha256=nothex", []byte("body")))
	assert.False(t, v.VerifySignature("", []byte("body")))
}

func TestVerifySignatureDisabledWithoutSecret(t *testing.T) {
	v := NewVerifier("", zap.NewNop())

	assert.True(t, v.VerifySignature("", []byte("anything")))
}

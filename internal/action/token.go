// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package action

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/ugorji/go/codec"
	"golang.org/x/crypto/hkdf"
)

// Token errors
var (
	// ErrInvalidToken covers every decode or verification failure. Callers
	// must not be able to tell which stage rejected a token.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrKeyTooShort is returned by DeriveKey.
	ErrKeyTooShort = errors.New("signing secret must be at least 16 bytes")
)

const (
	// MinSecretBytes is the minimum length of the configured signing secret.
	MinSecretBytes = 16

	// MaxTokenLength bounds the encoded token accepted from a URL. Real
	// tokens are well below 1 KiB.
	MaxTokenLength = 4096

	keyContext = "nodewatch-action-signing"
)

// Key is the derived HMAC-SHA256 key.
type Key []byte

// DeriveKey derives the signing key from the configured secret using
// HKDF-SHA256, so the raw secret is never used as a MAC key directly.
func DeriveKey(secret []byte) (Key, error) {
	if len(secret) < MinSecretBytes {
		return nil, ErrKeyTooShort
	}
	reader := hkdf.New(sha256.New, secret, nil, []byte(keyContext))
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return key, nil
}

// SignedAction is an action plus the tag proving this service issued it.
type SignedAction struct {
	Action    Action `codec:"action"`
	Signature []byte `codec:"signature"`
}

// msgpackHandle produces the canonical encoding. StructToArray fixes field
// order by declaration; Canonical sorts any map keys.
var msgpackHandle = newHandle()

func newHandle() *codec.MsgpackHandle {
	h := new(codec.MsgpackHandle)
	h.Canonical = true
	h.StructToArray = true
	h.WriteExt = true
	h.MaxInitLen = MaxTokenLength
	return h
}

func marshal(v interface{}) ([]byte, error) {
	var b []byte
	if err := codec.NewEncoderBytes(&b, msgpackHandle).Encode(v); err != nil {
		return nil, err
	}
	return b, nil
}

func unmarshal(data []byte, v interface{}) error {
	return codec.NewDecoderBytes(data, msgpackHandle).Decode(v)
}

// canonicalBytes is the exact byte string covered by the signature.
func canonicalBytes(a Action) []byte {
	b, err := marshal(a)
	if err != nil {
		// Action has only string and integer fields.
		panic(fmt.Sprintf("action: encode action: %v", err))
	}
	return b
}

func tag(payload []byte, key Key) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return mac.Sum(nil)
}

// Sign computes the tag over the canonical encoding of a. The same action and
// key always produce the same signature.
func Sign(a Action, key Key) SignedAction {
	return SignedAction{
		Action:    a,
		Signature: tag(canonicalBytes(a), key),
	}
}

// Verify recomputes the tag and compares it in constant time. On mismatch
// the zero Action is returned so an unverified payload cannot leak out.
func (s SignedAction) Verify(key Key) (Action, error) {
	expected := tag(canonicalBytes(s.Action), key)
	if !hmac.Equal(expected, s.Signature) {
		return Action{}, ErrInvalidToken
	}
	if !s.Action.Op.Valid() {
		return Action{}, ErrInvalidToken
	}
	return s.Action, nil
}

// EncodeToken serializes s and encodes it with unpadded URL-safe base64 so it
// can ride in a query parameter.
func EncodeToken(s SignedAction) (string, error) {
	b, err := marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode signed action: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeToken reverses EncodeToken without verifying the signature. Any
// malformed input yields ErrInvalidToken. Non-canonical encodings are
// rejected so that one action has exactly one token per key.
func DecodeToken(token string) (SignedAction, error) {
	if token == "" || len(token) > MaxTokenLength {
		return SignedAction{}, ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return SignedAction{}, ErrInvalidToken
	}
	var s SignedAction
	if err := unmarshal(raw, &s); err != nil {
		return SignedAction{}, ErrInvalidToken
	}
	again, err := marshal(s)
	if err != nil || !bytes.Equal(again, raw) {
		return SignedAction{}, ErrInvalidToken
	}
	return s, nil
}

// ParseToken decodes and verifies a token from a confirmation link.
func ParseToken(token string, key Key) (Action, error) {
	s, err := DecodeToken(token)
	if err != nil {
		return Action{}, ErrInvalidToken
	}
	return s.Verify(key)
}

// NewToken signs and encodes a in one step.
func NewToken(a Action, key Key) (string, error) {
	return EncodeToken(Sign(a, key))
}

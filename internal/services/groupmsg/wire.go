package groupmsg

import (
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"groupkeys/internal/domain"
)

// EncodeMessage renders msg as URL-safe base64 CBOR for transport in text.
func EncodeMessage(msg domain.GroupMessage) (string, error) {
	b, err := cbor.Marshal(msg)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeMessage parses the output of EncodeMessage.
func DecodeMessage(s string) (domain.GroupMessage, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return domain.GroupMessage{}, fmt.Errorf("decode group message: %w", err)
	}
	var msg domain.GroupMessage
	if err := cbor.Unmarshal(b, &msg); err != nil {
		return domain.GroupMessage{}, fmt.Errorf("decode group message: %w", err)
	}
	return msg, nil
}

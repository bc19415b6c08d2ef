package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"

	"groupkeys/internal/domain"
)

// GenerateEd25519 returns a new Ed25519 signing key pair.
func GenerateEd25519() (priv domain.Ed25519Private, pub domain.Ed25519Public, err error) {
	pk, sk, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return priv, pub, err
	}
	copy(priv[:], sk)
	copy(pub[:], pk)
	return priv, pub, nil
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv domain.Ed25519Private, msg []byte) []byte {
	return ed25519.Sign(ed25519.PrivateKey(priv[:]), msg)
}

// VerifyEd25519 verifies sig over msg with pub.
func VerifyEd25519(pub domain.Ed25519Public, msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig)
}

// SignDistribution sets msg.Signature over the distribution's fields.
func SignDistribution(priv domain.Ed25519Private, msg *domain.SenderKeyDistribution) {
	msg.Signature = SignEd25519(priv, distributionTranscript(*msg))
}

// VerifyDistribution checks msg.Signature against pub.
func VerifyDistribution(pub domain.Ed25519Public, msg domain.SenderKeyDistribution) bool {
	if len(msg.Signature) != ed25519.SignatureSize {
		return false
	}
	return VerifyEd25519(pub, distributionTranscript(msg), msg.Signature)
}

func distributionTranscript(msg domain.SenderKeyDistribution) []byte {
	out := make([]byte, 0, 64+len(msg.ChannelID)+len(msg.From)+len(msg.ChainKey))
	out = append(out, "groupkeys/skdm/v1"...)
	out = appendField(out, []byte(msg.ChannelID))
	out = appendField(out, []byte(msg.From))
	out = append(out, msg.DistributionID[:]...)
	out = appendField(out, msg.ChainKey)
	return binary.BigEndian.AppendUint32(out, msg.ChainIndex)
}

func appendField(out, field []byte) []byte {
	out = binary.BigEndian.AppendUint32(out, uint32(len(field)))
	return append(out, field...)
}

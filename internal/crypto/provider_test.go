package crypto_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"groupkeys/internal/crypto"
	"groupkeys/internal/domain"
)

func TestGenerateSenderKey_Fresh(t *testing.T) {
	p := crypto.NewProvider()

	a, err := p.GenerateSenderKey()
	require.NoError(t, err)
	b, err := p.GenerateSenderKey()
	require.NoError(t, err)

	require.Len(t, a.ChainKey, domain.ChainKeySize)
	require.Zero(t, a.ChainIndex)
	require.False(t, a.DistributionID.IsZero())
	require.NotEqual(t, a.DistributionID, b.DistributionID)
	require.False(t, bytes.Equal(a.ChainKey, b.ChainKey))

	parsed, err := domain.ParseDistributionID(a.DistributionID.String())
	require.NoError(t, err)
	require.Equal(t, a.DistributionID, parsed)
}

func TestKeyedHash_Deterministic(t *testing.T) {
	p := crypto.NewProvider()
	ctx := []byte("test-context")

	h1, err := p.KeyedHash(ctx, []byte("input"), p.KeySize())
	require.NoError(t, err)
	h2, err := p.KeyedHash(ctx, []byte("input"), p.KeySize())
	require.NoError(t, err)
	require.Equal(t, h1, h2)
	require.Len(t, h1, p.KeySize())

	other, err := p.KeyedHash([]byte("other-context"), []byte("input"), p.KeySize())
	require.NoError(t, err)
	require.NotEqual(t, h1, other)

	_, err = p.KeyedHash(ctx, []byte("input"), 65)
	require.ErrorIs(t, err, crypto.ErrHashSize)
}

func TestEncryptDecrypt(t *testing.T) {
	p := crypto.NewProvider()
	key := bytes.Repeat([]byte{7}, p.KeySize())
	nonce, err := p.RandomNonce()
	require.NoError(t, err)
	require.Len(t, nonce, p.NonceSize())

	ct, err := p.Encrypt([]byte("hello"), key, nonce, []byte("ad"))
	require.NoError(t, err)

	pt, err := p.Decrypt(ct, key, nonce, []byte("ad"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pt)

	_, err = p.Decrypt(ct, key, nonce, []byte("other"))
	require.ErrorIs(t, err, crypto.ErrDecrypt)

	wrong := bytes.Repeat([]byte{8}, p.KeySize())
	_, err = p.Decrypt(ct, wrong, nonce, []byte("ad"))
	require.ErrorIs(t, err, crypto.ErrDecrypt)

	_, err = p.Decrypt(ct, key, nonce[:3], []byte("ad"))
	require.ErrorIs(t, err, crypto.ErrDecrypt)
}

func TestDistributionSignature(t *testing.T) {
	priv, pub, err := crypto.GenerateEd25519()
	require.NoError(t, err)

	msg := domain.SenderKeyDistribution{
		ChannelID:  "ch-1",
		From:       "user-1",
		ChainKey:   bytes.Repeat([]byte{1}, 32),
		ChainIndex: 3,
	}
	crypto.SignDistribution(priv, &msg)
	require.True(t, crypto.VerifyDistribution(pub, msg))

	msg.ChainIndex = 4
	require.False(t, crypto.VerifyDistribution(pub, msg))

	msg.Signature = nil
	require.False(t, crypto.VerifyDistribution(pub, msg))
}

func TestFingerprint(t *testing.T) {
	_, xpub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	_, edpub, err := crypto.GenerateEd25519()
	require.NoError(t, err)

	fp := crypto.Fingerprint(xpub, edpub)
	require.Equal(t, fp, crypto.Fingerprint(xpub, edpub))
	require.Regexp(t, `^[0-9a-f]{4}( [0-9a-f]{4}){4}$`, fp.String())

	_, otherEd, err := crypto.GenerateEd25519()
	require.NoError(t, err)
	require.NotEqual(t, fp, crypto.Fingerprint(xpub, otherEd))
}

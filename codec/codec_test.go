package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/govariant/govariant/codec"
	"github.com/govariant/govariant/format"
)

func TestCodecs_RoundTrip(t *testing.T) {
	data := []byte("chr1\tposition\t100\tref=A\talt=G,T\tlots of repeated text repeated text")

	for _, ct := range []format.CompressionType{format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4} {
		t.Run(ct.String(), func(t *testing.T) {
			c, err := codec.CreateCodec(ct, "test")
			require.NoError(t, err)

			compressed, err := c.Compress(data, 6)
			require.NoError(t, err)

			out, err := c.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, data, out)
		})
	}
}

func TestCreateCodec_InvalidType(t *testing.T) {
	_, err := codec.CreateCodec(format.CompressionType(99), "test")
	require.Error(t, err)
}

func TestCipher_AES256GCM_RoundTrip(t *testing.T) {
	key, err := codec.GenerateKey()
	require.NoError(t, err)
	nonce, err := codec.GenerateNonce()
	require.NoError(t, err)

	c, err := codec.NewCipher(format.CipherAES256GCM, key, nonce)
	require.NoError(t, err)

	plaintext := []byte("0|1:99:30,30")
	sealed, err := c.Seal(plaintext)
	require.NoError(t, err)

	out, err := c.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, out)
}

func TestCipher_AES256GCM_TamperDetected(t *testing.T) {
	key, _ := codec.GenerateKey()
	nonce, _ := codec.GenerateNonce()
	c, _ := codec.NewCipher(format.CipherAES256GCM, key, nonce)

	sealed, _ := c.Seal([]byte("payload"))
	sealed.Ciphertext[0] ^= 0xFF

	_, err := c.Open(sealed)
	require.Error(t, err)
}

func TestCipher_AES256CTR_RoundTrip(t *testing.T) {
	key, _ := codec.GenerateKey()
	nonce, _ := codec.GenerateNonce()
	c, err := codec.NewCipher(format.CipherAES256CTR, key, nonce)
	require.NoError(t, err)

	plaintext := []byte("1|1:45")
	sealed, err := c.Seal(plaintext)
	require.NoError(t, err)

	out, err := c.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintext, out)
}

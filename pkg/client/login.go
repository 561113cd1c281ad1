package client

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"

	"github.com/vango-dev/craftwire/pkg/packets"
	"github.com/vango-dev/craftwire/pkg/protocol"
	"go.opentelemetry.io/otel/attribute"
)

// sharedSecretLen is the AES-128 key size used for the shared secret.
const sharedSecretLen = 16

// ServerHash returns the session server id for a login: the SHA-1 digest of
// serverID, the shared secret and the DER public key, printed as a signed
// (two's complement) hexadecimal number without leading zeros.
func ServerHash(serverID string, sharedSecret, publicKey []byte) string {
	h := sha1.New()
	h.Write([]byte(serverID))
	h.Write(sharedSecret)
	h.Write(publicKey)
	sum := h.Sum(nil)

	n := new(big.Int).SetBytes(sum)
	if sum[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(sum)*8)))
	}
	return n.Text(16)
}

// handleEncryption answers an EncryptionRequest. The response is written
// unencrypted and writer encryption is switched on in the same queue item;
// reader decryption starts immediately, since everything the server sends
// next is encrypted.
func (c *Connection) handleEncryption(req *packets.EncryptionRequest) error {
	if !c.cfg.Online() {
		return &AuthError{Op: "encryption", Err: ErrOnlineModeRequired}
	}

	parsed, err := x509.ParsePKIXPublicKey(req.PublicKey)
	if err != nil {
		return &AuthError{Op: "encryption", Err: fmt.Errorf("parse server key: %w", err)}
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return &AuthError{Op: "encryption", Err: fmt.Errorf("server key is %T, not RSA", parsed)}
	}

	secret := make([]byte, sharedSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return &AuthError{Op: "encryption", Err: err}
	}

	hash := ServerHash(req.ServerID, secret, req.PublicKey)
	if err := c.cfg.SessionJoiner.Join(c.ctx, *c.cfg.Credentials, hash); err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return err
		}
		return &AuthError{Op: "join", Err: err}
	}
	c.spanEvent(eventJoined, attribute.String("craftwire.server_hash", hash))

	encSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, secret)
	if err != nil {
		return &AuthError{Op: "encryption", Err: err}
	}
	encToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, req.VerifyToken)
	if err != nil {
		return &AuthError{Op: "encryption", Err: err}
	}

	enc, dec, err := protocol.NewSharedSecretStreams(secret)
	if err != nil {
		return &AuthError{Op: "encryption", Err: err}
	}

	resp := &packets.EncryptionResponse{SharedSecret: encSecret, VerifyToken: encToken}
	if err := c.sendThen(resp, func(fw *protocol.FrameWriter) { fw.EnableEncryption(enc) }); err != nil {
		return err
	}
	c.reader.EnableEncryption(dec)
	c.encrypted.Store(true)
	c.spanEvent(eventEncryption)
	c.logger.Info("encryption enabled")
	return nil
}

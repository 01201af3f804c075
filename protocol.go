package sealpost

import "fmt"

// SealEnvelope applies the hybrid encrypt-and-sign protocol to a message.
//
// The payload is encrypted once under a fresh symmetric key and IV, the
// key+IV bundle is wrapped asymmetrically for each recipient, and the
// ciphertext is signed with the sender's signing key under the engine
// profile's hash. One key pair of symmetric variables is shared by all
// recipients' wraps; each recipient merely holds an independently wrapped
// copy. That keeps the blob identical for every recipient at the cost of one
// small asymmetric operation per recipient.
//
// The returned wrapped keys parallel the recipients slice. They are not part
// of the envelope: embedding them would let anyone holding the blob decrypt
// it. Each wrap travels only inside its recipient's inbox notification.
func SealEnvelope(engine CryptoEngine, msg *Message, sender *OwnEndpoint, recipients []*Endpoint) (*Envelope, [][]byte, error) {
	if len(recipients) == 0 {
		return nil, nil, ErrEmptyRecipientSet
	}
	if msg == nil || sender == nil {
		return nil, nil, fmt.Errorf("%w: nil message or sender", ErrMalformedPayload)
	}

	plain := msg
	if plain.Sender == nil {
		copied := *msg
		copied.Sender = sender.PublicEndpoint()
		plain = &copied
	}
	plaintext := plain.marshalPlaintext()

	vars, err := engine.NewSymmetricVariables()
	if err != nil {
		return nil, nil, fmt.Errorf("generate symmetric variables: %w", err)
	}
	defer vars.Destroy()

	ciphertext, err := engine.SymmetricEncrypt(plaintext, vars.Key, vars.IV)
	if err != nil {
		return nil, nil, fmt.Errorf("encrypt payload: %w", err)
	}

	// key || iv, wrapped independently per recipient.
	bundle := make([]byte, 0, len(vars.Key)+len(vars.IV))
	bundle = append(bundle, vars.Key...)
	bundle = append(bundle, vars.IV...)
	defer wipe(bundle)

	wrapped := make([][]byte, len(recipients))
	for i, recipient := range recipients {
		if recipient == nil || len(recipient.EncryptionPublicKey) == 0 {
			return nil, nil, fmt.Errorf("%w: recipient %d has no encryption key", ErrKeyExportFailure, i)
		}
		wk, err := engine.AsymmetricEncrypt(recipient.EncryptionPublicKey, bundle)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: recipient %d: %v", ErrKeyExportFailure, i, err)
		}
		wrapped[i] = wk
	}

	signature, err := engine.Sign(ciphertext, sender.signingPrivateKey)
	if err != nil {
		return nil, nil, fmt.Errorf("sign ciphertext: %w", err)
	}

	env := &Envelope{
		HashAlgorithm:          engine.Profile().HashAlgorithm(),
		SenderSigningPublicKey: append([]byte(nil), sender.SigningPublicKey...),
		CreationUTC:            plain.CreationUTC,
		Ciphertext:             ciphertext,
		Signature:              signature,
	}
	return env, wrapped, nil
}

// OpenEnvelope is the inverse of SealEnvelope for one recipient.
//
// The wrapped key is unwrapped with the recipient's private encryption key,
// the signature is verified over the ciphertext, and only then is the payload
// decrypted. Verify-then-decrypt ordering is mandatory: a tampered envelope
// fails with ErrIntegrityViolation before any of its ciphertext is processed.
// Opening the same envelope and wrapped key twice yields identical messages
// and has no side effects.
func OpenEnvelope(engine CryptoEngine, env *Envelope, wrappedKey []byte, own *OwnEndpoint) (*Message, error) {
	bundle, err := engine.AsymmetricDecrypt(own.encryptionPrivateKey, wrappedKey)
	if err != nil {
		return nil, fmt.Errorf("unwrap symmetric key: %w", err)
	}
	defer wipe(bundle)

	ivSize := engine.IVSize()
	if len(bundle) <= ivSize {
		return nil, fmt.Errorf("%w: wrapped bundle too short", ErrInvalidKeyMaterial)
	}
	// The IV is the bundle's tail; the key is whatever precedes it. This
	// tolerates senders whose profile uses a different symmetric key size.
	key, iv := bundle[:len(bundle)-ivSize], bundle[len(bundle)-ivSize:]

	if !engine.Verify(env.SenderSigningPublicKey, env.Ciphertext, env.Signature, env.HashAlgorithm) {
		return nil, ErrIntegrityViolation
	}

	plaintext, err := engine.SymmetricDecrypt(env.Ciphertext, key, iv)
	if err != nil {
		return nil, fmt.Errorf("decrypt payload: %w", err)
	}

	return unmarshalPlaintext(plaintext)
}

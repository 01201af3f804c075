// Package sealpost implements an end-to-end encrypted, store-and-forward
// messaging channel over an untrusted relay.
//
// A sender hybrid-encrypts a payload once, signs it, uploads the resulting
// envelope to blob storage, and drops a small notification (the blob's
// location plus a per-recipient wrapped copy of the symmetric key) into each
// recipient's relay inbox. Recipients poll their inbox, fetch the referenced
// envelope, verify the sender's signature and decrypt. The relay never sees
// plaintext or private keys.
//
// Basic usage:
//
//	engine, err := stdengine.New(sealpost.MinimumProfile())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	me, err := sealpost.NewOwnEndpoint(engine, myInboxURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	channel, err := sealpost.New(me, engine, storage, transport)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Send to one or more recipients.
//	msg := sealpost.NewMessage(me.PublicEndpoint(), []byte("hello"))
//	result, err := channel.Post(ctx, msg, []*sealpost.Endpoint{friend}, time.Now().Add(24*time.Hour))
//
//	// Pick up whatever has arrived.
//	received, err := channel.Receive(ctx)
//
// Cryptographic primitives are supplied through the CryptoEngine interface so
// the protocol logic is independent of any particular backend. Two engines
// ship with the module: stdengine (RSA + AES, the classic profile-driven
// stack) and hpkeengine (HPKE/X25519 + Ed25519 + ChaCha20-Poly1305).
package sealpost

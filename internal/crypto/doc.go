// Package crypto implements the reversible string transforms of the save
// pipeline and the chain that composes them.
//
// Every Encryptor satisfies Decrypt(Encrypt(x)) == x for every input it
// accepts, including the empty string. A Chain encrypts through its links in
// order and decrypts through them in reverse. Links that only change the
// encoding (Base64, Gzip) are valid for the same reason the ciphers are: they
// round-trip, not because they hide anything.
package crypto

package main

import (
	"crypto/tls"
	"fmt"
)

// strongCipherSuites pins the negotiable ciphers to ECDHE key exchange with
// AES-GCM or ChaCha20-Poly1305 AEAD only.
var strongCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
}

// buildTLSConfig loads the PEM certificate/key pair and returns a server
// *tls.Config restricted to TLS 1.2+ with the cipher list above. It fails if
// the key does not match the certificate.
func buildTLSConfig(certPath, keyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("tls: error loading certificate/key: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: strongCipherSuites,
	}, nil
}

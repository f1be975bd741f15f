package main

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// sshSignaturePrefix tags the signature line format:
// sshsig-v1:<algorithm>:<base64 public key>:<base64 signature>.
const sshSignaturePrefix = "sshsig-v1"

// signingNamespace is mixed into the signed bytes so a commit signature
// cannot be replayed as a signature over some other payload.
const signingNamespace = "lut-commit\x00"

var defaultSigningKeys = []string{"id_ed25519", "id_ecdsa", "id_rsa"}

// sshSigner signs commit payloads with an unencrypted SSH private key.
type sshSigner struct {
	path   string
	signer ssh.Signer
}

func loadSSHSigner(keyPath string) (*sshSigner, error) {
	path, err := resolveSigningKeyPath(keyPath)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read signing key %q: %w", path, err)
	}
	signer, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			return nil, fmt.Errorf("signing key %q is passphrase-protected; use an unencrypted key", path)
		}
		return nil, fmt.Errorf("parse signing key %q: %w", path, err)
	}
	return &sshSigner{path: path, signer: signer}, nil
}

// Sign implements repo.CommitSigner.
func (s *sshSigner) Sign(payload []byte) (string, error) {
	msg := make([]byte, 0, len(signingNamespace)+len(payload))
	msg = append(msg, signingNamespace...)
	msg = append(msg, payload...)

	sig, err := s.signer.Sign(rand.Reader, msg)
	if err != nil {
		return "", fmt.Errorf("ssh sign: %w", err)
	}
	pub := base64.StdEncoding.EncodeToString(s.signer.PublicKey().Marshal())
	return strings.Join([]string{
		sshSignaturePrefix,
		sig.Format,
		pub,
		base64.StdEncoding.EncodeToString(sig.Blob),
	}, ":"), nil
}

// verifySSHSignature checks a signature line produced by Sign against the
// payload it claims to cover. The key embedded in the line is used for the
// check, so with an empty allowed list this proves integrity only. A
// non-empty allowed list additionally requires the embedded key to be one
// of them.
func verifySSHSignature(signature string, payload []byte, allowed []ssh.PublicKey) error {
	parts := strings.Split(signature, ":")
	if len(parts) != 4 || parts[0] != sshSignaturePrefix {
		return fmt.Errorf("unrecognized signature format")
	}
	pubRaw, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return fmt.Errorf("decode public key: %w", err)
	}
	pub, err := ssh.ParsePublicKey(pubRaw)
	if err != nil {
		return fmt.Errorf("parse public key: %w", err)
	}
	if len(allowed) > 0 && !keyAllowed(pub, allowed) {
		return fmt.Errorf("signed by %s, which is not an allowed key", ssh.FingerprintSHA256(pub))
	}
	blob, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	msg := append([]byte(signingNamespace), payload...)
	return pub.Verify(msg, &ssh.Signature{Format: parts[1], Blob: blob})
}

func resolveSigningKeyPath(path string) (string, error) {
	if path = strings.TrimSpace(path); path != "" {
		return expandUserPath(path)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	for _, name := range defaultSigningKeys {
		candidate := filepath.Join(home, ".ssh", name)
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no signing key configured and none of %s found in ~/.ssh", strings.Join(defaultSigningKeys, ", "))
}

func expandUserPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Abs(path)
}

func keyAllowed(pub ssh.PublicKey, allowed []ssh.PublicKey) bool {
	want := pub.Marshal()
	for _, k := range allowed {
		if bytes.Equal(k.Marshal(), want) {
			return true
		}
	}
	return false
}

// loadAllowedKeys reads public keys in authorized_keys format. Each file may
// hold several keys; blank lines and comments are skipped.
func loadAllowedKeys(paths []string) ([]ssh.PublicKey, error) {
	var keys []ssh.PublicKey
	for _, p := range paths {
		path, err := expandUserPath(p)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read allowed key %q: %w", path, err)
		}
		for i, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			pub, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
			if err != nil {
				return nil, fmt.Errorf("parse allowed key %q line %d: %w", path, i+1, err)
			}
			keys = append(keys, pub)
		}
	}
	return keys, nil
}

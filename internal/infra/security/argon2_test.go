package security

import (
	"strings"
	"testing"
)

func TestPasswordHasherHashAndVerify(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	encoded, err := hasher.Hash("correct horse battery 9")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %s", encoded)
	}

	ok, err := hasher.Verify("correct horse battery 9", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected matching password to verify")
	}

	ok, err = hasher.Verify("wrong password 9", encoded)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if ok {
		t.Fatal("expected mismatched password to fail verification")
	}
}

func TestPasswordHasherSaltsDiffer(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	first, err := hasher.Hash("same password 1")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	second, err := hasher.Hash("same password 1")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	if first == second {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestPasswordHasherRejectsMalformedHash(t *testing.T) {
	hasher := NewPasswordHasher(DefaultArgon2Params())

	for _, encoded := range []string{
		"",
		"plainhash",
		"$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$not-base64!$aGFzaA",
	} {
		if _, err := hasher.Verify("anything", encoded); err == nil {
			t.Errorf("expected error verifying against %q", encoded)
		}
	}
}

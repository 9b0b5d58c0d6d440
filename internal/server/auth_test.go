package server

import (
	"testing"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter22hunter22" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword(hash, "hunter22hunter22") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Error("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuth("test-secret")
	token, err := a.IssueToken(42, "garrett")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.AccountID != 42 || claims.Username != "garrett" {
		t.Errorf("claims mangled: %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewAuth("secret-a").IssueToken(1, "u")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewAuth("secret-b").ValidateToken(token); err == nil {
		t.Error("token signed with another secret must not validate")
	}
}

func TestTokenGarbage(t *testing.T) {
	if _, err := NewAuth("s").ValidateToken("not.a.token"); err == nil {
		t.Error("garbage token must not validate")
	}
}

package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "Sup3rSecret!" {
		t.Fatal("hash should not equal the password")
	}

	if !VerifyPassword("Sup3rSecret!", hash) {
		t.Error("correct password should verify")
	}
	if VerifyPassword("wrong", hash) {
		t.Error("wrong password should not verify")
	}
	if VerifyPassword("Sup3rSecret!", "not-a-hash") {
		t.Error("garbage hash should not verify")
	}
}

package utils

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "secret"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !CheckPassword(password, hash) {
		t.Errorf("Expected password check to pass")
	}

	if CheckPassword("wrongpassword", hash) {
		t.Errorf("Expected password check to fail")
	}
}

func TestJWT(t *testing.T) {
	secret := "supersecret"
	counselorID := int64(123)

	token, err := GenerateToken(counselorID, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if claims.CounselorID != counselorID {
		t.Errorf("Expected CounselorID %d, got %d", counselorID, claims.CounselorID)
	}

	_, err = ValidateToken(token, "wrongsecret")
	if err == nil {
		t.Errorf("Expected error with wrong secret")
	}
}

func TestGenerateIntakeSlug(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		slug := GenerateIntakeSlug()
		if len(slug) != intakeSlugSize {
			t.Fatalf("Expected slug of length %d, got %q", intakeSlugSize, slug)
		}
		seen[slug] = true
	}
	if len(seen) < 2 {
		t.Errorf("Expected distinct slugs across generations")
	}
}

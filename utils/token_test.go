package utils

import "testing"

func TestJwtRoundTrip(t *testing.T) {
	token, err := JwtGenerate(42, "HOD", "Mathematics")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	parsed, err := JwtValidate(token)
	if err != nil {
		t.Fatalf("JwtValidate: %v", err)
	}
	if !parsed.Valid {
		t.Fatalf("token should be valid")
	}

	claim, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok {
		t.Fatalf("claims are not *JwtCustomClaim: %T", parsed.Claims)
	}
	if claim.ID != 42 {
		t.Errorf("ID = %d, want 42", claim.ID)
	}
	if claim.Role != "HOD" {
		t.Errorf("Role = %q, want HOD", claim.Role)
	}
	if claim.Department != "Mathematics" {
		t.Errorf("Department = %q, want Mathematics", claim.Department)
	}
	if claim.ExpiresAt <= claim.IssuedAt {
		t.Errorf("token must expire after issuance: iat=%d exp=%d", claim.IssuedAt, claim.ExpiresAt)
	}
}

func TestJwtValidateRejectsGarbage(t *testing.T) {
	if _, err := JwtValidate("not.a.token"); err == nil {
		t.Fatalf("garbage token should not validate")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := HashPassword("s3cret-passw0rd")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(string(hashed), "s3cret-passw0rd"); err != nil {
		t.Fatalf("correct password rejected: %v", err)
	}
	if err := ComparePassword(string(hashed), "wrong"); err == nil {
		t.Fatalf("wrong password accepted")
	}
}

package auth

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
)

func TestValidatePasswordAccumulatesViolations(t *testing.T) {
	got := ValidatePassword("abc")
	want := []Violation{ViolationLength, ViolationUppercase, ViolationDigit}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("violations = %v, want %v", got, want)
	}
}

func TestValidatePasswordAccepts(t *testing.T) {
	if got := ValidatePassword("Abcdefg1"); len(got) != 0 {
		t.Fatalf("expected strong password, got %v", got)
	}
}

func TestValidatePasswordEmpty(t *testing.T) {
	got := ValidatePassword("")
	if len(got) != 4 {
		t.Fatalf("expected all rules to fail, got %v", got)
	}
}

func TestCheckPasswordMessage(t *testing.T) {
	err := CheckPassword("abcdefgh")
	if !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}
	want := "A senha deve conter: Uma letra maiúscula, Um número"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestGenerateResetCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateResetCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code %q is not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("code %d out of range", n)
		}
	}
}

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("Secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ok, err := Verify("Secret1", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, _ = Verify("secret1", hash)
	if ok {
		t.Fatalf("expected mismatch for different password")
	}
	if _, err := Hash(""); !errors.Is(err, ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestNeedsRehash(t *testing.T) {
	current, err := Hash("Secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if NeedsRehash(current) {
		t.Fatalf("hash with current params must not need rehash")
	}

	old := "$argon2id$v=19$m=16384,t=2,p=1$c29tZXNhbHRzb21lc2FsdA$bWVyZWx5LWEtdGVzdC1rZXktMzJieXRlcy1sb25nISE"
	if !NeedsRehash(old) {
		t.Fatalf("hash with older params must need rehash")
	}
	if !NeedsRehash("texto-puro") {
		t.Fatalf("illegible hash must need rehash")
	}
}

package model

import (
	"testing"
	"time"
)

func TestNormalizeType(t *testing.T) {
	cases := map[string]ContractType{
		"supply":  TypeSupply,
		"service": TypeService,
		"nda":     TypeNDA,
		"rental":  TypeRental,
		"":        TypeSupply,
		"unknown": TypeSupply,
	}

	for input, want := range cases {
		if got := NormalizeType(input); got != want {
			t.Errorf("NormalizeType(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestContractStatus(t *testing.T) {
	contract := &Contract{
		ID:           "c-1",
		Supplier:     "شركة المراعي",
		Buyer:        "مكتبة جرير",
		Items:        "توريد أجهزة",
		Price:        50000,
		ContractType: TypeSupply,
		CreatedAt:    time.Now(),
	}

	if contract.Status() != StatusPending {
		t.Errorf("Expected status '%s', got '%s'", StatusPending, contract.Status())
	}

	contract.SignedBySupplier = true
	if contract.Status() != StatusPending {
		t.Error("Expected pending while only one party has signed")
	}

	contract.SignedByBuyer = true
	if contract.Status() != StatusComplete {
		t.Errorf("Expected status '%s', got '%s'", StatusComplete, contract.Status())
	}
}

func TestUserPassword(t *testing.T) {
	user := &User{Username: "almarai"}
	if err := user.SetPassword("almarai123"); err != nil {
		t.Fatalf("SetPassword failed: %v", err)
	}

	if user.PasswordHash == "almarai123" {
		t.Error("Password must not be stored in plaintext")
	}
	if !user.CheckPassword("almarai123") {
		t.Error("Expected correct password to verify")
	}
	if user.CheckPassword("wrong") {
		t.Error("Expected wrong password to fail")
	}
}

package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint("BESS-A1B2C3")
	b := Fingerprint("BESS-A1B2C3")

	assert.Equal(t, a, b)
	assert.Len(t, a, FingerprintLength)
	assert.True(t, ValidateFingerprint(a))
}

func TestFingerprintDistinct(t *testing.T) {
	assert.NotEqual(t, Fingerprint("BESS-A1B2C3"), Fingerprint("BESS-D4E5F6"))
}

func TestValidateFingerprint(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"Valid", "0123456789abcdef", true},
		{"TooShort", "0123456789abcde", false},
		{"TooLong", "0123456789abcdef0", false},
		{"NotHex", "0123456789abcdeg", false},
		{"Empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateFingerprint(tt.id); got != tt.want {
				t.Errorf("ValidateFingerprint(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestServiceAddress(t *testing.T) {
	svc := &Service{Host: "bess.local.", Addrs: []string{"192.168.1.50"}, Port: 80}
	assert.Equal(t, "192.168.1.50:80", svc.Address())

	svc = &Service{Host: "bess.local.", Port: 80}
	assert.Equal(t, "bess.local.:80", svc.Address())
}

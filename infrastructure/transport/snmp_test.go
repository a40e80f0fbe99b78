package transport

import (
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestSysNameValue(t *testing.T) {
	tests := []struct {
		name        string
		pdu         gosnmp.SnmpPDU
		expected    string
		expectError bool
	}{
		{
			name:     "octet string",
			pdu:      gosnmp.SnmpPDU{Name: SysNameOID, Type: gosnmp.OctetString, Value: []byte("core-sw1.example.net")},
			expected: "core-sw1.example.net",
		},
		{
			name:        "empty name",
			pdu:         gosnmp.SnmpPDU{Name: SysNameOID, Type: gosnmp.OctetString, Value: []byte{}},
			expectError: true,
		},
		{
			name:        "no such object",
			pdu:         gosnmp.SnmpPDU{Name: SysNameOID, Type: gosnmp.NoSuchObject},
			expectError: true,
		},
		{
			name:        "wrong type",
			pdu:         gosnmp.SnmpPDU{Name: SysNameOID, Type: gosnmp.Integer, Value: 5},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := sysNameValue(tt.pdu)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, got %q", result)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("sysNameValue() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestSNMPResolver_NoAgent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := NewSNMPResolver("public", logger)
	r.Port = 1
	r.Timeout = 100 * time.Millisecond
	r.Retries = 0

	if _, err := r.ResolveHostname("127.0.0.1"); err == nil {
		t.Error("Expected error when no SNMP agent answers")
	}
}

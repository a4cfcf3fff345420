package location

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr string
	}{
		{"add ok", addC1(), ""},
		{"add empty free text", AddCustomerLocation{CustomerLocationID: "c1"}, ""},
		{"long access token", AddCustomerLocation{CustomerLocationID: "c1", AccessToken: strings.Repeat("a", 4096)}, ""},
		{"long email", AddCustomerLocation{CustomerLocationID: "c1", Email: strings.Repeat("e", 1024) + "@you.com"}, ""},
		{"tab in room", AssignRoom{CustomerLocationID: "c1", DeviceID: "d1", Room: "a\tb"}, ""},
		{"non NFC room", AssignRoom{CustomerLocationID: "c1", DeviceID: "d1", Room: "cafe\u0301"}, ""},
		{"nil", nil, "command is nil"},
		{"empty location id", ActivateDevice{DeviceID: "d1"}, "customer_location_id is required"},
		{"empty device id", ToggleNightlight{CustomerLocationID: "c1"}, "device_id is required"},
		{"control char in id", ActivateDevice{CustomerLocationID: "c1", DeviceID: "d\n1"}, "device_id contains control characters"},
		{"C1 control in id", ActivateDevice{CustomerLocationID: "c1", DeviceID: "d\u00851"}, "device_id contains control characters"},
		{"long id", ActivateDevice{CustomerLocationID: "c1", DeviceID: strings.Repeat("d", MaxIdentifierRunes+1)}, "device_id exceeds 256 characters"},
		{"invalid utf8 room", AssignRoom{CustomerLocationID: "c1", DeviceID: "d1", Room: "\xff"}, "room is not valid UTF-8"},
		{"not nfc", RemoveCustomerLocation{CustomerLocationID: "e\u0301"}, "customer_location_id must be NFC normalized"},
		{"remove ok", RemoveCustomerLocation{CustomerLocationID: "c1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommand(tt.cmd)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, IsInvalidArgument(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	assert.NoError(t, ValidateIdentifier("customer_location_id", "customerId1"))
	assert.NoError(t, ValidateIdentifier("customer_location_id", strings.Repeat("\u00e9", MaxIdentifierRunes)))
	assert.True(t, IsInvalidArgument(ValidateIdentifier("customer_location_id", "")))
	assert.True(t, IsInvalidArgument(ValidateIdentifier("customer_location_id", "a\x00b")))
}

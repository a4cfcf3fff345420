package location

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxIdentifierRunes bounds customer location and device ids, in runes.
const MaxIdentifierRunes = 256

// ValidateCommand checks the shape of cmd without looking at any state.
// Identifiers must be non-empty, at most MaxIdentifierRunes long,
// NFC-normalized and free of control characters. Free-text fields (access
// token, email, room) are opaque: they may be empty or long and only need
// to be valid UTF-8.
func ValidateCommand(cmd Command) error {
	if cmd == nil {
		return NewInvalidArgument("", "command is nil")
	}
	id := cmd.LocationID()
	if err := validateIdentifier(id, "customer_location_id", id); err != nil {
		return err
	}

	switch c := cmd.(type) {
	case AddCustomerLocation:
		if err := validateText(id, "access_token", c.AccessToken); err != nil {
			return err
		}
		return validateText(id, "email", c.Email)
	case ActivateDevice:
		return validateIdentifier(id, "device_id", c.DeviceID)
	case AssignRoom:
		if err := validateIdentifier(id, "device_id", c.DeviceID); err != nil {
			return err
		}
		return validateText(id, "room", c.Room)
	case ToggleNightlight:
		return validateIdentifier(id, "device_id", c.DeviceID)
	case RemoveCustomerLocation:
		return nil
	default:
		return NewInvalidArgument(id, fmt.Sprintf("unsupported command %T", cmd))
	}
}

// ValidateIdentifier applies the identifier rules to a single value.
func ValidateIdentifier(field, value string) error {
	return validateIdentifier("", field, value)
}

func validateIdentifier(locationID, field, value string) error {
	if value == "" {
		return NewInvalidArgument(locationID, field+" is required")
	}
	if err := validateText(locationID, field, value); err != nil {
		return err
	}
	if utf8.RuneCountInString(value) > MaxIdentifierRunes {
		return NewInvalidArgument(locationID, fmt.Sprintf("%s exceeds %d characters", field, MaxIdentifierRunes))
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return NewInvalidArgument(locationID, field+" contains control characters")
		}
	}
	if !norm.NFC.IsNormalString(value) {
		return NewInvalidArgument(locationID, field+" must be NFC normalized")
	}
	return nil
}

func validateText(locationID, field, value string) error {
	if !utf8.ValidString(value) {
		return NewInvalidArgument(locationID, field+" is not valid UTF-8")
	}
	return nil
}

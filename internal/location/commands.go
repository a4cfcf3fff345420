package location

// CommandType names a command. The names double as CUE definition names in
// the schema package.
type CommandType string

const (
	CommandAddCustomerLocation    CommandType = "AddCustomerLocation"
	CommandActivateDevice         CommandType = "ActivateDevice"
	CommandAssignRoom             CommandType = "AssignRoom"
	CommandToggleNightlight       CommandType = "ToggleNightlight"
	CommandRemoveCustomerLocation CommandType = "RemoveCustomerLocation"
)

// Command is a request to change one customer location.
type Command interface {
	CommandType() CommandType
	LocationID() string
}

// AddCustomerLocation creates a location.
type AddCustomerLocation struct {
	CustomerLocationID string `json:"customer_location_id"`
	AccessToken        string `json:"access_token"`
	Email              string `json:"email"`
}

// ActivateDevice registers a device at a location. Repeating it is a no-op
// on state.
type ActivateDevice struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
}

// AssignRoom sets a device's room label.
type AssignRoom struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
	Room               string `json:"room"`
}

// ToggleNightlight flips a device's nightlight.
type ToggleNightlight struct {
	CustomerLocationID string `json:"customer_location_id"`
	DeviceID           string `json:"device_id"`
}

// RemoveCustomerLocation removes a location and all its devices.
type RemoveCustomerLocation struct {
	CustomerLocationID string `json:"customer_location_id"`
}

func (AddCustomerLocation) CommandType() CommandType    { return CommandAddCustomerLocation }
func (ActivateDevice) CommandType() CommandType         { return CommandActivateDevice }
func (AssignRoom) CommandType() CommandType             { return CommandAssignRoom }
func (ToggleNightlight) CommandType() CommandType       { return CommandToggleNightlight }
func (RemoveCustomerLocation) CommandType() CommandType { return CommandRemoveCustomerLocation }

func (c AddCustomerLocation) LocationID() string    { return c.CustomerLocationID }
func (c ActivateDevice) LocationID() string         { return c.CustomerLocationID }
func (c AssignRoom) LocationID() string             { return c.CustomerLocationID }
func (c ToggleNightlight) LocationID() string       { return c.CustomerLocationID }
func (c RemoveCustomerLocation) LocationID() string { return c.CustomerLocationID }

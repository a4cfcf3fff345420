package location

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs each command through Decide and Apply, failing the test on
// any rejection.
func execute(t *testing.T, state CustomerLocation, cmds ...Command) CustomerLocation {
	t.Helper()
	for _, cmd := range cmds {
		events, err := Decide(state, cmd)
		require.NoError(t, err, "command %s", cmd.CommandType())
		for _, evt := range events {
			state, err = Apply(state, evt)
			require.NoError(t, err)
		}
	}
	return state
}

func addC1() AddCustomerLocation {
	return AddCustomerLocation{CustomerLocationID: "c1", AccessToken: "accessToken", Email: "email"}
}

func TestDecide_AddCustomerLocation(t *testing.T) {
	events, err := Decide(CustomerLocation{}, addC1())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, CustomerLocationAdded{CustomerLocationID: "c1", AccessToken: "accessToken", Email: "email"}, events[0])

	state := execute(t, CustomerLocation{}, addC1())
	assert.True(t, state.Added)
	assert.Equal(t, "c1", state.CustomerLocationID)
	assert.Equal(t, "accessToken", state.AccessToken)
	assert.Equal(t, "email", state.Email)
	assert.Empty(t, state.Devices)
}

func TestDecide_AddTwiceIsAlreadyExists(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1())

	events, err := Decide(state, addC1())
	require.Error(t, err)
	assert.Nil(t, events)
	assert.True(t, IsAlreadyExists(err))
}

func TestDecide_CommandsOnMissingLocation(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"activate", ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"}},
		{"assign room", AssignRoom{CustomerLocationID: "c1", DeviceID: "d1", Room: "kitchen"}},
		{"toggle", ToggleNightlight{CustomerLocationID: "c1", DeviceID: "d1"}},
		{"remove", RemoveCustomerLocation{CustomerLocationID: "c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Decide(CustomerLocation{}, tt.cmd)
			require.Error(t, err)
			assert.Empty(t, events)
			assert.True(t, IsNotFound(err))

			domainErr, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, MsgLocationNotFound, domainErr.Message)
			assert.Equal(t, "c1", domainErr.CustomerLocationID)
		})
	}
}

func TestDecide_CommandsOnMissingDevice(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1())

	for _, cmd := range []Command{
		AssignRoom{CustomerLocationID: "c1", DeviceID: "ghost", Room: "attic"},
		ToggleNightlight{CustomerLocationID: "c1", DeviceID: "ghost"},
	} {
		events, err := Decide(state, cmd)
		require.Error(t, err)
		assert.Empty(t, events)

		domainErr, ok := AsError(err)
		require.True(t, ok)
		assert.Equal(t, CodeNotFound, domainErr.Code)
		assert.Equal(t, MsgDeviceNotFound, domainErr.Message)
		assert.Equal(t, "ghost", domainErr.DeviceID)
	}
}

func TestDecide_ActivationIsIdempotent(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1(),
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
		AssignRoom{CustomerLocationID: "c1", DeviceID: "d1", Room: "hall"},
		ToggleNightlight{CustomerLocationID: "c1", DeviceID: "d1"},
	)

	again := execute(t, state, ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"})
	assert.Equal(t, state, again)
	require.Len(t, again.Devices, 1)
	assert.Equal(t, "hall", again.Devices[0].Room)
	assert.True(t, again.Devices[0].NightlightOn)
}

func TestDecide_DeviceOrderIsActivationOrder(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1(),
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d3"},
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d2"},
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
		AssignRoom{CustomerLocationID: "c1", DeviceID: "d2", Room: "z"},
	)

	ids := make([]string, 0, len(state.Devices))
	for _, d := range state.Devices {
		ids = append(ids, d.DeviceID)
	}
	assert.Equal(t, []string{"d3", "d1", "d2"}, ids)
}

func TestDecide_ToggleIsNegation(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1(),
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
	)
	toggle := ToggleNightlight{CustomerLocationID: "c1", DeviceID: "d1"}

	for i := 1; i <= 5; i++ {
		events, err := Decide(state, toggle)
		require.NoError(t, err)
		require.Len(t, events, 1)
		toggled, ok := events[0].(NightlightToggled)
		require.True(t, ok)
		assert.Equal(t, !state.Devices[0].NightlightOn, toggled.NightlightOn)

		state = execute(t, state, toggle)
		assert.Equal(t, i%2 == 1, state.Devices[0].NightlightOn, "after %d toggles", i)
	}
}

func TestDecide_RemovalIsFinal(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1(),
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
		RemoveCustomerLocation{CustomerLocationID: "c1"},
	)
	assert.False(t, state.Added)
	assert.Empty(t, state.Devices)

	_, err := Get(state, "c1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "NOT_FOUND: customerLocation does not exist.", err.Error())

	for _, cmd := range []Command{
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
		AssignRoom{CustomerLocationID: "c1", DeviceID: "d1", Room: "x"},
		ToggleNightlight{CustomerLocationID: "c1", DeviceID: "d1"},
		RemoveCustomerLocation{CustomerLocationID: "c1"},
	} {
		_, err := Decide(state, cmd)
		assert.True(t, IsNotFound(err), "%s after removal", cmd.CommandType())
	}
}

func TestDecide_ReAddAfterRemoval(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1(),
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
		RemoveCustomerLocation{CustomerLocationID: "c1"},
		AddCustomerLocation{CustomerLocationID: "c1", AccessToken: "t2", Email: "e2"},
	)
	assert.True(t, state.Added)
	assert.Equal(t, "t2", state.AccessToken)
	assert.Empty(t, state.Devices)
}

func TestDecide_RejectionLeavesStateUntouched(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1(),
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
	)
	before := state.Clone()

	_, err := Decide(state, AssignRoom{CustomerLocationID: "c1", DeviceID: "d9", Room: "x"})
	require.Error(t, err)
	_, err = Decide(state, addC1())
	require.Error(t, err)

	assert.Equal(t, before, state)
}

// Mirrors the reference end-to-end flow: three devices, one room assignment,
// one toggle, then removal.
func TestDecide_EndToEndScenario(t *testing.T) {
	state := execute(t, CustomerLocation{}, addC1())

	got, err := Get(state, "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.CustomerLocationID)
	assert.Equal(t, "accessToken", got.AccessToken)
	assert.Equal(t, "email", got.Email)

	state = execute(t, state,
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"},
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d2"},
		ActivateDevice{CustomerLocationID: "c1", DeviceID: "d3"},
		AssignRoom{CustomerLocationID: "c1", DeviceID: "d2", Room: "person-cave"},
		ToggleNightlight{CustomerLocationID: "c1", DeviceID: "d3"},
	)

	require.Len(t, state.Devices, 3)
	assert.Equal(t, Device{DeviceID: "d1", CustomerLocationID: "c1", Activated: true}, state.Devices[0])
	assert.Equal(t, Device{DeviceID: "d2", CustomerLocationID: "c1", Activated: true, Room: "person-cave"}, state.Devices[1])
	assert.Equal(t, Device{DeviceID: "d3", CustomerLocationID: "c1", Activated: true, NightlightOn: true}, state.Devices[2])

	state = execute(t, state, RemoveCustomerLocation{CustomerLocationID: "c1"})
	_, err = Get(state, "c1")
	assert.True(t, IsNotFound(err))
}

func TestDecide_InvalidArgument(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"nil command", nil},
		{"empty location id", AddCustomerLocation{}},
		{"empty device id", ActivateDevice{CustomerLocationID: "c1"}},
		{"control char in device id", ToggleNightlight{CustomerLocationID: "c1", DeviceID: "d\x001"}},
		{"non NFC id", RemoveCustomerLocation{CustomerLocationID: "cafe\u0301"}},
		{"device id too long", ActivateDevice{CustomerLocationID: "c1", DeviceID: strings.Repeat("d", MaxIdentifierRunes+1)}},
		{"invalid utf8 room", AssignRoom{CustomerLocationID: "c1", DeviceID: "d1", Room: "\xff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := Decide(CustomerLocation{}, tt.cmd)
			require.Error(t, err)
			assert.Empty(t, events)
			assert.True(t, IsInvalidArgument(err), "got %v", err)
		})
	}
}

func TestError_Is(t *testing.T) {
	err := NewLocationNotFound("c1")
	assert.ErrorIs(t, err, &Error{Code: CodeNotFound})
	assert.NotErrorIs(t, err, &Error{Code: CodeAlreadyExists})
}

func TestDecide_NormalizesFreeText(t *testing.T) {
	events, err := Decide(CustomerLocation{}, AddCustomerLocation{
		CustomerLocationID: "c1",
		AccessToken:        "toke\u0301",
		Email:              "jose\u0301@you.com",
	})
	require.NoError(t, err)
	added := events[0].(CustomerLocationAdded)
	assert.Equal(t, "tok\u00e9", added.AccessToken)
	assert.Equal(t, "jos\u00e9@you.com", added.Email)

	state := execute(t, CustomerLocation{}, addC1(), ActivateDevice{CustomerLocationID: "c1", DeviceID: "d1"})
	events, err = Decide(state, AssignRoom{CustomerLocationID: "c1", DeviceID: "d1", Room: "cafe\u0301"})
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9", events[0].(RoomAssigned).Room)
}

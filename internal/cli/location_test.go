package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wirelessmesh/internal/location"
)

func TestAddAndGet_Text(t *testing.T) {
	opts := tempDB(t, "text")

	out, err := execute(t, NewAddCommand(opts), "customerId1", "--access-token", "accessToken", "--email", "me@you.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Customer location: customerId1")
	assert.Contains(t, out, "Email: me@you.com")
	assert.Contains(t, out, "Devices: 0")

	out, err = execute(t, NewGetCommand(opts), "customerId1")
	require.NoError(t, err)
	assert.Contains(t, out, "Customer location: customerId1")
}

func TestAdd_AlreadyExists(t *testing.T) {
	opts := tempDB(t, "json")

	_, err := execute(t, NewAddCommand(opts), "c1", "--access-token", "t", "--email", "e@x.com")
	require.NoError(t, err)

	out, err := execute(t, NewAddCommand(opts), "c1", "--access-token", "t", "--email", "e@x.com")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeAlreadyExists, resp.Error.Code)
	assert.Equal(t, "customerLocation already exists.", resp.Error.Message)
}

func TestGet_NotFound(t *testing.T) {
	opts := tempDB(t, "text")

	out, err := execute(t, NewGetCommand(opts), "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [E_NOT_FOUND]: customerLocation does not exist.\n", out)
}

func TestDeviceCommands_EndToEnd(t *testing.T) {
	opts := tempDB(t, "text")
	seed(t, opts,
		[]string{"add", "c1", "--access-token", "tok", "--email", "me@you.com"},
		[]string{"activate", "c1", "d1"},
		[]string{"activate", "c1", "d2"},
		[]string{"activate", "c1", "d3"},
		[]string{"activate", "c1", "d1"},
		[]string{"assign-room", "c1", "d2", "person-cave"},
		[]string{"toggle", "c1", "d3"},
	)

	opts.Format = "json"
	out, err := execute(t, NewGetCommand(opts), "c1")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			CustomerLocationID string `json:"customer_location_id"`
			Devices            []struct {
				DeviceID     string `json:"device_id"`
				Room         string `json:"room"`
				NightlightOn bool   `json:"nightlight_on"`
			} `json:"devices"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Devices, 3)
	assert.Equal(t, "d1", resp.Data.Devices[0].DeviceID)
	assert.Equal(t, "d2", resp.Data.Devices[1].DeviceID)
	assert.Equal(t, "d3", resp.Data.Devices[2].DeviceID)
	assert.Equal(t, "person-cave", resp.Data.Devices[1].Room)
	assert.True(t, resp.Data.Devices[2].NightlightOn)
	assert.False(t, resp.Data.Devices[0].NightlightOn)
}

func TestDeviceText_RoomAndNightlight(t *testing.T) {
	opts := tempDB(t, "text")
	seed(t, opts,
		[]string{"add", "c1", "--access-token", "tok", "--email", "me@you.com"},
		[]string{"activate", "c1", "d1"},
	)

	out, err := execute(t, NewAssignRoomCommand(opts), "c1", "d1", "kitchen")
	require.NoError(t, err)
	assert.Contains(t, out, "d1  room=kitchen  nightlight=off")

	out, err = execute(t, NewToggleCommand(opts), "c1", "d1")
	require.NoError(t, err)
	assert.Contains(t, out, "d1  room=kitchen  nightlight=on")

	out, err = execute(t, NewActivateCommand(opts), "c1", "d2")
	require.NoError(t, err)
	assert.Contains(t, out, "d2  room=-  nightlight=off")
}

func TestToggle_UnknownDevice(t *testing.T) {
	opts := tempDB(t, "json")
	seed(t, opts, []string{"add", "c1", "--access-token", "tok", "--email", "me@you.com"})

	out, err := execute(t, NewToggleCommand(opts), "c1", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "device does not exist.", resp.Error.Message)
}

func TestRemove(t *testing.T) {
	opts := tempDB(t, "text")
	seed(t, opts,
		[]string{"add", "c1", "--access-token", "tok", "--email", "me@you.com"},
		[]string{"activate", "c1", "d1"},
	)

	out, err := execute(t, NewRemoveCommand(opts), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Customer location c1 removed\n", out)

	_, err = execute(t, NewGetCommand(opts), "c1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, NewRemoveCommand(opts), "c1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestActivate_InvalidArgument(t *testing.T) {
	opts := tempDB(t, "json")

	out, err := execute(t, NewActivateCommand(opts), "c1", "bad\x00id")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInvalidArgument, resp.Error.Code)
}

func TestLocationCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "from-config.db")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  path: "+db+"\n"), 0o644))

	opts := &RootOptions{Format: "text", ConfigPath: cfgPath}
	_, err := execute(t, NewAddCommand(opts), "c1", "--access-token", "tok", "--email", "me@you.com")
	require.NoError(t, err)

	_, err = os.Stat(db)
	assert.NoError(t, err, "database should be created at the configured path")
}

func TestLocationCommand_BadConfig(t *testing.T) {
	opts := &RootOptions{Format: "text", ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")}

	_, err := execute(t, NewGetCommand(opts), "c1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.False(t, IsReported(err))
}

func TestLocationCommand_MetricsTextfile(t *testing.T) {
	dir := t.TempDir()
	prom := filepath.Join(dir, "mesh.prom")
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "database:\n  path: " + filepath.Join(dir, "mesh.db") + "\nmetrics:\n  enabled: true\n  textfile: " + prom + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	opts := &RootOptions{Format: "text", ConfigPath: cfgPath}
	_, err := execute(t, NewAddCommand(opts), "c1", "--access-token", "tok", "--email", "me@you.com")
	require.NoError(t, err)

	data, err := os.ReadFile(prom)
	require.NoError(t, err)
	assert.Contains(t, string(data), "wirelessmesh_")
}

func TestLocationCommand_MetricsWriteFailureIsReturned(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := "database:\n  path: " + filepath.Join(dir, "mesh.db") +
		"\nmetrics:\n  enabled: true\n  textfile: " + filepath.Join(dir, "missing", "mesh.prom") + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	opts := &RootOptions{Format: "text", ConfigPath: cfgPath}
	out, err := execute(t, NewAddCommand(opts), "c1", "--access-token", "tok", "--email", "me@you.com")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "write metrics")
	assert.Contains(t, out, "Customer location: c1", "the command itself succeeded")
}

func TestGet_FreshLocationJSONHasEmptyDevices(t *testing.T) {
	opts := tempDB(t, "json")
	seed(t, opts, []string{"add", "c1", "--access-token", "tok", "--email", "me@you.com"})

	out, err := execute(t, NewGetCommand(opts), "c1")
	require.NoError(t, err)
	assert.Contains(t, out, `"devices": []`)
	assert.NotContains(t, out, `"devices": null`)
}

func TestLocationView_NilDevicesMarshalAsArray(t *testing.T) {
	data, err := json.Marshal(locationView{location.CustomerLocation{CustomerLocationID: "c1"}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"devices":[]`)
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/wirelessmesh/internal/engine"
	"github.com/roach88/wirelessmesh/internal/location"
)

// locationView renders a CustomerLocation for output.
type locationView struct {
	location.CustomerLocation
}

// MarshalJSON always emits devices as an array.
func (v locationView) MarshalJSON() ([]byte, error) {
	l := v.CustomerLocation
	if l.Devices == nil {
		l.Devices = []location.Device{}
	}
	return json.Marshal(l)
}

func (v locationView) writeText(w io.Writer) error {
	l := v.CustomerLocation
	fmt.Fprintf(w, "Customer location: %s\n", l.CustomerLocationID)
	fmt.Fprintf(w, "  Email: %s\n", l.Email)
	fmt.Fprintf(w, "  Devices: %d\n", len(l.Devices))
	for _, d := range l.Devices {
		light := "off"
		if d.NightlightOn {
			light = "on"
		}
		room := d.Room
		if room == "" {
			room = "-"
		}
		fmt.Fprintf(w, "    %s  room=%s  nightlight=%s\n", d.DeviceID, room, light)
	}
	return nil
}

// removedView is the empty acknowledgement of a removal.
type removedView struct {
	CustomerLocationID string `json:"customer_location_id"`
	Removed            bool   `json:"removed"`
}

func (v removedView) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Customer location %s removed\n", v.CustomerLocationID)
	return err
}

// runLocationOp opens the runtime, runs op and reports its result.
// A failure to close the runtime (metrics textfile, MQTT disconnect, store)
// is logged and, if op succeeded, returned as a command error.
func runLocationOp(opts *RootOptions, cmd *cobra.Command, op func(ctx context.Context, svc *engine.Service) (any, error)) (err error) {
	formatter := newFormatter(opts, cmd)

	rt, err := openRuntime(opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			rt.logger.Warn("runtime close failed", "error", closeErr)
			if err == nil {
				err = WrapExitError(ExitCommandError, "failed to close runtime", closeErr)
			}
		}
	}()

	result, err := op(cmd.Context(), rt.service)
	if err != nil {
		return formatter.Fail(err)
	}
	return formatter.Success(result)
}

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	AccessToken string
	Email       string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <customer-location-id>",
		Short: "Add a customer location",
		Long: `Add a customer location.

Exit codes:
  0 - Location added
  1 - Location already exists or arguments are invalid
  2 - Command error

Example:
  meshctl add customerId1 --access-token accessToken --email me@you.com`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocationOp(rootOpts, cmd, func(ctx context.Context, svc *engine.Service) (any, error) {
				l, err := svc.AddCustomerLocation(ctx, args[0], opts.AccessToken, opts.Email)
				return locationView{l}, err
			})
		},
	}

	cmd.Flags().StringVar(&opts.AccessToken, "access-token", "", "access token for the location")
	cmd.Flags().StringVar(&opts.Email, "email", "", "contact email for the location")

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <customer-location-id>",
		Short: "Show a customer location and its devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocationOp(rootOpts, cmd, func(ctx context.Context, svc *engine.Service) (any, error) {
				l, err := svc.GetCustomerLocation(ctx, args[0])
				return locationView{l}, err
			})
		},
	}
}

// NewActivateCommand creates the activate command.
func NewActivateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <customer-location-id> <device-id>",
		Short: "Activate a device at a location",
		Long: `Activate a device at a location.

Activating a device that is already present leaves the location unchanged.
Devices are listed in the order they were first activated.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocationOp(rootOpts, cmd, func(ctx context.Context, svc *engine.Service) (any, error) {
				l, err := svc.ActivateDevice(ctx, args[0], args[1])
				return locationView{l}, err
			})
		},
	}
}

// NewAssignRoomCommand creates the assign-room command.
func NewAssignRoomCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assign-room <customer-location-id> <device-id> <room>",
		Short: "Assign a room to a device",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocationOp(rootOpts, cmd, func(ctx context.Context, svc *engine.Service) (any, error) {
				l, err := svc.AssignRoom(ctx, args[0], args[1], args[2])
				return locationView{l}, err
			})
		},
	}
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <customer-location-id> <device-id>",
		Short: "Toggle a device's nightlight",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocationOp(rootOpts, cmd, func(ctx context.Context, svc *engine.Service) (any, error) {
				l, err := svc.ToggleNightlight(ctx, args[0], args[1])
				return locationView{l}, err
			})
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <customer-location-id>",
		Short: "Remove a customer location and all its devices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocationOp(rootOpts, cmd, func(ctx context.Context, svc *engine.Service) (any, error) {
				if err := svc.RemoveCustomerLocation(ctx, args[0]); err != nil {
					return nil, err
				}
				return removedView{CustomerLocationID: args[0], Removed: true}, nil
			})
		},
	}
}

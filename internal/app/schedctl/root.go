// Package schedctl implements the operator CLI for the scheduling service.
package schedctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Apurer/petclinic-scheduling/internal/app/api"
	schedhttpmapper "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/adapters/http/mapper"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application"
	schedtypes "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/application/types"
	"github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/domain"
	schedports "github.com/Apurer/petclinic-scheduling/internal/domains/scheduling/ports"
)

var Version = "dev"

// ServiceFactory builds the scheduling service a command runs against plus its cleanup.
type ServiceFactory func(ctx context.Context) (schedports.Service, func(), error)

// EnvServiceFactory wires the service from the same environment the API uses.
// CLINIC_API_URL points the CLI at a running clinic backend.
func EnvServiceFactory(logger *slog.Logger) ServiceFactory {
	return func(ctx context.Context) (schedports.Service, func(), error) {
		cfg, err := api.LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		c := api.BuildCollaborators(ctx, cfg, logger)
		return application.NewService(c.Slots, c.Store, c.ServiceOptions(cfg, logger)...), c.Close, nil
	}
}

// NewRootCmd builds the schedctl command tree.
func NewRootCmd(factory ServiceFactory) *cobra.Command {
	root := &cobra.Command{
		Use:           "schedctl",
		Short:         "Inspect availability and manage clinic appointments",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("user", "", "user the command acts for")

	root.AddCommand(newDatesCmd(factory))
	root.AddCommand(newSlotsCmd(factory))
	root.AddCommand(newBookCmd(factory))
	root.AddCommand(newEditCmd(factory))
	root.AddCommand(newCancelCmd(factory))
	root.AddCommand(newStatusCmd(factory))
	root.AddCommand(newListCmd(factory))
	return root
}

func newDatesCmd(factory ServiceFactory) *cobra.Command {
	var window int
	c := &cobra.Command{
		Use:   "dates",
		Short: "List days with at least one free slot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc schedports.Service) error {
				input := schedtypes.AvailableDatesInput{}
				if cmd.Flags().Changed("window") {
					input.WindowDays = &window
				}
				dates, err := svc.AvailableDates(ctx, input)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), schedhttpmapper.FromDates(dates))
			})
		},
	}
	c.Flags().IntVar(&window, "window", 0, "days ahead to look (defaults to BOOKING_WINDOW_DAYS)")
	return c
}

func newSlotsCmd(factory ServiceFactory) *cobra.Command {
	var date string
	c := &cobra.Command{
		Use:   "slots",
		Short: "List free slots on a day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := domain.ParseLocalDate(date)
			if err != nil {
				return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
			}
			return withService(cmd, factory, func(ctx context.Context, svc schedports.Service) error {
				slots, err := svc.SlotsForDate(ctx, schedtypes.SlotsForDateInput{Date: day})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), schedhttpmapper.FromSlots(slots))
			})
		},
	}
	c.Flags().StringVar(&date, "date", "", "day in YYYY-MM-DD")
	_ = c.MarkFlagRequired("date")
	return c
}

type requestFlags struct {
	pet      string
	services []string
	from     string
	to       string
}

func (f *requestFlags) bind(c *cobra.Command) {
	c.Flags().StringVar(&f.pet, "pet", "", "pet identifier")
	c.Flags().StringSliceVar(&f.services, "service", nil, "service type (OPD, Surgery, Vaccination, Grooming); repeatable")
	c.Flags().StringVar(&f.from, "from", "", "slot start in RFC 3339")
	c.Flags().StringVar(&f.to, "to", "", "slot end in RFC 3339")
}

func (f *requestFlags) request() (schedhttpmapper.AppointmentRequest, error) {
	req := schedhttpmapper.AppointmentRequest{PetID: f.pet, Services: f.services}
	if f.from != "" {
		from, err := time.Parse(time.RFC3339, f.from)
		if err != nil {
			return req, fmt.Errorf("invalid --from: %w", err)
		}
		req.From = &from
	}
	if f.to != "" {
		to, err := time.Parse(time.RFC3339, f.to)
		if err != nil {
			return req, fmt.Errorf("invalid --to: %w", err)
		}
		req.To = &to
	}
	return req, nil
}

func newBookCmd(factory ServiceFactory) *cobra.Command {
	var (
		flags   requestFlags
		payment schedhttpmapper.Payment
		date    string
		key     string
	)
	c := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			req.Date = date
			req.Payment = &payment
			input, err := schedhttpmapper.ToCreateInput(session(cmd), key, req)
			if err != nil {
				return err
			}
			return withService(cmd, factory, func(ctx context.Context, svc schedports.Service) error {
				created, err := svc.CreateAppointment(ctx, input)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), schedhttpmapper.FromProjection(created))
			})
		},
	}
	flags.bind(c)
	c.Flags().StringVar(&date, "date", "", "day picked in the date step (defaults to the slot's day)")
	c.Flags().StringVar(&key, "idempotency-key", "", "key making retries safe")
	c.Flags().StringVar(&payment.Method, "payment-method", "card", "payment method")
	c.Flags().StringVar(&payment.CardNumber, "card-number", "", "16 digit card number")
	c.Flags().StringVar(&payment.Expiry, "expiry", "", "card expiry as MM/YY")
	c.Flags().StringVar(&payment.CVV, "cvv", "", "3 digit card security code")
	return c
}

func newEditCmd(factory ServiceFactory) *cobra.Command {
	var flags requestFlags
	c := &cobra.Command{
		Use:   "edit <appointment-id>",
		Short: "Change the pet, services, or slot of an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}
			input := schedhttpmapper.ToEditInput(session(cmd), args[0], req)
			return withService(cmd, factory, func(ctx context.Context, svc schedports.Service) error {
				updated, err := svc.EditAppointment(ctx, input)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), schedhttpmapper.FromProjection(updated))
			})
		},
	}
	flags.bind(c)
	return c
}

func newCancelCmd(factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <appointment-id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc schedports.Service) error {
				cancelled, err := svc.CancelAppointment(ctx, schedtypes.AppointmentIdentifier{Session: session(cmd), ID: args[0]})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), schedhttpmapper.FromProjection(cancelled))
			})
		},
	}
}

func newStatusCmd(factory ServiceFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "status <appointment-id> <pending|confirmed|completed|cancelled>",
		Short: "Move an appointment along its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, factory, func(ctx context.Context, svc schedports.Service) error {
				updated, err := svc.UpdateStatus(ctx, schedtypes.UpdateStatusInput{ID: args[0], Status: args[1]})
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), schedhttpmapper.FromProjection(updated))
			})
		},
	}
}

func newListCmd(factory ServiceFactory) *cobra.Command {
	var (
		all    bool
		status string
		date   string
	)
	c := &cobra.Command{
		Use:   "list",
		Short: "List the user's appointments, or every appointment with --all",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !all && (status != "" || date != "") {
				return fmt.Errorf("--status and --date need --all")
			}
			input := schedtypes.ListAllAppointmentsInput{Status: status}
			if date != "" {
				day, err := domain.ParseLocalDate(date)
				if err != nil {
					return fmt.Errorf("invalid --date (want YYYY-MM-DD)")
				}
				input.Date = day
			}
			return withService(cmd, factory, func(ctx context.Context, svc schedports.Service) error {
				var (
					list []*schedtypes.AppointmentProjection
					err  error
				)
				if all {
					list, err = svc.ListAllAppointments(ctx, input)
				} else {
					list, err = svc.ListAppointments(ctx, schedtypes.ListAppointmentsInput{Session: session(cmd)})
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), schedhttpmapper.FromProjectionList(list))
			})
		},
	}
	c.Flags().BoolVar(&all, "all", false, "list every user's appointments (clinic staff)")
	c.Flags().StringVar(&status, "status", "", "with --all, only this status")
	c.Flags().StringVar(&date, "date", "", "with --all, only this day in YYYY-MM-DD")
	return c
}

func withService(cmd *cobra.Command, factory ServiceFactory, fn func(context.Context, schedports.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, cleanup, err := factory(ctx)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}
	return fn(ctx, svc)
}

func session(cmd *cobra.Command) domain.Session {
	user, _ := cmd.Flags().GetString("user")
	return domain.Session{UserID: strings.TrimSpace(user)}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

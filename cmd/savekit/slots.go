package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreamer-zq/savekit/internal/common"
	"github.com/dreamer-zq/savekit/internal/savedata"
	"github.com/dreamer-zq/savekit/internal/serializer"
)

// withService runs fn against a locally assembled save service
func withService(fn func(ctx context.Context, svc *savedata.Service) error) error {
	_, application, err := loadApp()
	if err != nil {
		return err
	}
	defer common.LogMsgDo("close storage", application.Close)
	return fn(context.Background(), application.Service())
}

func putCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <json-value>",
		Short: "Save a JSON value into a slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value any
			if err := (serializer.JSON{}).Unmarshal(args[1], &value); err != nil {
				return fmt.Errorf("value is not valid JSON: %w", err)
			}
			return withService(func(ctx context.Context, svc *savedata.Service) error {
				if err := svc.Save(ctx, args[0], value); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
				return err
			})
		},
	}
}

func getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored in a slot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *savedata.Service) error {
				value, err := savedata.TryLoad[any](ctx, svc, args[0])
				if errors.Is(err, savedata.ErrNotFound) {
					return fmt.Errorf("slot %q does not exist", args[0])
				}
				if err != nil {
					return err
				}
				out, err := json.MarshalIndent(value, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			})
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <key>",
		Aliases: []string{"delete"},
		Short:   "Delete a slot",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *savedata.Service) error {
				return svc.Delete(ctx, args[0])
			})
		},
	}
}

func existsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <key>",
		Short: "Report whether a slot holds a value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(func(ctx context.Context, svc *savedata.Service) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), svc.Exists(ctx, args[0]))
				return err
			})
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List slot keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			return withService(func(ctx context.Context, svc *savedata.Service) error {
				keys, err := svc.List(ctx, prefix)
				if err != nil {
					return err
				}
				for _, k := range keys {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), k); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

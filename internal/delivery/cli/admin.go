package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Dmitrij-bot/vinabook/internal/resource"
)

func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Review and process orders (admin)",
	}

	list := &pageOptions{}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				page, err := e.app.API.ListOrders(ctx, list.Page, list.Limit)
				if err != nil {
					return err
				}
				return e.out.Success(page, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tBOOK\tCLIENT\tPHONE\tSTATUS")
					for _, o := range page.Rows {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", o.ID, o.IDBook, o.NameClient, o.PhoneNumber, o.Status)
					}
					pageFooter(w, page.Page, page.TotalPages(), page.Count)
				})
			})
		},
	}
	list.bind(listCmd)

	showCmd := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show one order with its book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				o, err := e.app.API.GetOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return e.out.Success(o, func(w io.Writer) {
					fmt.Fprintf(w, "Order:\t%s\n", o.ID)
					fmt.Fprintf(w, "Status:\t%s\n", o.Status)
					fmt.Fprintf(w, "Book:\t%s (%s)\n", o.Book.Name, formatVND(o.Book.Price))
					fmt.Fprintf(w, "Client:\t%s\n", o.NameClient)
					fmt.Fprintf(w, "Phone:\t%s\n", o.PhoneNumber)
					fmt.Fprintf(w, "Address:\t%s\n", o.Address)
					if o.Note != "" {
						fmt.Fprintf(w, "Note:\t%s\n", o.Note)
					}
				})
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status <order-id> <pending|processing|completed|cancelled>",
		Short: "Move an order to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				msg, err := e.app.API.UpdateOrderStatus(ctx, args[0], resource.OrderStatus(args[1]))
				if err != nil {
					return err
				}
				return messageResult(e, msg, "Order updated")
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <order-id>",
		Short: "Remove an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				msg, err := e.app.API.DeleteOrder(ctx, args[0])
				if err != nil {
					return err
				}
				return messageResult(e, msg, "Order deleted")
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, statusCmd, deleteCmd)
	return cmd
}

type userOptions struct {
	Username string
	Password string
	Role     string
}

func (o *userOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&o.Password, "password", "p", "", "password")
	cmd.Flags().StringVar(&o.Role, "role", string(resource.RoleUser), "role (admin|user)")
}

func (o *userOptions) input() resource.UserInput {
	return resource.UserInput{Username: o.Username, Password: o.Password, Role: resource.Role(o.Role)}
}

func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admin)",
	}

	list := &pageOptions{}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				page, err := e.app.API.ListUsers(ctx, list.Page, list.Limit)
				if err != nil {
					return err
				}
				return e.out.Success(page, func(w io.Writer) {
					fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE")
					for _, u := range page.Rows {
						fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.Role)
					}
					pageFooter(w, page.Page, page.TotalPages(), page.Count)
				})
			})
		},
	}
	list.bind(listCmd)

	create := &userOptions{}
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Add a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				u, err := e.app.API.CreateUser(ctx, create.input())
				if err != nil {
					return err
				}
				return e.out.Success(u, func(w io.Writer) {
					fmt.Fprintf(w, "Created %s\t%s\t%s\n", u.ID, u.Username, u.Role)
				})
			})
		},
	}
	create.bind(createCmd)

	update := &userOptions{}
	updateCmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Edit a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				msg, err := e.app.API.UpdateUser(ctx, args[0], update.input())
				if err != nil {
					return err
				}
				return messageResult(e, msg, "User updated")
			})
		},
	}
	update.bind(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Remove a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, e *env) error {
				msg, err := e.app.API.DeleteUser(ctx, args[0])
				if err != nil {
					return err
				}
				return messageResult(e, msg, "User deleted")
			})
		},
	}

	cmd.AddCommand(listCmd, createCmd, updateCmd, deleteCmd)
	return cmd
}

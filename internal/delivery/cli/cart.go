package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Dmitrij-bot/vinabook/internal/resource"
	"github.com/Dmitrij-bot/vinabook/internal/store"
)

type cartView struct {
	Items      []resource.CartItem `json:"items"`
	Quantity   int                 `json:"quantity"`
	Total      resource.Price      `json:"total"`
	Shipping   resource.Price      `json:"shipping"`
	GrandTotal resource.Price      `json:"grandTotal"`
}

func newCartView(snap store.CartSnapshot) cartView {
	v := cartView{
		Items:    snap.Items,
		Quantity: snap.Quantity,
		Total:    snap.Total(),
	}
	if len(snap.Items) > 0 {
		v.Shipping = store.ShippingFee
	}
	v.GrandTotal = v.Total + v.Shipping
	return v
}

func (v cartView) render(w io.Writer) {
	if len(v.Items) == 0 {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}

	fmt.Fprintln(w, "ID\tBOOK\tQTY\tPRICE\tSUBTOTAL")
	for _, item := range v.Items {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			item.ID, item.Book.Name, item.Quantity, formatVND(item.Book.Price), formatVND(item.Subtotal()))
	}
	fmt.Fprintf(w, "\t\t\tTotal\t%s\n", formatVND(v.Total))
	fmt.Fprintf(w, "\t\t\tShipping\t%s\n", formatVND(v.Shipping))
	fmt.Fprintf(w, "\t\t\tGrand total\t%s\n", formatVND(v.GrandTotal))
}

func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change your cart",
	}

	cmd.AddCommand(newCartListCommand(rootOpts))
	cmd.AddCommand(newCartAddCommand(rootOpts))
	cmd.AddCommand(newCartUpdateCommand(rootOpts))
	cmd.AddCommand(newCartRemoveCommand(rootOpts))
	cmd.AddCommand(newCartPayCommand(rootOpts))

	return cmd
}

// withCart hydrates the cart store before fn, as every cart screen does.
// Unless strict, a failed hydration only leaves the cart empty and fn runs.
func withCart(cmd *cobra.Command, opts *RootOptions, strict bool, fn func(ctx context.Context, e *env, cart *store.CartStore) error) error {
	return withApp(cmd, opts, func(ctx context.Context, e *env) error {
		if err := e.app.Cart.Fetch(ctx); err != nil {
			if strict {
				return err
			}
			e.log.WithError(err).Warn("failed to load cart, continuing with an empty cart")
		}
		return fn(ctx, e, e.app.Cart)
	})
}

func showCart(e *env, cart *store.CartStore) error {
	v := newCartView(cart.Snapshot())
	return e.out.Success(v, v.render)
}

func newCartListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the cart",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, rootOpts, true, func(ctx context.Context, e *env, cart *store.CartStore) error {
				return showCart(e, cart)
			})
		},
	}
}

func newCartAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <book-id>",
		Short: "Add one copy of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, rootOpts, false, func(ctx context.Context, e *env, cart *store.CartStore) error {
				if err := cart.Add(ctx, args[0]); err != nil {
					return err
				}
				return showCart(e, cart)
			})
		},
	}
}

func newCartUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update <cart-id> <quantity>",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return newFormatter(cmd, rootOpts).Report(
					WrapExitError(ExitCommandError, fmt.Sprintf("invalid quantity %q", args[1]), err))
			}

			return withCart(cmd, rootOpts, false, func(ctx context.Context, e *env, cart *store.CartStore) error {
				if err := cart.Update(ctx, args[0], quantity); err != nil {
					return err
				}
				return showCart(e, cart)
			})
		},
	}
}

func newCartRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <cart-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a line from the cart",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, rootOpts, false, func(ctx context.Context, e *env, cart *store.CartStore) error {
				if err := cart.Delete(ctx, args[0]); err != nil {
					return err
				}
				return showCart(e, cart)
			})
		},
	}
}

type payOptions struct {
	*RootOptions
	Items   []string
	Name    string
	Phone   string
	Address string
	Note    string
}

type payView struct {
	Message    string         `json:"message"`
	Status     string         `json:"status,omitempty"`
	Items      []string       `json:"items"`
	GrandTotal resource.Price `json:"grandTotal"`
}

func newCartPayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &payOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pay",
		Short: "Place an order for the cart, cash on delivery",
		Long: `Place an order for the whole cart, or for the lines given with --item.

Example:
  vinabook cart pay --name "Nguyễn Văn A" --phone 0973285886 --address "27 Chùa Bộc, Hà Nội"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCart(cmd, opts.RootOptions, false, func(ctx context.Context, e *env, cart *store.CartStore) error {
				before := cart.Snapshot()
				items := opts.Items
				if len(items) == 0 {
					items = before.IDs()
				}

				total := before.Due(items)

				resp, err := cart.Pay(ctx, resource.PayRequest{
					CartItemIDs: items,
					NameClient:  opts.Name,
					PhoneNumber: opts.Phone,
					Address:     opts.Address,
					Note:        opts.Note,
				})
				if err != nil {
					return err
				}

				v := payView{Message: resp.Message, Status: resp.Status, Items: items, GrandTotal: total}
				return e.out.Success(v, func(w io.Writer) {
					fmt.Fprintln(w, resp.Message)
					fmt.Fprintf(w, "Lines:\t%d\n", len(items))
					fmt.Fprintf(w, "Amount due on delivery:\t%s\n", formatVND(total))
				})
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Items, "item", nil, "cart line ids to pay (default: whole cart)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "recipient name")
	cmd.Flags().StringVar(&opts.Phone, "phone", "", "recipient phone number")
	cmd.Flags().StringVar(&opts.Address, "address", "", "delivery address")
	cmd.Flags().StringVar(&opts.Note, "note", "", "note for the courier")

	return cmd
}

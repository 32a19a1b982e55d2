package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/api"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/auth"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/bus"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/cart"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/chat"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/config"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/localstore"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/lock"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/logging"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/profile"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/upload"
)

// app bundles the per-profile components a one-shot command needs.
type app struct {
	cfg    *config.Config
	db     *localstore.DB
	lk     *lock.Lock
	mgr    *auth.Manager
	client *api.Client
	cart   *cart.Store
	chat   *chat.Synchronizer
}

func (a *app) close() {
	a.chat.LeaveRoom()
	_ = a.db.Close()
	_ = a.lk.Release()
}

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	a, err := newApp(profileName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "login":
		cmdLogin(ctx, a, args[1:])
	case "register":
		cmdRegister(ctx, a, args[1:])
	case "logout":
		a.mgr.Logout(ctx, a.client)
		fmt.Println("Logged out.")
	case "whoami":
		cmdWhoami(a, *jsonFlag)
	case "profile":
		cmdProfile(ctx, a, *jsonFlag)
	case "become-seller":
		cmdBecomeSeller(ctx, a, args[1:])
	case "cart":
		cmdCart(ctx, a, args[1:], *jsonFlag)
	case "chat":
		cmdChat(ctx, a, args[1:], *jsonFlag)
	case "products":
		cmdProducts(ctx, a, args[1:], *jsonFlag)
	case "orders":
		cmdOrders(ctx, a, args[1:], *jsonFlag)
	case "reviews":
		cmdReviews(ctx, a, args[1:], *jsonFlag)
	case "notifications":
		cmdNotifications(ctx, a, args[1:], *jsonFlag)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func newApp(profileName string) (*app, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		cfg = &config.Config{}
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = config.DefaultAPIBaseURL
	}

	if err := profile.EnsureDir(profileName); err != nil {
		return nil, err
	}
	lk, err := lock.Acquire(profile.Dir(profileName))
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFile(profile.LogPath(profileName), profileName)
	if err != nil {
		_ = lk.Release()
		return nil, err
	}

	db, err := localstore.Open(profile.DBPath(profileName))
	if err != nil {
		_ = lk.Release()
		return nil, err
	}
	if _, err := db.Migrate(); err != nil {
		_ = db.Close()
		_ = lk.Release()
		return nil, err
	}

	b := bus.New()
	mgr := auth.NewManager(db, b, logger)
	client := api.NewClient(cfg.APIBaseURL, mgr, logger)
	return &app{
		cfg:    cfg,
		db:     db,
		lk:     lk,
		mgr:    mgr,
		client: client,
		cart:   cart.NewStore(db, client, mgr, b, logger),
		chat:   chat.NewSynchronizer(client, db, b, logger, cfg.PollInterval()),
	}, nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: shopctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  login <username>             Log in (password read from stdin)")
	fmt.Fprintln(os.Stderr, "  register <username> <email>  Create an account (password read from stdin)")
	fmt.Fprintln(os.Stderr, "  logout                       Log out and clear cached tokens")
	fmt.Fprintln(os.Stderr, "  whoami                       Show the cached account")
	fmt.Fprintln(os.Stderr, "  profile                      Fetch the account profile from the server")
	fmt.Fprintln(os.Stderr, "  become-seller <shop-name>    Upgrade the account to a seller")
	fmt.Fprintln(os.Stderr, "  cart list                    Show the cart")
	fmt.Fprintln(os.Stderr, "  cart add <product-id> [qty]  Add a product")
	fmt.Fprintln(os.Stderr, "  cart update <product-id> <qty>")
	fmt.Fprintln(os.Stderr, "  cart remove <product-id>")
	fmt.Fprintln(os.Stderr, "  cart clear")
	fmt.Fprintln(os.Stderr, "  cart sync                    Reconcile with the server cart")
	fmt.Fprintln(os.Stderr, "  chat rooms                   List conversations")
	fmt.Fprintln(os.Stderr, "  chat open <room-id>          Show a conversation and mark it read")
	fmt.Fprintln(os.Stderr, "  chat send <room-id> <text>   Send a message")
	fmt.Fprintln(os.Stderr, "  chat start <user-id> [product-id]")
	fmt.Fprintln(os.Stderr, "  chat image <room-id> <file> [caption]")
	fmt.Fprintln(os.Stderr, "  chat unread                  Show total unread count")
	fmt.Fprintln(os.Stderr, "  products search [query]     Search the catalog")
	fmt.Fprintln(os.Stderr, "  products show <id>          Show one product")
	fmt.Fprintln(os.Stderr, "  products categories          List categories")
	fmt.Fprintln(os.Stderr, "  products mine                List my products (seller)")
	fmt.Fprintln(os.Stderr, "  products create              Create a product from JSON on stdin (seller)")
	fmt.Fprintln(os.Stderr, "  products update <id>         Update a product from JSON on stdin (seller)")
	fmt.Fprintln(os.Stderr, "  products delete <id>")
	fmt.Fprintln(os.Stderr, "  orders list                  List my orders")
	fmt.Fprintln(os.Stderr, "  orders show <id>            Show one order")
	fmt.Fprintln(os.Stderr, "  orders create <address>      Place an order from the server cart")
	fmt.Fprintln(os.Stderr, "  orders pay <id>              Settle an order via the sandbox payment")
	fmt.Fprintln(os.Stderr, "  orders status <id> <status>  Move an order through its lifecycle (seller)")
	fmt.Fprintln(os.Stderr, "  reviews list <product-id>")
	fmt.Fprintln(os.Stderr, "  reviews add <product-id> <rating> <comment>")
	fmt.Fprintln(os.Stderr, "  reviews delete <id>")
	fmt.Fprintln(os.Stderr, "  notifications list")
	fmt.Fprintln(os.Stderr, "  notifications read <id>")
	fmt.Fprintln(os.Stderr, "  notifications read-all")
	fmt.Fprintln(os.Stderr, "  notifications unread")
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		fatal(fmt.Errorf("invalid id %q", s))
	}
	return id
}

func readPassword() string {
	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		fatal(err)
	}
	return strings.TrimRight(password, "\r\n")
}

func reconcileCart(ctx context.Context, a *app) {
	if err := a.cart.SyncWithServer(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cart reconciliation failed: %v\n", err)
	} else {
		fmt.Printf("Cart reconciled: %d items.\n", a.cart.TotalItems())
	}
}

func cmdLogin(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: shopctl login <username>")
		os.Exit(1)
	}
	user, err := a.mgr.Login(ctx, a.client, api.Credentials{
		Username: args[0],
		Password: readPassword(),
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Logged in as %s.\n", user.Username)
	reconcileCart(ctx, a)
}

func cmdRegister(ctx context.Context, a *app, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: shopctl register <username> <email>")
		os.Exit(1)
	}
	password := readPassword()
	user, err := a.mgr.Register(ctx, a.client, api.RegisterRequest{
		Username:  args[0],
		Email:     args[1],
		Password:  password,
		Password2: password,
	})
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Registered and logged in as %s.\n", user.Username)
	reconcileCart(ctx, a)
}

func cmdProfile(ctx context.Context, a *app, jsonOut bool) {
	user, err := a.client.Profile(ctx)
	if err != nil {
		fatal(err)
	}
	a.mgr.UpdateUser(user)
	if jsonOut {
		outputJSON(user)
		return
	}
	fmt.Printf("User:   %s (id %d)\n", user.Username, user.ID)
	fmt.Printf("Email:  %s\n", user.Email)
	fmt.Printf("Seller: %v\n", user.IsSeller)
	if user.ShopName != "" {
		fmt.Printf("Shop:   %s\n", user.ShopName)
	}
}

func cmdBecomeSeller(ctx context.Context, a *app, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: shopctl become-seller <shop-name>")
		os.Exit(1)
	}
	user, err := a.client.BecomeSeller(ctx, strings.Join(args, " "))
	if err != nil {
		fatal(err)
	}
	a.mgr.UpdateUser(user)
	fmt.Printf("Account %s is now a seller: %s\n", user.Username, user.ShopName)
}

func cmdWhoami(a *app, jsonOut bool) {
	user := a.mgr.User()
	if user == nil {
		fmt.Println("Not logged in.")
		return
	}
	if jsonOut {
		outputJSON(user)
		return
	}
	fmt.Printf("User:   %s (id %d)\n", user.Username, user.ID)
	fmt.Printf("Email:  %s\n", user.Email)
	fmt.Printf("Seller: %v\n", user.IsSeller)
}

func cmdCart(ctx context.Context, a *app, args []string, jsonOut bool) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		if jsonOut {
			outputJSON(a.cart.Items())
			return
		}
		items := a.cart.Items()
		if len(items) == 0 {
			fmt.Println("Cart is empty.")
			return
		}
		for _, line := range items {
			fmt.Printf("%-6d x%-3d %-40s %s\n",
				line.Product.ID, line.Quantity, line.Product.Name, line.Product.Price.StringFixed(2))
		}
		fmt.Printf("Total: %s (%d items)\n", a.cart.TotalPrice().StringFixed(2), a.cart.TotalItems())
	case "add":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl cart add <product-id> [qty]"))
		}
		qty := 1
		if len(args) >= 3 {
			n, err := strconv.Atoi(args[2])
			if err != nil || n < 1 {
				fatal(fmt.Errorf("invalid quantity %q", args[2]))
			}
			qty = n
		}
		product, err := a.client.ProductByID(ctx, parseID(args[1]))
		if err != nil {
			fatal(err)
		}
		if err := a.cart.AddItem(ctx, product.Product, qty); err != nil {
			fmt.Fprintf(os.Stderr, "warning: kept locally, server rejected: %v\n", err)
		}
		fmt.Printf("Added %s x%d.\n", product.Name, qty)
	case "update":
		if len(args) < 3 {
			fatal(fmt.Errorf("usage: shopctl cart update <product-id> <qty>"))
		}
		qty, err := strconv.Atoi(args[2])
		if err != nil {
			fatal(fmt.Errorf("invalid quantity %q", args[2]))
		}
		if err := a.cart.UpdateQuantity(ctx, parseID(args[1]), qty); err != nil {
			fmt.Fprintf(os.Stderr, "warning: kept locally, server rejected: %v\n", err)
		}
		fmt.Println("Updated.")
	case "remove":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl cart remove <product-id>"))
		}
		if err := a.cart.RemoveItem(ctx, parseID(args[1])); err != nil {
			fmt.Fprintf(os.Stderr, "warning: removed locally, server rejected: %v\n", err)
		}
		fmt.Println("Removed.")
	case "clear":
		if err := a.cart.Clear(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cleared locally, server rejected: %v\n", err)
		}
		fmt.Println("Cart cleared.")
	case "sync":
		if err := a.cart.SyncWithServer(ctx); err != nil {
			fatal(err)
		}
		fmt.Printf("Cart reconciled: %d items.\n", a.cart.TotalItems())
	default:
		fatal(fmt.Errorf("unknown cart subcommand: %s", args[0]))
	}
}

func cmdChat(ctx context.Context, a *app, args []string, jsonOut bool) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: shopctl chat <rooms|open|send|start|unread>")
		os.Exit(1)
	}
	switch args[0] {
	case "rooms":
		if err := a.chat.FetchRooms(ctx); err != nil {
			// Server unreachable: fall back to the last-known cached list.
			cached, cacheErr := a.db.ListRooms(100)
			if cacheErr != nil || len(cached) == 0 {
				fatal(err)
			}
			fmt.Fprintf(os.Stderr, "warning: server unreachable, showing cached conversations: %v\n", err)
			if jsonOut {
				outputJSON(cached)
				return
			}
			for _, r := range cached {
				fmt.Printf("%-6d %-20s unread:%-3d %s\n", r.ID, r.CounterpartName, r.UnreadCount, r.LastMessagePreview)
			}
			return
		}
		rooms := a.chat.Rooms()
		if jsonOut {
			outputJSON(rooms)
			return
		}
		if len(rooms) == 0 {
			fmt.Println("No conversations.")
			return
		}
		for _, r := range rooms {
			name := "?"
			if r.OtherParticipant != nil {
				name = r.OtherParticipant.Username
			}
			preview := ""
			if r.LastMessage != nil {
				preview = r.LastMessage.Content
			}
			fmt.Printf("%-6d %-20s unread:%-3d %s\n", r.ID, name, r.UnreadCount, preview)
		}
	case "open":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl chat open <room-id>"))
		}
		roomID := parseID(args[1])
		if err := a.chat.JoinRoom(ctx, roomID); err != nil {
			cached, cacheErr := a.db.ListMessages(roomID, 200)
			if cacheErr != nil || len(cached) == 0 {
				fatal(err)
			}
			fmt.Fprintf(os.Stderr, "warning: server unreachable, showing cached messages: %v\n", err)
			if jsonOut {
				outputJSON(cached)
				return
			}
			if room, roomErr := a.db.GetRoom(roomID); roomErr == nil && room != nil {
				fmt.Printf("Conversation %d with %s\n", room.ID, room.CounterpartName)
			}
			for _, m := range cached {
				who := m.SenderName
				if m.IsMine {
					who = "me"
				}
				fmt.Printf("%-12s %s\n", who+":", m.Content)
			}
			return
		}
		msgs := a.chat.Messages()
		if jsonOut {
			outputJSON(msgs)
			return
		}
		for _, m := range msgs {
			printMessage(&m)
		}
	case "send":
		if len(args) < 3 {
			fatal(fmt.Errorf("usage: shopctl chat send <room-id> <text>"))
		}
		if err := a.chat.JoinRoom(ctx, parseID(args[1])); err != nil {
			fatal(err)
		}
		msg, err := a.chat.SendMessage(ctx, strings.Join(args[2:], " "))
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Sent message %d.\n", msg.ID)
	case "start":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl chat start <user-id> [product-id]"))
		}
		var productID int64
		if len(args) >= 3 {
			productID = parseID(args[2])
		}
		room, err := a.chat.StartChat(ctx, parseID(args[1]), productID, "")
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Conversation %d ready.\n", room.ID)
	case "image":
		if len(args) < 3 {
			fatal(fmt.Errorf("usage: shopctl chat image <room-id> <file> [caption]"))
		}
		if a.cfg.StorageBucket == "" {
			fatal(fmt.Errorf("storage_bucket not configured"))
		}
		uploader, err := upload.NewUploader(ctx, a.cfg.StorageBucket, a.cfg.StorageCredentials, nil)
		if err != nil {
			fatal(err)
		}
		defer func() { _ = uploader.Close() }()
		imageURL, err := uploader.UploadFile(ctx, args[2], "chat")
		if err != nil {
			fatal(err)
		}
		if err := a.chat.JoinRoom(ctx, parseID(args[1])); err != nil {
			fatal(err)
		}
		caption := ""
		if len(args) >= 4 {
			caption = strings.Join(args[3:], " ")
		}
		msg, err := a.chat.SendImage(ctx, imageURL, caption)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Sent image message %d.\n", msg.ID)
	case "unread":
		if err := a.chat.FetchUnreadCount(ctx); err != nil {
			fatal(err)
		}
		fmt.Printf("Unread messages: %d\n", a.chat.Unread())
	default:
		fatal(fmt.Errorf("unknown chat subcommand: %s", args[0]))
	}
}

func printMessage(m *api.Message) {
	who := m.SenderName
	if m.IsMine {
		who = "me"
	}
	body := m.Content
	if m.MessageType == "image" && m.ImageURL != "" {
		body = fmt.Sprintf("[image] %s %s", m.ImageURL, m.Content)
	}
	fmt.Printf("%-12s %s\n", who+":", body)
}

func cmdProducts(ctx context.Context, a *app, args []string, jsonOut bool) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: shopctl products <search|show>")
		os.Exit(1)
	}
	switch args[0] {
	case "search":
		query := api.ProductQuery{}
		if len(args) >= 2 {
			query.Search = strings.Join(args[1:], " ")
		}
		products, err := a.client.Products(ctx, query)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(products)
			return
		}
		if len(products) == 0 {
			fmt.Println("No products found.")
			return
		}
		for _, p := range products {
			fmt.Printf("%-6d %-40s %s\n", p.ID, p.Name, p.Price.StringFixed(2))
		}
	case "show":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl products show <id>"))
		}
		p, err := a.client.ProductByID(ctx, parseID(args[1]))
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(p)
			return
		}
		fmt.Printf("Product: %s (id %d)\n", p.Name, p.ID)
		fmt.Printf("Price:   %s\n", p.Price.StringFixed(2))
		fmt.Printf("Stock:   %d\n", p.Stock)
		if p.Seller != nil {
			fmt.Printf("Seller:  %s (id %d)\n", p.Seller.Username, p.Seller.ID)
		}
		if p.Description != "" {
			fmt.Printf("\n%s\n", p.Description)
		}
	case "categories":
		categories, err := a.client.Categories(ctx)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(categories)
			return
		}
		for _, c := range categories {
			fmt.Printf("%-6d %-24s %d products\n", c.ID, c.Name, c.ProductCount)
		}
	case "mine":
		products, err := a.client.MyProducts(ctx)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(products)
			return
		}
		if len(products) == 0 {
			fmt.Println("No products listed.")
			return
		}
		for _, p := range products {
			fmt.Printf("%-6d %-40s %s stock:%d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Stock)
		}
	case "create":
		in := readProductInput()
		p, err := a.client.CreateProduct(ctx, in)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Created product %d: %s\n", p.ID, p.Name)
	case "update":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl products update <id> < product.json"))
		}
		in := readProductInput()
		p, err := a.client.UpdateProduct(ctx, parseID(args[1]), in)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Updated product %d: %s\n", p.ID, p.Name)
	case "delete":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl products delete <id>"))
		}
		if err := a.client.DeleteProduct(ctx, parseID(args[1])); err != nil {
			fatal(err)
		}
		fmt.Println("Product deleted.")
	default:
		fatal(fmt.Errorf("unknown products subcommand: %s", args[0]))
	}
}

// readProductInput decodes an api.ProductInput from stdin, so product fields
// come in as JSON rather than a dozen positional arguments.
func readProductInput() api.ProductInput {
	var in api.ProductInput
	if err := json.NewDecoder(os.Stdin).Decode(&in); err != nil {
		fatal(fmt.Errorf("decode product JSON from stdin: %w", err))
	}
	return in
}

func cmdOrders(ctx context.Context, a *app, args []string, jsonOut bool) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		orders, err := a.client.Orders(ctx)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(orders)
			return
		}
		if len(orders) == 0 {
			fmt.Println("No orders.")
			return
		}
		for _, o := range orders {
			fmt.Printf("%-6d %-12s %s\n", o.ID, o.Status, o.TotalPrice.StringFixed(2))
		}
	case "show":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl orders show <id>"))
		}
		o, err := a.client.OrderByID(ctx, parseID(args[1]))
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(o)
			return
		}
		fmt.Printf("Order:  %d\n", o.ID)
		fmt.Printf("Status: %s\n", o.Status)
		fmt.Printf("Total:  %s\n", o.TotalPrice.StringFixed(2))
		for _, item := range o.Items {
			fmt.Printf("  %-6d x%-3d %s\n", item.ProductID, item.Quantity, item.ProductName)
		}
	case "create":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl orders create <address>"))
		}
		o, err := a.client.CreateOrder(ctx, api.OrderInput{
			ShippingAddress: strings.Join(args[1:], " "),
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Order %d placed: %s (%s)\n", o.ID, o.Status, o.TotalPrice.StringFixed(2))
		// The server empties its cart on order placement; adopt that.
		if err := a.cart.SyncWithServer(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cart reconciliation failed: %v\n", err)
		}
	case "pay":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl orders pay <id>"))
		}
		if err := a.client.MockPayment(ctx, parseID(args[1]), true); err != nil {
			fatal(err)
		}
		fmt.Println("Payment settled.")
	case "status":
		if len(args) < 3 {
			fatal(fmt.Errorf("usage: shopctl orders status <id> <status>"))
		}
		if err := a.client.UpdateOrderStatus(ctx, parseID(args[1]), args[2]); err != nil {
			fatal(err)
		}
		fmt.Printf("Order %s is now %s.\n", args[1], args[2])
	default:
		fatal(fmt.Errorf("unknown orders subcommand: %s", args[0]))
	}
}

func cmdReviews(ctx context.Context, a *app, args []string, jsonOut bool) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: shopctl reviews <list|add|delete>")
		os.Exit(1)
	}
	switch args[0] {
	case "list":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl reviews list <product-id>"))
		}
		reviews, err := a.client.ReviewsByProduct(ctx, parseID(args[1]))
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(reviews)
			return
		}
		if len(reviews) == 0 {
			fmt.Println("No reviews.")
			return
		}
		for _, r := range reviews {
			fmt.Printf("%-6d %d/5 %-16s %s\n", r.ID, r.Rating, r.Reviewer, r.Comment)
		}
	case "add":
		if len(args) < 4 {
			fatal(fmt.Errorf("usage: shopctl reviews add <product-id> <rating> <comment>"))
		}
		rating, err := strconv.Atoi(args[2])
		if err != nil || rating < 1 || rating > 5 {
			fatal(fmt.Errorf("rating must be 1-5, got %q", args[2]))
		}
		r, err := a.client.CreateReview(ctx, parseID(args[1]), rating, strings.Join(args[3:], " "))
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Review %d posted.\n", r.ID)
	case "delete":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl reviews delete <id>"))
		}
		if err := a.client.DeleteReview(ctx, parseID(args[1])); err != nil {
			fatal(err)
		}
		fmt.Println("Review deleted.")
	default:
		fatal(fmt.Errorf("unknown reviews subcommand: %s", args[0]))
	}
}

func cmdNotifications(ctx context.Context, a *app, args []string, jsonOut bool) {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		notifs, err := a.client.Notifications(ctx)
		if err != nil {
			fatal(err)
		}
		if jsonOut {
			outputJSON(notifs)
			return
		}
		if len(notifs) == 0 {
			fmt.Println("No notifications.")
			return
		}
		for _, n := range notifs {
			mark := " "
			if !n.IsRead {
				mark = "*"
			}
			fmt.Printf("%s %-6d %s\n", mark, n.ID, n.Message)
		}
	case "read":
		if len(args) < 2 {
			fatal(fmt.Errorf("usage: shopctl notifications read <id>"))
		}
		if err := a.client.MarkNotificationRead(ctx, parseID(args[1])); err != nil {
			fatal(err)
		}
		fmt.Println("Notification marked read.")
	case "read-all":
		if err := a.client.MarkAllNotificationsRead(ctx); err != nil {
			fatal(err)
		}
		fmt.Println("All notifications marked read.")
	case "unread":
		n, err := a.client.NotificationsUnreadCount(ctx)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("Unread notifications: %d\n", n)
	default:
		fatal(fmt.Errorf("unknown notifications subcommand: %s", args[0]))
	}
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}

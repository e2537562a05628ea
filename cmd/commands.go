package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"pennybid/domain/entities"
	"pennybid/domain/utils"
	"pennybid/infrastructure/identity"
)

const recentBidsShown = 5

// Command is one operation reachable from the shell and the command line
type Command struct {
	Handler     CommandHandler
	Description string
	Usage       string
	Category    string // "account", "auction", "admin", "utility"
}

// CommandHandler handles a command
type CommandHandler func(ctx context.Context, s *Session, args []string) error

// Session carries the signed-in token between commands
type Session struct {
	App   *App
	Token string
	Out   io.Writer

	commands map[string]Command
}

// NewSession creates a session writing to out
func NewSession(app *App, out io.Writer) *Session {
	s := &Session{App: app, Out: out}
	s.initializeCommands()
	return s
}

func (s *Session) initializeCommands() {
	s.commands = map[string]Command{
		"help": {
			Handler:     handleHelp,
			Description: "Show available commands",
			Usage:       "help [command]",
			Category:    "utility",
		},
		"register": {
			Handler:     handleRegister,
			Description: "Create an account with an empty wallet",
			Usage:       "register <email> <password> <name>",
			Category:    "account",
		},
		"login": {
			Handler:     handleLogin,
			Description: "Sign in and keep the token for this session",
			Usage:       "login <email> <password>",
			Category:    "account",
		},
		"me": {
			Handler:     handleMe,
			Description: "Show the signed-in user",
			Usage:       "me",
			Category:    "account",
		},
		"topup": {
			Handler:     handleTopUp,
			Description: "Credit a confirmed deposit to your wallet",
			Usage:       "topup <amount>",
			Category:    "account",
		},
		"wallet": {
			Handler:     handleWallet,
			Description: "Show balance and loyalty tier",
			Usage:       "wallet",
			Category:    "account",
		},
		"history": {
			Handler:     handleHistory,
			Description: "Show recent wallet transactions",
			Usage:       "history [limit]",
			Category:    "account",
		},
		"tiers": {
			Handler:     handleTiers,
			Description: "List loyalty tiers",
			Usage:       "tiers",
			Category:    "utility",
		},
		"create-auction": {
			Handler:     handleCreateAuction,
			Description: "Publish a new auction",
			Usage:       "create-auction <title> <category> <retail_price> <start_price> <lock_threshold> [bid_cost] [increment] [reset_seconds]",
			Category:    "admin",
		},
		"list": {
			Handler:     handleList,
			Description: "List open auctions",
			Usage:       "list [category]",
			Category:    "auction",
		},
		"show": {
			Handler:     handleShow,
			Description: "Show one auction",
			Usage:       "show <auction_id>",
			Category:    "auction",
		},
		"bid": {
			Handler:     handleBid,
			Description: "Place a paid bid",
			Usage:       "bid <auction_id>",
			Category:    "auction",
		},
		"process-refunds": {
			Handler:     handleProcessRefunds,
			Description: "Deliver pending refunds now",
			Usage:       "process-refunds [limit]",
			Category:    "admin",
		},
	}
}

// Lookup returns the named command
func (s *Session) Lookup(name string) (Command, bool) {
	cmd, ok := s.commands[name]
	return cmd, ok
}

// Execute runs one command line
func (s *Session) Execute(ctx context.Context, name string, args []string) error {
	cmd, ok := s.commands[name]
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	return cmd.Handler(ctx, s, args)
}

// authContext attaches the session token for the identity provider
func (s *Session) authContext(ctx context.Context) context.Context {
	return identity.WithToken(ctx, s.Token)
}

func (s *Session) currentUserID(ctx context.Context) (int64, error) {
	userID, err := s.App.Identity.CurrentUserID(s.authContext(ctx))
	if err != nil {
		if errors.Is(err, entities.ErrUnauthenticated) {
			return 0, fmt.Errorf("%w: run login first", err)
		}
		return 0, err
	}
	return userID, nil
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.Out, format, args...)
}

func handleHelp(ctx context.Context, s *Session, args []string) error {
	if len(args) > 0 {
		cmd, ok := s.commands[args[0]]
		if !ok {
			return fmt.Errorf("unknown command: %s", args[0])
		}
		s.printf("%s\n  %s\n  Usage: %s\n  Category: %s\n", args[0], cmd.Description, cmd.Usage, cmd.Category)
		return nil
	}

	byCategory := make(map[string][]string)
	for name, cmd := range s.commands {
		byCategory[cmd.Category] = append(byCategory[cmd.Category], name)
	}

	for _, category := range []string{"account", "auction", "admin", "utility"} {
		names := byCategory[category]
		sort.Strings(names)
		s.printf("\n%s:\n", strings.ToUpper(category))
		for _, name := range names {
			s.printf("  %-16s %s\n", name, s.commands[name].Description)
		}
	}
	s.printf("\nType 'help <command>' for usage\n")
	return nil
}

func handleRegister(ctx context.Context, s *Session, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: register <email> <password> <name>")
	}

	user, err := s.App.Auth.Register(ctx, args[0], args[1], strings.Join(args[2:], " "))
	if err != nil {
		return err
	}
	s.printf("Registered user #%d (%s)\n", user.ID, user.Email)
	return nil
}

func handleLogin(ctx context.Context, s *Session, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: login <email> <password>")
	}

	token, err := s.App.Auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	s.Token = token
	s.printf("Signed in\n%s\n", token)
	return nil
}

func handleMe(ctx context.Context, s *Session, args []string) error {
	user, err := s.App.Auth.Me(s.authContext(ctx))
	if err != nil {
		return err
	}
	s.printf("#%d %s <%s>\n", user.ID, user.Name, user.Email)
	return nil
}

func handleTopUp(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: topup <amount>")
	}
	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}

	wallet, err := s.App.Wallets.TopUp(ctx, userID, amount)
	if err != nil {
		return err
	}
	s.printf("Balance: %s\n", utils.FormatMoney(wallet.Balance))
	return nil
}

func handleWallet(ctx context.Context, s *Session, args []string) error {
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}

	summary, err := s.App.Wallets.Summary(ctx, userID)
	if err != nil {
		return err
	}

	w := summary.Wallet
	s.printf("Balance:          %s\n", utils.FormatMoney(w.Balance))
	s.printf("Lifetime deposit: %s\n", utils.FormatMoney(w.LifetimeDeposit))
	s.printf("Tier:             %s\n", summary.Tier.Current.Name)
	if summary.Tier.IsTopTier() {
		s.printf("Top tier reached\n")
		return nil
	}
	s.printf("Next tier:        %s in %s (%s)\n",
		summary.Tier.Next.Name,
		utils.FormatMoney(summary.Tier.Remaining),
		utils.FormatPercent(summary.Tier.Progress))
	return nil
}

func handleHistory(ctx context.Context, s *Session, args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit: %s", args[0])
		}
		limit = n
	}
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}

	entries, err := s.App.Wallets.History(ctx, userID, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		s.printf("No transactions\n")
		return nil
	}
	for _, h := range entries {
		s.printf("%s  %-24s %12s  -> %s\n",
			h.CreatedAt.Format("2006-01-02 15:04:05"),
			h.GetTransactionDescription(),
			utils.FormatSignedMoney(h.ChangeAmount),
			utils.FormatMoney(h.BalanceAfter))
	}
	return nil
}

func handleTiers(ctx context.Context, s *Session, args []string) error {
	for _, tier := range entities.LoyaltyTiers() {
		s.printf("%-8s from %-10s %s\n", tier.Name, utils.FormatShortNotation(tier.Threshold), strings.Join(tier.Benefits, ", "))
	}
	return nil
}

func handleCreateAuction(ctx context.Context, s *Session, args []string) error {
	if len(args) < 5 || len(args) > 8 {
		return fmt.Errorf("usage: create-auction <title> <category> <retail_price> <start_price> <lock_threshold> [bid_cost] [increment] [reset_seconds]")
	}

	cfg := s.App.Config
	params := entities.AuctionParams{
		Title:        args[0],
		Category:     args[1],
		BidCost:      cfg.DefaultBidCost,
		BidIncrement: cfg.DefaultBidIncrement,
		ResetSeconds: cfg.DefaultResetSeconds,
	}

	amounts := []*int64{&params.RetailPrice, &params.StartPrice, &params.MinPriceThreshold, &params.BidCost, &params.BidIncrement}
	for i, raw := range args[2:min(len(args), 7)] {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %s", raw)
		}
		*amounts[i] = v
	}
	if len(args) == 8 {
		v, err := strconv.Atoi(args[7])
		if err != nil {
			return fmt.Errorf("invalid reset seconds: %s", args[7])
		}
		params.ResetSeconds = v
	}

	auction, err := s.App.Engine.CreateAuction(ctx, params)
	if err != nil {
		return err
	}
	s.printf("Created auction #%d\n", auction.ID)
	printAuction(s, auction)
	return nil
}

func handleList(ctx context.Context, s *Session, args []string) error {
	category := ""
	if len(args) > 0 {
		category = args[0]
	}

	auctions, err := s.App.Engine.ListOpen(ctx, category)
	if err != nil {
		return err
	}
	if len(auctions) == 0 {
		s.printf("No open auctions\n")
		return nil
	}
	for _, a := range auctions {
		s.printf("#%-4d %-24s %-10s %12s  %3ds  %s\n",
			a.ID, truncate(a.Title, 24), a.Category, utils.FormatMoney(a.CurrentPrice), a.CountdownSeconds, a.Status)
	}
	return nil
}

func handleShow(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <auction_id>")
	}
	auctionID, err := parseID(args[0])
	if err != nil {
		return err
	}

	auction, err := s.App.Engine.Get(ctx, auctionID)
	if err != nil {
		return err
	}
	printAuction(s, auction)

	participants := auction.Participants()
	if len(participants) == 0 {
		return nil
	}
	s.printf("  Participants:\n")
	for _, p := range participants {
		s.printf("    #%-6d spent %s\n", p.UserID, utils.FormatMoney(p.Spend))
	}

	bids, err := s.App.Engine.RecentBids(ctx, auctionID, recentBidsShown)
	if err != nil {
		return err
	}
	s.printf("  Recent bids:\n")
	for _, b := range bids {
		s.printf("    %s  #%-6d -> %s\n", b.CreatedAt.Format("15:04:05"), b.UserID, utils.FormatMoney(b.PriceAfter))
	}
	return nil
}

func handleBid(ctx context.Context, s *Session, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: bid <auction_id>")
	}
	auctionID, err := parseID(args[0])
	if err != nil {
		return err
	}
	userID, err := s.currentUserID(ctx)
	if err != nil {
		return err
	}

	auction, err := s.App.Engine.PlaceBid(ctx, auctionID, userID)
	if err != nil {
		return err
	}
	s.printf("Bid accepted\n")
	printAuction(s, auction)
	return nil
}

func handleProcessRefunds(ctx context.Context, s *Session, args []string) error {
	limit := 100
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid limit: %s", args[0])
		}
		limit = n
	}

	issued, err := s.App.Refunds.ProcessPending(ctx, limit)
	s.printf("Issued %d refunds\n", issued)
	return err
}

func printAuction(s *Session, a *entities.Auction) {
	s.printf("#%d %s [%s]\n", a.ID, a.Title, a.Category)
	s.printf("  Status:     %s\n", a.Status)
	if discount := a.Discount(); discount >= 0 {
		s.printf("  Price:      %s (retail %s, %d%% off)\n", utils.FormatMoney(a.CurrentPrice), utils.FormatMoney(a.RetailPrice), discount)
	} else {
		s.printf("  Price:      %s (retail %s, above retail)\n", utils.FormatMoney(a.CurrentPrice), utils.FormatMoney(a.RetailPrice))
	}
	s.printf("  Countdown:  %ds\n", a.CountdownSeconds)
	s.printf("  Bids:       %d by %d bidders\n", a.TotalBids, a.ParticipantCount())
	if a.LastBidderID != nil {
		s.printf("  Leader:     #%d\n", *a.LastBidderID)
	}
	if a.WinnerID != nil {
		s.printf("  Winner:     #%d\n", *a.WinnerID)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %s", raw)
	}
	return id, nil
}

func parseAmount(raw string) (int64, error) {
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount: %s", raw)
	}
	return amount, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"solana-swap-adapters/internal/bootstrap"
	"solana-swap-adapters/internal/chain"
	"solana-swap-adapters/internal/config"
	"solana-swap-adapters/internal/dex"
	"solana-swap-adapters/internal/domain"
	"solana-swap-adapters/internal/observability"
)

// commonFlags are shared by every command that talks to the ledger.
type commonFlags struct {
	configPath string
	envFile    string
	venue      string
	amount     uint64
	slippage   uint
	priority   bool
	timeout    time.Duration
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to TOML config file")
	fs.StringVar(&c.envFile, "env-file", ".env", "Environment file to load if present")
	fs.StringVar(&c.venue, "venue", string(domain.VenueRaydiumCPMM), "Venue id (see swapctl venues)")
	fs.Uint64Var(&c.amount, "amount", 0, "Input amount in base units")
	fs.UintVar(&c.slippage, "slippage-bps", 0, "Slippage tolerance in bps (default from config)")
	fs.BoolVar(&c.priority, "priority", false, "Attach a compute-unit price instruction")
	fs.DurationVar(&c.timeout, "timeout", 60*time.Second, "Overall command timeout")
	fs.BoolVar(&c.verbose, "v", false, "Debug logging")
}

// session is the state a command needs after flags and config are loaded.
type session struct {
	cfg      *config.Config
	env      *config.Env
	network  config.Network
	adapter  dex.Adapter
	journals *bootstrap.Journals
	slippage uint32
	log      zerolog.Logger
}

func (c *commonFlags) open(ctx context.Context, logger zerolog.Logger) (*session, error) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if c.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	env, err := config.LoadEnv(c.envFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	env.Apply(cfg)
	network, err := cfg.Network()
	if err != nil {
		return nil, err
	}
	venue, err := domain.ParseVenueID(c.venue)
	if err != nil {
		return nil, err
	}

	slippage := cfg.Swap.SlippageBps
	if c.slippage > 0 {
		slippage = uint32(c.slippage)
	}

	metrics := observability.DefaultMetrics
	journals, err := bootstrap.OpenJournals(ctx, cfg.Journal, metrics, logger)
	if err != nil {
		return nil, err
	}
	adapter, err := bootstrap.NewRegistry(cfg, network, journals, metrics, logger).Create(venue)
	if err != nil {
		journals.Close()
		return nil, err
	}

	logger.Debug().
		Str("cluster", string(network.Cluster)).
		Str("venue", string(venue)).
		Msg("session ready")

	return &session{
		cfg:      cfg,
		env:      env,
		network:  network,
		adapter:  adapter,
		journals: journals,
		slippage: slippage,
		log:      logger,
	}, nil
}

func (s *session) close() {
	s.journals.Close()
}

func (s *session) signer() (solana.PrivateKey, error) {
	if len(s.env.SecretKey) == 0 {
		return nil, fmt.Errorf("%s is not set", config.EnvSecretKey)
	}
	return s.env.SecretKey, nil
}

func (s *session) priority(flagSet bool) bool {
	return flagSet || s.cfg.Swap.Priority
}

func parseMint(name, raw string) (solana.PublicKey, error) {
	if raw == "" {
		return solana.PublicKey{}, fmt.Errorf("-%s is required", name)
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("-%s: %w", name, err)
	}
	return key, nil
}

func runVenues(out io.Writer) error {
	for _, v := range domain.Venues() {
		if _, err := fmt.Fprintf(out, "%-16s %s\n", v, v.Family()); err != nil {
			return err
		}
	}
	return nil
}

func runQuote(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	var c commonFlags
	c.register(fs)
	from := fs.String("from", solana.WrappedSol.String(), "Input mint")
	to := fs.String("to", "", "Output mint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fromMint, err := parseMint("from", *from)
	if err != nil {
		return err
	}
	toMint, err := parseMint("to", *to)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	s, err := c.open(ctx, logger)
	if err != nil {
		return err
	}
	defer s.close()

	q, err := s.adapter.Quote(ctx, fromMint, toMint, c.amount, s.slippage)
	if err != nil {
		return err
	}
	return printQuote(out, q)
}

func runSwap(ctx context.Context, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("swap", flag.ContinueOnError)
	var c commonFlags
	c.register(fs)
	from := fs.String("from", solana.WrappedSol.String(), "Input mint")
	to := fs.String("to", "", "Output mint")
	wait := fs.Bool("wait", false, "Wait for confirmation over WebSocket")
	if err := fs.Parse(args); err != nil {
		return err
	}
	fromMint, err := parseMint("from", *from)
	if err != nil {
		return err
	}
	toMint, err := parseMint("to", *to)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	s, err := c.open(ctx, logger)
	if err != nil {
		return err
	}
	defer s.close()

	signer, err := s.signer()
	if err != nil {
		return err
	}
	fee, err := s.cfg.FeeSpec()
	if err != nil {
		return err
	}

	res, err := s.adapter.Swap(ctx, &domain.SwapRequest{
		Signer:      signer,
		InputMint:   fromMint,
		OutputMint:  toMint,
		Amount:      c.amount,
		SlippageBps: s.slippage,
		Fee:         fee,
		Priority:    s.priority(c.priority),
	})
	if err != nil {
		return err
	}
	return s.report(ctx, out, res, *wait)
}

func runTrade(ctx context.Context, side string, args []string, out io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet(side, flag.ContinueOnError)
	var c commonFlags
	c.register(fs)
	quoteMint := fs.String("quote", solana.WrappedSol.String(), "Mint paid with on buy and received on sell")
	token := fs.String("token", "", "Mint bought on buy and sold on sell")
	wait := fs.Bool("wait", false, "Wait for confirmation over WebSocket")
	dryRun := fs.Bool("dry-run", false, "Print the swap instructions instead of submitting")
	if err := fs.Parse(args); err != nil {
		return err
	}
	quote, err := parseMint("quote", *quoteMint)
	if err != nil {
		return err
	}
	tokenMint, err := parseMint("token", *token)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	s, err := c.open(ctx, logger)
	if err != nil {
		return err
	}
	defer s.close()

	signer, err := s.signer()
	if err != nil {
		return err
	}
	fee, err := s.cfg.FeeSpec()
	if err != nil {
		return err
	}
	req := &domain.TradeRequest{
		Signer:      signer,
		InputMint:   quote,
		OutputMint:  tokenMint,
		Amount:      c.amount,
		SlippageBps: s.slippage,
		Fee:         fee,
		Priority:    s.priority(c.priority),
	}

	if *dryRun {
		build := s.adapter.BuyInstructions
		if side == domain.SwapSideSell {
			build = s.adapter.SellInstructions
		}
		ixs, err := build(ctx, req)
		if err != nil {
			return err
		}
		return printInstructions(out, ixs)
	}

	submit := s.adapter.Buy
	if side == domain.SwapSideSell {
		submit = s.adapter.Sell
	}
	res, err := submit(ctx, req)
	if err != nil {
		return err
	}
	return s.report(ctx, out, res, *wait)
}

// report prints the result and optionally waits for the signature to land.
func (s *session) report(ctx context.Context, out io.Writer, res *domain.SwapResult, wait bool) error {
	if err := printQuote(out, res.Quote); err != nil {
		return err
	}
	for _, f := range res.Fees {
		fmt.Fprintf(out, "fee         %d lamports -> %s\n", f.Lamports, f.To)
	}
	fmt.Fprintf(out, "signature   %s\n", res.Signature)
	if !wait {
		return nil
	}

	ws, err := chain.NewWSClient(ctx, s.network.WSEndpoint, nil, s.log)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer ws.Close()

	ch, err := ws.SubscribeSignature(ctx, res.Signature)
	if err != nil {
		return fmt.Errorf("subscribe signature: %w", err)
	}
	select {
	case n, ok := <-ch:
		if !ok {
			return fmt.Errorf("signature subscription closed before confirmation")
		}
		if n.Failed() {
			return fmt.Errorf("transaction %s failed: %v", res.Signature, n.Err)
		}
		fmt.Fprintf(out, "confirmed   slot %d\n", n.Slot)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for confirmation: %w", ctx.Err())
	}
}

func printQuote(out io.Writer, q *domain.SwapQuote) error {
	_, err := fmt.Fprintf(out,
		"venue       %s\npool        %s\namount in   %d\nexpected    %d\nmin out     %d (%d bps)\npool fee    %d ppm\n",
		q.Venue, q.Pool, q.AmountIn, q.ExpectedOut, q.MinOut, q.SlippageBps, q.FeeRatePPM)
	if err != nil {
		return err
	}
	if q.TransferFee > 0 {
		_, err = fmt.Fprintf(out, "transfer    %d withheld\n", q.TransferFee)
	}
	return err
}

func printInstructions(out io.Writer, ixs []solana.Instruction) error {
	for i, ix := range ixs {
		if _, err := fmt.Fprintf(out, "%d  %s  %d accounts\n", i, ix.ProgramID(), len(ix.Accounts())); err != nil {
			return err
		}
	}
	return nil
}

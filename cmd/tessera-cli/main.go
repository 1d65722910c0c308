// tessera-cli is a command-line client for Tessera nodes. It mirrors the
// node's cell set into a local index and answers balance, live-cell and
// history queries from it offline.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/tessera-net/tessera-cli/config"
	"github.com/tessera-net/tessera-cli/internal/index"
	"github.com/tessera-net/tessera-cli/internal/log"
	"github.com/tessera-net/tessera-cli/internal/rpcclient"
	"github.com/tessera-net/tessera-cli/internal/storage"
	"github.com/tessera-net/tessera-cli/internal/wallet"
	"github.com/tessera-net/tessera-cli/pkg/crypto"
	"github.com/tessera-net/tessera-cli/pkg/types"
)

func main() {
	fs := flag.NewFlagSet("tessera-cli", flag.ExitOnError)
	fs.Usage = usage
	var gf config.Flags
	gf.Register(fs)
	fs.Parse(os.Args[1:])
	gf.Track(fs)

	args := fs.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(&gf)
	if err != nil {
		fatal("%v", err)
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, cfg.Log.File); err != nil {
		fatal("init logging: %v", err)
	}
	types.SetAddressHRP(config.NetworkParams(cfg.Network).AddressHRP)

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "sync":
		cmdSync(cfg, cmdArgs)
	case "status":
		cmdStatus(cfg)
	case "balance":
		cmdBalance(cfg, cmdArgs)
	case "live-cells":
		cmdLiveCells(cfg, cmdArgs)
	case "history":
		cmdHistory(cfg, cmdArgs)
	case "top-capacity":
		cmdTopCapacity(cfg, cmdArgs)
	case "db-metrics":
		cmdDBMetrics(cfg)
	case "resync":
		cmdResync(cfg, cmdArgs)
	case "account":
		cmdAccount(cfg, cmdArgs)
	case "transfer":
		cmdTransfer(cfg, cmdArgs)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: tessera-cli [global flags] <command> [flags]

Global flags:
  -rpc <url>         Node JSON-RPC endpoint (default: http://127.0.0.1:8545)
  -datadir <path>    Data directory (default: ~/.tessera)
  -network <net>     mainnet (default) or testnet
  -log-level <lvl>   Log level (trace..error)

Commands:
  sync [--from <height>]          Run the indexer until interrupted
  status                          Show index checkpoint and node tip
  balance <address>               Show capacity locked to an address
  live-cells <address> [flags]    List live cells (paged)
      --limit <n>                   Page size (default 20)
      --cursor <hex>                Resume from a previous page
      --typed / --untyped           Only cells with / without a type script
      --min <amt> --max <amt>       Capacity bounds (TSA)
      --from <h> --to <h>           Creation height bounds
  history <address> [flags]       List transactions touching an address
      --limit <n> --cursor <hex>
  top-capacity [--n <count>]      Rank script hashes by live capacity
  db-metrics                      Show index store entry counts
  resync [--from <height>]        Drop the index and re-sync from scratch

  account new --name <n>          Create a wallet account
  account import --name <n> --mnemonic "..."
                                  Import from a BIP-39 mnemonic
  account list                    List wallet accounts

  transfer --wallet <w> --to <addr> --amount <amt> [--fee-rate <r>]
                                  Build, sign and submit a payment
`)
}

// openIndex opens the badger-backed cell index at the configured path.
func openIndex(cfg *config.Config) (*index.Store, storage.DB) {
	db, err := storage.OpenBadger(cfg.IndexDir())
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyLocked) {
			fatal("index is locked by another tessera-cli process")
		}
		fatal("open index: %v", err)
	}
	return index.NewStore(db), db
}

func nodeClient(cfg *config.Config) *rpcclient.Node {
	return rpcclient.NewNode(rpcclient.NewWithTimeout(cfg.RPC.URL, cfg.RPC.Timeout))
}

// ── sync ────────────────────────────────────────────────────────────────

func cmdSync(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	from := fs.Uint64("from", cfg.Sync.StartHeight, "height a fresh index starts at")
	fs.Parse(args)

	store, db := openIndex(cfg)
	defer db.Close()

	cursor := index.NewCursor(store, nodeClient(cfg), cfg.Sync.PollInterval)
	cursor.SyncFrom(*from)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Logger.Info().Str("rpc", cfg.RPC.URL).Msg("indexer starting")
	if err := cursor.Run(ctx); err != nil && ctx.Err() == nil {
		fatal("indexing halted: %v", err)
	}
	log.Logger.Info().Msg("indexer stopped")
}

// ── status ──────────────────────────────────────────────────────────────

func cmdStatus(cfg *config.Config) {
	store, db := openIndex(cfg)
	defer db.Close()

	cp, err := store.Checkpoint()
	if err != nil {
		fatal("read checkpoint: %v", err)
	}
	if cp == nil {
		fmt.Println("Index:   empty")
	} else {
		fmt.Printf("Indexed: %d\n", cp.Height)
		fmt.Printf("Tip:     %s\n", cp.Hash)
	}

	tip, err := nodeClient(cfg).TipHeight(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: node unreachable: %v\n", err)
		return
	}
	fmt.Printf("Node:    %d\n", tip)
	if cp != nil && tip > cp.Height {
		fmt.Printf("Behind:  %d blocks\n", tip-cp.Height)
	}
}

// ── balance ─────────────────────────────────────────────────────────────

func cmdBalance(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: tessera-cli balance <address>")
	}
	addr, err := types.ParseAddress(args[0])
	if err != nil {
		fatal("invalid address: %v", err)
	}

	store, db := openIndex(cfg)
	defer db.Close()

	scriptHash := crypto.ScriptHash(config.DefaultLock(addr))
	total, height, stale, err := store.Balance(scriptHash)
	if err != nil {
		fatal("query balance: %v", err)
	}

	fmt.Printf("Balance: %s TSA\n", formatAmount(total))
	fmt.Printf("As of:   block %d\n", height)
	if stale {
		fmt.Println("Warning: indexing is halted, balance may be out of date")
	}
}

// ── live-cells ──────────────────────────────────────────────────────────

func cmdLiveCells(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: tessera-cli live-cells <address> [flags]")
	}
	addrArg := args[0]

	fs := flag.NewFlagSet("live-cells", flag.ExitOnError)
	limit := fs.Int("limit", 20, "page size")
	cursorHex := fs.String("cursor", "", "resume cursor from a previous page")
	typed := fs.Bool("typed", false, "only cells with a type script")
	untyped := fs.Bool("untyped", false, "only cells without a type script")
	minStr := fs.String("min", "", "minimum capacity (TSA)")
	maxStr := fs.String("max", "", "maximum capacity (TSA)")
	fromBlock := fs.Uint64("from", 0, "minimum creation height")
	toBlock := fs.Uint64("to", 0, "maximum creation height")
	fs.Parse(args[1:])

	addr, err := types.ParseAddress(addrArg)
	if err != nil {
		fatal("invalid address: %v", err)
	}

	filter := &index.CellFilter{}
	if *typed && *untyped {
		fatal("--typed and --untyped are mutually exclusive")
	}
	if *typed || *untyped {
		hasType := *typed
		filter.WithType = &hasType
	}
	if *minStr != "" {
		v, err := parseAmount(*minStr)
		if err != nil {
			fatal("invalid --min: %v", err)
		}
		filter.MinCapacity = v
	}
	if *maxStr != "" {
		v, err := parseAmount(*maxStr)
		if err != nil {
			fatal("invalid --max: %v", err)
		}
		filter.MaxCapacity = v
	}
	filter.FromBlock = *fromBlock
	filter.ToBlock = *toBlock

	var cursor index.PageCursor
	if *cursorHex != "" {
		c, err := hex.DecodeString(*cursorHex)
		if err != nil {
			fatal("invalid cursor: %v", err)
		}
		cursor = c
	}

	store, db := openIndex(cfg)
	defer db.Close()

	scriptHash := crypto.ScriptHash(config.DefaultLock(addr))
	page, err := store.LiveCells(scriptHash, index.ScriptLock, filter, cursor, *limit)
	if err != nil {
		fatal("query live cells: %v", err)
	}

	for _, c := range page.Cells {
		typeTag := ""
		if c.Type != nil {
			typeTag = "  [typed]"
		}
		fmt.Printf("%s:%d  %s TSA  height %d%s\n",
			c.OutPoint.TxHash, c.OutPoint.Index, formatAmount(c.Capacity), c.CreatedAt, typeTag)
	}
	fmt.Printf("-- %d cells, indexed to %d\n", len(page.Cells), page.IndexedHeight)
	if page.Stale {
		fmt.Println("Warning: indexing is halted, results may be out of date")
	}
	if page.Cursor != nil {
		fmt.Printf("Next page: --cursor %s\n", hex.EncodeToString(page.Cursor))
	}
}

// ── history ─────────────────────────────────────────────────────────────

func cmdHistory(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: tessera-cli history <address> [flags]")
	}
	addrArg := args[0]

	fs := flag.NewFlagSet("history", flag.ExitOnError)
	limit := fs.Int("limit", 20, "page size")
	cursorHex := fs.String("cursor", "", "resume cursor from a previous page")
	fs.Parse(args[1:])

	addr, err := types.ParseAddress(addrArg)
	if err != nil {
		fatal("invalid address: %v", err)
	}

	var cursor index.PageCursor
	if *cursorHex != "" {
		c, err := hex.DecodeString(*cursorHex)
		if err != nil {
			fatal("invalid cursor: %v", err)
		}
		cursor = c
	}

	store, db := openIndex(cfg)
	defer db.Close()

	scriptHash := crypto.ScriptHash(config.DefaultLock(addr))
	page, err := store.History(scriptHash, cursor, *limit)
	if err != nil {
		fatal("query history: %v", err)
	}

	for _, rec := range page.Transactions {
		fmt.Printf("block %-8d %s  in:%d out:%d\n",
			rec.BlockHeight, rec.TxHash, len(rec.Inputs), len(rec.Outputs))
	}
	fmt.Printf("-- %d transactions, indexed to %d\n", len(page.Transactions), page.IndexedHeight)
	if page.Stale {
		fmt.Println("Warning: indexing is halted, results may be out of date")
	}
	if page.Cursor != nil {
		fmt.Printf("Next page: --cursor %s\n", hex.EncodeToString(page.Cursor))
	}
}

// ── top-capacity ────────────────────────────────────────────────────────

func cmdTopCapacity(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("top-capacity", flag.ExitOnError)
	n := fs.Int("n", 10, "number of script hashes to show")
	fs.Parse(args)

	store, db := openIndex(cfg)
	defer db.Close()

	ranks, height, stale, err := store.TopCapacity(*n)
	if err != nil {
		fatal("query top capacity: %v", err)
	}

	for i, r := range ranks {
		fmt.Printf("%3d. %s  %s TSA\n", i+1, r.ScriptHash, formatAmount(r.Capacity))
	}
	fmt.Printf("-- %d scripts, indexed to %d\n", len(ranks), height)
	if stale {
		fmt.Println("Warning: indexing is halted, results may be out of date")
	}
}

// ── db-metrics ──────────────────────────────────────────────────────────

func cmdDBMetrics(cfg *config.Config) {
	store, db := openIndex(cfg)
	defer db.Close()

	m, err := store.Metrics()
	if err != nil {
		fatal("read metrics: %v", err)
	}

	fmt.Printf("Indexed height:   %d\n", m.IndexedHeight)
	fmt.Printf("Cells:            %d\n", m.Cells)
	fmt.Printf("Live lock keys:   %d\n", m.LiveLockKeys)
	fmt.Printf("Live type keys:   %d\n", m.LiveTypeKeys)
	fmt.Printf("Balances:         %d\n", m.Balances)
	fmt.Printf("Blocks:           %d\n", m.Blocks)
	fmt.Printf("Undo records:     %d\n", m.UndoRecords)
	fmt.Printf("Transactions:     %d\n", m.Transactions)
	fmt.Printf("History markers:  %d\n", m.HistoryMarkers)
}

// ── resync ──────────────────────────────────────────────────────────────

func cmdResync(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("resync", flag.ExitOnError)
	from := fs.Uint64("from", cfg.Sync.StartHeight, "height to restart indexing at")
	fs.Parse(args)

	store, db := openIndex(cfg)
	defer db.Close()

	if err := store.Reset(); err != nil {
		fatal("reset index: %v", err)
	}
	log.Logger.Info().Msg("index cleared")

	cursor := index.NewCursor(store, nodeClient(cfg), cfg.Sync.PollInterval)
	cursor.SyncFrom(*from)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cursor.Run(ctx); err != nil && ctx.Err() == nil {
		fatal("indexing halted: %v", err)
	}
}

// ── account ─────────────────────────────────────────────────────────────

func cmdAccount(cfg *config.Config, args []string) {
	if len(args) < 1 {
		fatal("Usage: tessera-cli account <new|import|list> [flags]")
	}
	switch args[0] {
	case "new":
		cmdAccountNew(cfg, args[1:])
	case "import":
		cmdAccountImport(cfg, args[1:])
	case "list":
		cmdAccountList(cfg)
	default:
		fatal("Unknown account command: %s", args[0])
	}
}

func cmdAccountNew(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("account new", flag.ExitOnError)
	name := fs.String("name", "", "Account name")
	fs.Parse(args)
	if *name == "" {
		fatal("Usage: tessera-cli account new --name <name>")
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		fatal("generate mnemonic: %v", err)
	}

	fmt.Println("Mnemonic (write this down!):")
	fmt.Printf("  %s\n\n", mnemonic)

	createAccount(cfg, *name, mnemonic)
	fmt.Printf("\nAccount created: %s\n", *name)
}

func cmdAccountImport(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("account import", flag.ExitOnError)
	name := fs.String("name", "", "Account name")
	mnemonic := fs.String("mnemonic", "", "BIP-39 mnemonic (24 words)")
	fs.Parse(args)
	if *name == "" || *mnemonic == "" {
		fatal("Usage: tessera-cli account import --name <name> --mnemonic \"word1 word2 ...\"")
	}
	if !wallet.ValidateMnemonic(*mnemonic) {
		fatal("invalid mnemonic")
	}

	createAccount(cfg, *name, *mnemonic)
	fmt.Printf("Account imported: %s\n", *name)
}

// createAccount derives account 0, encrypts the seed and stores metadata.
func createAccount(cfg *config.Config, name, mnemonic string) {
	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		fatal("read password: %v", err)
	}
	if string(password) != string(confirm) {
		fatal("passwords do not match")
	}

	seed, err := wallet.SeedFromMnemonic(mnemonic, "")
	if err != nil {
		fatal("derive seed: %v", err)
	}

	master, err := wallet.NewMasterKey(seed)
	if err != nil {
		fatal("derive master key: %v", err)
	}
	hdKey, err := master.DeriveAddress(0, wallet.ChangeExternal, 0)
	if err != nil {
		fatal("derive address: %v", err)
	}
	addr := hdKey.Address()

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("create keystore: %v", err)
	}
	if err := ks.Create(name, seed, password, wallet.DefaultParams()); err != nil {
		fatal("create account: %v", err)
	}

	// Zero seed.
	for i := range seed {
		seed[i] = 0
	}

	if err := ks.AddAccount(name, wallet.AccountEntry{
		Index:   0,
		Name:    "Default",
		Address: addr.String(),
	}); err != nil {
		fatal("add account: %v", err)
	}

	fmt.Printf("Address: %s\n", addr.String())
}

func cmdAccountList(cfg *config.Config) {
	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	names, err := ks.List()
	if err != nil {
		fatal("list accounts: %v", err)
	}
	if len(names) == 0 {
		fmt.Println("No accounts. Create one with: tessera-cli account new --name <name>")
		return
	}
	for _, name := range names {
		fmt.Println(name)
		entries, err := ks.ListAccounts(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  (unreadable: %v)\n", err)
			continue
		}
		for _, e := range entries {
			fmt.Printf("  [%d] %s  %s\n", e.Index, e.Name, e.Address)
		}
	}
}

// ── transfer ────────────────────────────────────────────────────────────

func cmdTransfer(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	walletName := fs.String("wallet", "", "Account name")
	toAddr := fs.String("to", "", "Recipient address")
	amountStr := fs.String("amount", "", "Amount to send in TSA (e.g. 1.5)")
	feeRate := fs.Uint64("fee-rate", 0, "Fee rate in grains per byte (0 = default)")
	fs.Parse(args)

	if *walletName == "" || *toAddr == "" || *amountStr == "" {
		fatal("Usage: tessera-cli transfer --wallet <name> --to <addr> --amount <amt>")
	}
	amount, err := parseAmount(*amountStr)
	if err != nil {
		fatal("invalid amount: %v", err)
	}
	recipient, err := types.ParseAddress(*toAddr)
	if err != nil {
		fatal("invalid recipient address: %v", err)
	}

	password, err := readPassword("Enter password: ")
	if err != nil {
		fatal("read password: %v", err)
	}

	ks, err := wallet.NewKeystore(cfg.KeystoreDir())
	if err != nil {
		fatal("open keystore: %v", err)
	}
	seed, err := ks.Load(*walletName, password)
	if err != nil {
		fatal("unlock account: %v", err)
	}
	master, err := wallet.NewMasterKey(seed)
	for i := range seed {
		seed[i] = 0
	}
	if err != nil {
		fatal("derive master key: %v", err)
	}
	hdKey, err := master.DeriveAddress(0, wallet.ChangeExternal, 0)
	if err != nil {
		fatal("derive key: %v", err)
	}
	key, err := hdKey.Signer()
	if err != nil {
		fatal("derive signer: %v", err)
	}
	defer key.Zero()

	// Fund the payment from the local index.
	store, db := openIndex(cfg)
	defer db.Close()

	ownerHash := crypto.ScriptHash(config.DefaultLock(hdKey.Address()))
	var cells []types.Cell
	var cursor index.PageCursor
	for {
		page, err := store.LiveCells(ownerHash, index.ScriptLock, nil, cursor, 200)
		if err != nil {
			fatal("query live cells: %v", err)
		}
		cells = append(cells, page.Cells...)
		if page.Cursor == nil {
			break
		}
		cursor = page.Cursor
	}
	if stale := store.Halted(); stale {
		fmt.Fprintln(os.Stderr, "Warning: indexing is halted, funding from possibly stale cells")
	}

	xfer, err := wallet.BuildTransfer(cells, wallet.TransferParams{
		To:      recipient,
		Amount:  amount,
		FeeRate: *feeRate,
	}, key)
	if err != nil {
		fatal("build transfer: %v", err)
	}

	hash, err := nodeClient(cfg).SubmitTransaction(context.Background(), xfer.Tx)
	if err != nil {
		fatal("submit transaction: %v", err)
	}

	fmt.Printf("Submitted: %s\n", hash)
	fmt.Printf("Fee:       %s TSA\n", formatAmount(xfer.Fee))
	if xfer.Change > 0 {
		fmt.Printf("Change:    %s TSA\n", formatAmount(xfer.Change))
	}
}

// ── Amount helpers ──────────────────────────────────────────────────────

// formatAmount converts grains to a human-readable TSA decimal string.
func formatAmount(grains uint64) string {
	whole := grains / config.TSA
	frac := grains % config.TSA
	return fmt.Sprintf("%d.%08d", whole, frac)
}

// parseAmount converts a TSA decimal string to grains.
func parseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	parts := strings.SplitN(s, ".", 2)

	whole, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid whole part: %w", err)
	}

	var frac uint64
	if len(parts) == 2 {
		fracStr := parts[1]
		if len(fracStr) > config.Decimals {
			return 0, fmt.Errorf("too many decimal places (max %d)", config.Decimals)
		}
		// Pad to Decimals digits.
		fracStr = fracStr + strings.Repeat("0", config.Decimals-len(fracStr))
		frac, err = strconv.ParseUint(fracStr, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid fractional part: %w", err)
		}
	}

	// Check overflow.
	if whole > math.MaxUint64/config.TSA {
		return 0, fmt.Errorf("amount too large")
	}
	result := whole * config.TSA
	if result > math.MaxUint64-frac {
		return 0, fmt.Errorf("amount too large")
	}

	return result + frac, nil
}

// ── Password helper ─────────────────────────────────────────────────────

func readPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return password, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

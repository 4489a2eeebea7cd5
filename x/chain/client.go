package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

var (
	// ErrNoSigner is returned by Send when the client was built without a key.
	ErrNoSigner = errors.New("no signer configured")
	// ErrReceiptTimeout is returned when a receipt does not show up in time.
	ErrReceiptTimeout = errors.New("timed out waiting for receipt")
)

// Client bundles the node connection with the optional signing account.
type Client struct {
	cfg           Config
	eth           EthClient
	signer        Signer
	chainID       *big.Int
	defaultCaller common.Address
	log           zerolog.Logger

	closeFn func()
}

// Dial connects to cfg.RPCEndpoint, resolves the chain id and loads the
// signing key when one is configured.
func Dial(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.RPCEndpoint) == "" {
		return nil, fmt.Errorf("rpc endpoint cannot be empty")
	}

	ec, err := ethclient.DialContext(ctx, cfg.RPCEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.RPCEndpoint, err)
	}

	chainID := new(big.Int).SetUint64(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = ec.ChainID(ctx)
		if err != nil {
			ec.Close()
			return nil, fmt.Errorf("failed to fetch chain id: %w", err)
		}
	}

	var signer Signer
	if strings.TrimSpace(cfg.PrivateKeyHex) != "" {
		signer, err = NewLocalECDSASignerFromHex(chainID, cfg.PrivateKeyHex)
		if err != nil {
			ec.Close()
			return nil, err
		}
	}

	c := NewClient(cfg, ec, signer, chainID, log)
	c.closeFn = ec.Close
	return c, nil
}

// NewClient wraps an existing EthClient. signer may be nil for a read-only client.
func NewClient(cfg Config, eth EthClient, signer Signer, chainID *big.Int, log zerolog.Logger) *Client {
	c := &Client{
		cfg:     cfg,
		eth:     eth,
		signer:  signer,
		chainID: chainID,
		log:     log.With().Str("component", "chain-client").Logger(),
	}
	if common.IsHexAddress(cfg.DefaultCaller) {
		c.defaultCaller = common.HexToAddress(cfg.DefaultCaller)
	}

	evt := c.log.Info().Str("chain_id", chainID.String())
	if signer != nil {
		evt = evt.Str("account", signer.Address().Hex())
	}
	evt.Msg("Chain client initialized")

	return c
}

// Close releases the underlying connection when the client owns it.
func (c *Client) Close() {
	if c.closeFn != nil {
		c.closeFn()
	}
}

func (c *Client) ChainID() *big.Int { return new(big.Int).Set(c.chainID) }

// Eth exposes the raw node client.
func (c *Client) Eth() EthClient { return c.eth }

// Account implements Wallet.
func (c *Client) Account() (common.Address, bool) {
	if c.signer == nil {
		return common.Address{}, false
	}
	return c.signer.Address(), true
}

// DefaultCaller is the origin used for default-caller reads.
func (c *Client) DefaultCaller() common.Address { return c.defaultCaller }

// Call executes a read-only call against the latest block.
func (c *Client) Call(ctx context.Context, from, to common.Address, data []byte) ([]byte, error) {
	return c.eth.CallContract(ctx, ethereum.CallMsg{From: from, To: &to, Data: data}, nil)
}

// EstimateGas estimates gas for the call without the configured buffer.
func (c *Client) EstimateGas(
	ctx context.Context,
	from, to common.Address,
	data []byte,
	value *big.Int,
) (uint64, error) {
	return c.eth.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
}

// Send builds, signs and broadcasts a transaction to `to`. A zero gasLimit
// is replaced by the buffered estimate.
func (c *Client) Send(
	ctx context.Context,
	to common.Address,
	data []byte,
	value *big.Int,
	gasLimit uint64,
) (*types.Transaction, error) {
	if c.signer == nil {
		return nil, ErrNoSigner
	}
	from := c.signer.Address()
	if value == nil {
		value = new(big.Int)
	}

	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	if gasLimit == 0 {
		est, err := c.EstimateGas(ctx, from, to, data, value)
		if err != nil {
			return nil, fmt.Errorf("failed to estimate gas: %w", err)
		}
		gasLimit = est + est*c.cfg.GasLimitBufferPct/100
	}

	var txData types.TxData
	if c.cfg.UseEIP1559 {
		tip, feeCap, err := c.dynamicFees(ctx)
		if err != nil {
			return nil, err
		}
		txData = &types.DynamicFeeTx{
			ChainID:   c.ChainID(),
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &to,
			Value:     value,
			Data:      data,
		}
	} else {
		price, err := c.legacyPrice(ctx)
		if err != nil {
			return nil, err
		}
		txData = &types.LegacyTx{
			Nonce:    nonce,
			GasPrice: price,
			Gas:      gasLimit,
			To:       &to,
			Value:    value,
			Data:     data,
		}
	}

	signed, err := c.signer.SignTx(types.NewTx(txData))
	if err != nil {
		return nil, fmt.Errorf("failed to sign tx: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send tx: %w", err)
	}

	c.log.Info().
		Str("tx_hash", signed.Hash().Hex()).
		Str("to", to.Hex()).
		Uint64("nonce", nonce).
		Uint64("gas", gasLimit).
		Msg("Transaction sent")

	return signed, nil
}

// WaitMined polls for the receipt of tx and then waits for the configured
// number of confirmations.
func (c *Client) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if c.cfg.ReceiptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ReceiptTimeout)
		defer cancel()
	}

	interval := c.cfg.ReceiptPollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var receipt *types.Receipt
	for receipt == nil {
		r, err := c.eth.TransactionReceipt(ctx, tx.Hash())
		switch {
		case err == nil && r != nil:
			receipt = r
			continue
		case err == nil, errors.Is(err, ethereum.NotFound):
		default:
			c.log.Debug().Err(err).Str("tx_hash", tx.Hash().Hex()).Msg("Receipt lookup failed")
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrReceiptTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	if c.cfg.Confirmations <= 1 || receipt.BlockNumber == nil {
		return receipt, nil
	}

	target := new(big.Int).Add(receipt.BlockNumber, new(big.Int).SetUint64(c.cfg.Confirmations-1))
	for {
		head, err := c.eth.HeaderByNumber(ctx, nil)
		if err == nil && head.Number.Cmp(target) >= 0 {
			return receipt, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrReceiptTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) dynamicFees(ctx context.Context) (*big.Int, *big.Int, error) {
	tip, err := c.eth.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to suggest tip: %w", err)
	}
	if maxTip := parseWei(c.cfg.MaxPriorityFeeWei); maxTip != nil && tip.Cmp(maxTip) > 0 {
		tip = maxTip
	}

	head, err := c.eth.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch head: %w", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}

	feeCap := new(big.Int).Add(new(big.Int).Mul(baseFee, big.NewInt(2)), tip)
	if maxFee := parseWei(c.cfg.MaxFeePerGasWei); maxFee != nil && feeCap.Cmp(maxFee) > 0 {
		feeCap = maxFee
	}
	if tip.Cmp(feeCap) > 0 {
		tip = new(big.Int).Set(feeCap)
	}
	return tip, feeCap, nil
}

func (c *Client) legacyPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to suggest gas price: %w", err)
	}
	if maxFee := parseWei(c.cfg.MaxFeePerGasWei); maxFee != nil && price.Cmp(maxFee) > 0 {
		price = maxFee
	}
	return price, nil
}

// parseWei returns nil for empty, zero or malformed values.
func parseWei(s string) *big.Int {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok || v.Sign() <= 0 {
		return nil
	}
	return v
}

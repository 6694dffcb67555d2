package lending

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrBrokerNotFound signals that no market could be mapped to a symbol.
var ErrBrokerNotFound = errors.New("lending: broker not found")

const (
	// NativeSymbol is the chain's gas asset ticker.
	NativeSymbol = "MOVE"
	// NativeCoinType is the legacy coin representation of the native asset.
	NativeCoinType = "0x1::aptos_coin::AptosCoin"
	// NativeFAAddress is the fungible-asset metadata address of the same
	// logical token. Both representations exist on chain at once and hold
	// separate balances.
	NativeFAAddress = "0xa"
)

// symbolMarkets maps user-facing tickers to the market names used by the
// brokers API, most specific first.
var symbolMarkets = map[string][]string{
	"USDC":  {"movement-usdc", "usdc"},
	"USDT":  {"movement-usdt", "usdt"},
	"MOVE":  {"movement-move", "movement-move-fa", "move"},
	"WBTC":  {"movement-wbtc", "wbtc"},
	"WETH":  {"movement-weth", "weth"},
	"EZETH": {"movement-ezeth", "ezeth"},
	"LBTC":  {"movement-lbtc", "lbtc"},
	"USDA":  {"movement-usda", "usda"},
}

// symbolAddresses maps tickers to on-chain asset identifiers, used when a
// market's name diverges from the ticker conventions above.
var symbolAddresses = map[string]string{
	"MOVE":  NativeCoinType,
	"USDC":  "0x83121c9f9b0527d1f056e21a950d6bf3b9e9e2e8353d0e95ccea726713cbea39",
	"USDT":  "0x447721a30109c662dde9c73a0c2c9c9c459fb5e5a9c92f03c50fa69737f5d08d",
	"WBTC":  "0x525b929b0f40d98e4b05e06e633c9a9afb8bc7fb2f57361b0b27226caf52c1c9",
	"WETH":  "0x908828f4fb0213d4034c3ded1630bbd904e8a3a6bf3c63270887f0b06653a376",
	"EZETH": "0x2825a2b3f07fd19ee1ad0e6c3b5f9e523ef66119012925da16a0e1e743cc1a28",
	"LBTC":  "0x9e9b4091a674c9e3d8c1dbb5f2bfecb720dc80a6ede8b0246a50b1d5f417d699",
	"USDA":  "0x376e7e27e9b21a42c0e9c3d0dbb23a4d8c34dcef1af9d746a24c6bbd42b47e44",
}

// BalanceFunc reports the wallet's raw balance of an on-chain asset type.
// Resolution uses it only for the native-asset dual-representation rule.
type BalanceFunc func(ctx context.Context, assetType string) (*big.Int, error)

// Resolution is the outcome of mapping a symbol to a market.
type Resolution struct {
	Broker *Broker
	// CoinForm marks that the legacy coin representation of the native
	// asset was selected because the wallet still holds coin-form funds.
	CoinForm bool
}

// ResolveBroker maps a symbol to exactly one broker, or fails definitively.
// Rules apply in order, first match wins:
//
//  1. Native-asset disambiguation by actual wallet holdings: a non-zero
//     legacy-coin balance forces the coin-form market, regardless of which
//     representation appears first in the list.
//  2. Exact match on the underlying asset name.
//  3. Exact match on the on-chain asset identifier.
//  4. Substring match on the underlying asset name.
//  5. Match on the ticker metadata field.
//
// The dual-representation branch is an adapter for a protocol quirk; nothing
// else in resolution is balance-dependent.
func ResolveBroker(ctx context.Context, brokers []Broker, symbol string, balance BalanceFunc) (*Resolution, error) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrBrokerNotFound)
	}

	if sym == NativeSymbol {
		res, err := resolveNative(ctx, brokers, balance)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
	}

	names := symbolMarkets[sym]
	if len(names) == 0 {
		names = []string{strings.ToLower(sym)}
	}

	for _, name := range names {
		for i := range brokers {
			if strings.EqualFold(brokers[i].UnderlyingAsset.Name, name) {
				return resolved(&brokers[i], false)
			}
		}
	}

	if addr, ok := symbolAddresses[sym]; ok {
		for i := range brokers {
			if brokers[i].UnderlyingAsset.NetworkAddress == addr {
				return resolved(&brokers[i], false)
			}
		}
	}

	for _, name := range names {
		for i := range brokers {
			if strings.Contains(strings.ToLower(brokers[i].UnderlyingAsset.Name), name) {
				return resolved(&brokers[i], false)
			}
		}
	}

	for i := range brokers {
		if strings.EqualFold(brokers[i].UnderlyingAsset.Ticker, sym) {
			return resolved(&brokers[i], false)
		}
	}

	return nil, fmt.Errorf("%w: no market for symbol %q", ErrBrokerNotFound, symbol)
}

// resolveNative applies the holdings-priority rule for the native asset's two
// representations. Returns (nil, nil) when neither representation is listed,
// letting resolution fall through to the generic rules.
func resolveNative(ctx context.Context, brokers []Broker, balance BalanceFunc) (*Resolution, error) {
	coin := findByAddress(brokers, NativeCoinType)
	fa := findByAddress(brokers, NativeFAAddress)
	if coin == nil && fa == nil {
		return nil, nil
	}

	if balance != nil {
		held, err := balance(ctx, NativeCoinType)
		if err != nil {
			return nil, fmt.Errorf("query native coin balance: %w", err)
		}
		if held != nil && held.Sign() > 0 {
			// The fungible-asset market cannot move coin-form funds, so
			// selecting it here would strand the balance.
			if coin == nil {
				return nil, fmt.Errorf("%w: wallet holds legacy coin %s but no coin-form market is listed", ErrBrokerNotFound, NativeCoinType)
			}
			return resolved(coin, true)
		}
	}

	if fa != nil {
		return resolved(fa, false)
	}
	return resolved(coin, true)
}

func findByAddress(brokers []Broker, address string) *Broker {
	for i := range brokers {
		if brokers[i].UnderlyingAsset.NetworkAddress == address {
			return &brokers[i]
		}
	}
	return nil
}

func resolved(b *Broker, coinForm bool) (*Resolution, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokerNotFound, err)
	}
	return &Resolution{Broker: b, CoinForm: coinForm}, nil
}

package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	hyperliquid "github.com/sonirico/go-hyperliquid"
)

type HyperliquidClient struct {
	exchange    *hyperliquid.Exchange
	accountAddr string
}

// NewHyperliquidClient builds a client from a hex private key; the account address is derived from it.
func NewHyperliquidClient(privateKeyHex string, baseURL string) (*HyperliquidClient, error) {
	key := privateKeyHex
	if len(key) >= 2 && (key[:2] == "0x" || key[:2] == "0X") {
		key = key[2:]
	}

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, err
	}

	accountAddr, err := addressFromKey(privateKey)
	if err != nil {
		return nil, err
	}

	// Info and SpotMeta are fetched lazily by the SDK
	ex := hyperliquid.NewExchange(
		context.Background(),
		privateKey,
		baseURL,
		nil,
		"",
		accountAddr,
		nil,
	)

	return &HyperliquidClient{exchange: ex, accountAddr: accountAddr}, nil
}

func addressFromKey(privateKey *ecdsa.PrivateKey) (string, error) {
	pub, ok := privateKey.Public().(*ecdsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("error casting public key to ECDSA")
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

func (c *HyperliquidClient) Info() *hyperliquid.Info { return c.exchange.Info() }
func (c *HyperliquidClient) AccountAddress() string  { return c.accountAddr }

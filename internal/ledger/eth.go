package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/agritruth/trace/internal/domain"
)

// EthConfig carries the chain connection settings.
type EthConfig struct {
	RPCURL          string
	ContractAddress string
	// RelayerKeyHex signs all regular writes. Optional; reads still work
	// without it and writes return domain.ErrNotConfigured.
	RelayerKeyHex string
	// OwnerKeyHex signs SetVerifier. Optional.
	OwnerKeyHex string
}

// Eth talks to the deployed contract over JSON-RPC. It is the single place
// that maps the contract's positional tuple layout onto named batch fields;
// nothing outside this file indexes into raw ledger data.
type Eth struct {
	client   *ethclient.Client
	abi      abi.ABI
	contract common.Address
	chainID  *big.Int

	relayerKey *ecdsa.PrivateKey
	relayer    common.Address
	ownerKey   *ecdsa.PrivateKey
	owner      common.Address

	log *slog.Logger
}

// DialEth connects to the chain and prepares the signing accounts.
func DialEth(ctx context.Context, cfg EthConfig, log *slog.Logger) (*Eth, error) {
	if !domain.Address(cfg.ContractAddress).Valid() {
		return nil, fmt.Errorf("%w: contract address %q", domain.ErrInvalidLedgerTarget, cfg.ContractAddress)
	}
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read chain id: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	e := &Eth{
		client:   client,
		abi:      parsed,
		contract: common.HexToAddress(cfg.ContractAddress),
		chainID:  chainID,
		log:      log,
	}
	if cfg.RelayerKeyHex != "" {
		key, err := parseKey(cfg.RelayerKeyHex)
		if err != nil {
			return nil, fmt.Errorf("parse relayer key: %w", err)
		}
		e.relayerKey = key
		e.relayer = crypto.PubkeyToAddress(key.PublicKey)
	}
	if cfg.OwnerKeyHex != "" {
		key, err := parseKey(cfg.OwnerKeyHex)
		if err != nil {
			return nil, fmt.Errorf("parse owner key: %w", err)
		}
		e.ownerKey = key
		e.owner = crypto.PubkeyToAddress(key.PublicKey)
	}
	// A common deploy mistake is pasting the relayer EOA where the contract
	// address belongs; every call would then hit an account with no code.
	if e.relayerKey != nil && e.contract == e.relayer {
		return nil, fmt.Errorf("%w: contract address equals the relayer account", domain.ErrInvalidLedgerTarget)
	}
	return e, nil
}

func parseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
}

func (e *Eth) Signer() domain.Address {
	if e.relayerKey == nil {
		return ""
	}
	return domain.Address(e.relayer.Hex())
}

func (e *Eth) HasCode(ctx context.Context) (bool, error) {
	code, err := e.client.CodeAt(ctx, e.contract, nil)
	if err != nil {
		return false, fmt.Errorf("code probe: %w", err)
	}
	return len(code) > 0, nil
}

// call executes a read-only contract function and returns the raw outputs.
func (e *Eth) call(ctx context.Context, fn string, args ...interface{}) ([]interface{}, error) {
	data, err := e.abi.Pack(fn, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", fn, err)
	}
	raw, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &e.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", fn, err)
	}
	out, err := e.abi.Unpack(fn, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", fn, err)
	}
	return out, nil
}

// send signs fn with key, submits it, and waits for the mined receipt.
func (e *Eth) send(ctx context.Context, key *ecdsa.PrivateKey, from common.Address, fn string, args ...interface{}) (*types.Receipt, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no signing key for %s", domain.ErrNotConfigured, fn)
	}
	data, err := e.abi.Pack(fn, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", domain.ErrWriteRejected, fn, err)
	}
	nonce, err := e.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("%w: nonce: %v", domain.ErrWriteRejected, err)
	}
	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: gas price: %v", domain.ErrWriteRejected, err)
	}
	gas, err := e.client.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &e.contract, Data: data})
	if err != nil {
		return nil, fmt.Errorf("%w: estimate %s: %v", domain.ErrWriteRejected, fn, err)
	}
	tx := types.NewTransaction(nonce, e.contract, common.Big0, gas, gasPrice, data)
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(e.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("%w: sign %s: %v", domain.ErrWriteRejected, fn, err)
	}
	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("%w: send %s: %v", domain.ErrWriteRejected, fn, err)
	}
	receipt, err := bind.WaitMined(ctx, e.client, signed)
	if err != nil {
		return nil, fmt.Errorf("%w: wait %s: %v", domain.ErrWriteRejected, fn, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s reverted in tx %s", domain.ErrWriteRejected, fn, signed.Hash())
	}
	return receipt, nil
}

func (e *Eth) Batch(ctx context.Context, id uint64) (domain.Batch, error) {
	out, err := e.call(ctx, "batches", new(big.Int).SetUint64(id))
	if err != nil {
		return domain.Batch{}, err
	}
	b, err := decodeBatchTuple(out)
	if err != nil {
		return domain.Batch{}, err
	}
	if !b.Exists {
		return domain.Batch{}, domain.ErrNotFound
	}
	return b, nil
}

func (e *Eth) AllBatchIDs(ctx context.Context) ([]uint64, error) {
	out, err := e.call(ctx, "getAllBatchIds")
	if err != nil {
		// Older deployments predate the bulk getter; the projection falls
		// back to the registration log.
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	raw, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected id list type %T", ErrUnsupported, out[0])
	}
	ids := make([]uint64, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, v.Uint64())
	}
	return ids, nil
}

func (e *Eth) RegistrationEvents(ctx context.Context, batchID uint64) ([]RegistrationEvent, error) {
	ev := e.abi.Events["BatchRegistered"]
	topics := [][]common.Hash{{ev.ID}}
	if batchID != 0 {
		topics = append(topics, []common.Hash{common.BigToHash(new(big.Int).SetUint64(batchID))})
	}
	logs, err := e.client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{e.contract},
		Topics:    topics,
	})
	if err != nil {
		return nil, fmt.Errorf("filter registration events: %w", err)
	}
	blockTimes := map[uint64]int64{}
	out := make([]RegistrationEvent, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) < 3 {
			continue
		}
		vals, err := e.abi.Unpack("BatchRegistered", lg.Data)
		if err != nil || len(vals) < 5 {
			continue
		}
		at, ok := blockTimes[lg.BlockNumber]
		if !ok {
			if hdr, err := e.client.HeaderByNumber(ctx, new(big.Int).SetUint64(lg.BlockNumber)); err == nil {
				at = int64(hdr.Time)
			}
			blockTimes[lg.BlockNumber] = at
		}
		out = append(out, RegistrationEvent{
			BatchID:      new(big.Int).SetBytes(lg.Topics[1].Bytes()).Uint64(),
			Farmer:       domain.Address(common.BytesToAddress(lg.Topics[2].Bytes()).Hex()),
			CropType:     asString(vals[0]),
			QuantityKg:   asUint64(vals[1]),
			BasePriceINR: asUint64(vals[2]),
			HarvestDate:  int64(asUint64(vals[3])),
			MetadataCID:  asString(vals[4]),
			At:           at,
		})
	}
	return out, nil
}

func (e *Eth) RegisterBatch(ctx context.Context, reg domain.Registration) (uint64, error) {
	qty := new(big.Int).SetUint64(reg.QuantityKg)
	base := new(big.Int).SetUint64(reg.BasePriceINR)
	harvest := uint64(reg.HarvestDate)

	var receipt *types.Receipt
	var err error
	if reg.Farmer.Valid() {
		receipt, err = e.send(ctx, e.relayerKey, e.relayer, "registerBatchFor",
			common.HexToAddress(string(reg.Farmer)), reg.CropType, qty, base, harvest, reg.MetadataCID)
		if err != nil {
			// Older deployments lack registerBatchFor. Register as the
			// relayer, then hand custody to the farmer best-effort.
			e.log.Warn("registerBatchFor failed, falling back to registerBatch", "err", err)
			receipt, err = e.send(ctx, e.relayerKey, e.relayer, "registerBatch",
				reg.CropType, qty, base, harvest, reg.MetadataCID)
			if err != nil {
				return 0, err
			}
			id, derr := e.registeredID(receipt)
			if derr != nil {
				return 0, derr
			}
			if _, terr := e.send(ctx, e.relayerKey, e.relayer, "transferOwnership",
				new(big.Int).SetUint64(id), common.HexToAddress(string(reg.Farmer))); terr != nil {
				e.log.Warn("fallback ownership handoff failed", "batch", id, "err", terr)
			}
			return id, nil
		}
	} else {
		receipt, err = e.send(ctx, e.relayerKey, e.relayer, "registerBatch",
			reg.CropType, qty, base, harvest, reg.MetadataCID)
		if err != nil {
			return 0, err
		}
	}
	return e.registeredID(receipt)
}

// registeredID extracts the assigned batch id from the BatchRegistered log.
func (e *Eth) registeredID(receipt *types.Receipt) (uint64, error) {
	eventID := e.abi.Events["BatchRegistered"].ID
	for _, lg := range receipt.Logs {
		if lg.Address != e.contract || len(lg.Topics) < 2 || lg.Topics[0] != eventID {
			continue
		}
		return new(big.Int).SetBytes(lg.Topics[1].Bytes()).Uint64(), nil
	}
	return 0, fmt.Errorf("%w: registration confirmed but no BatchRegistered log found", domain.ErrWriteRejected)
}

func (e *Eth) TransferOwnership(ctx context.Context, id uint64, to domain.Address) error {
	_, err := e.send(ctx, e.relayerKey, e.relayer, "transferOwnership",
		new(big.Int).SetUint64(id), common.HexToAddress(string(to)))
	return err
}

func (e *Eth) TransferOwnershipByVerifier(ctx context.Context, id uint64, to domain.Address) error {
	_, err := e.send(ctx, e.relayerKey, e.relayer, "transferOwnershipByVerifier",
		new(big.Int).SetUint64(id), common.HexToAddress(string(to)))
	return err
}

func (e *Eth) SetPrice(ctx context.Context, id uint64, tier PriceTier, amountINR uint64) error {
	var fn string
	switch tier {
	case TierMin:
		fn = "setMinPriceInr"
	case TierDistributor:
		fn = "setPriceByDistributorInr"
	case TierRetailer:
		fn = "setPriceByRetailerInr"
	default:
		return fmt.Errorf("%w: unknown price tier %d", domain.ErrWriteRejected, tier)
	}
	_, err := e.send(ctx, e.relayerKey, e.relayer, fn,
		new(big.Int).SetUint64(id), new(big.Int).SetUint64(amountINR))
	return err
}

// SetVerifier signs with the contract owner key; granting the capability is
// a one-time deployment step.
func (e *Eth) SetVerifier(ctx context.Context, account domain.Address, allowed bool) error {
	_, err := e.send(ctx, e.ownerKey, e.owner, "setVerifier",
		common.HexToAddress(string(account)), allowed)
	return err
}

// IsVerifier reads the verifier flag for an account; used by diagnostics.
func (e *Eth) IsVerifier(ctx context.Context, account domain.Address) (bool, error) {
	out, err := e.call(ctx, "verifiers", common.HexToAddress(string(account)))
	if err != nil {
		return false, err
	}
	return asBool(out[0]), nil
}

// BlockNumber reports the chain head; used by diagnostics.
func (e *Eth) BlockNumber(ctx context.Context) (uint64, error) {
	return e.client.BlockNumber(ctx)
}

// decodeBatchTuple performs the positional-to-named mapping of the contract's
// batches(id) tuple. Field order follows the deployed struct layout exactly.
func decodeBatchTuple(out []interface{}) (domain.Batch, error) {
	if len(out) < 19 {
		return domain.Batch{}, fmt.Errorf("batch tuple has %d fields, want at least 19", len(out))
	}
	b := domain.Batch{
		ID:                    asUint64(out[0]),
		CurrentOwner:          asAddress(out[1]),
		Farmer:                asAddress(out[2]),
		Distributor:           asAddress(out[3]),
		Retailer:              asAddress(out[4]),
		Consumer:              asAddress(out[5]),
		CropType:              asString(out[6]),
		QuantityKg:            asUint64(out[7]),
		BasePriceINR:          asUint64(out[8]),
		HarvestDate:           int64(asUint64(out[9])),
		MetadataCID:           asString(out[10]),
		CreatedAt:             int64(asUint64(out[11])),
		Exists:                asBool(out[12]),
		MinPriceINR:           asUint64(out[13]),
		PriceByDistributorINR: asUint64(out[14]),
		PriceByRetailerINR:    asUint64(out[15]),
		BoughtByDistributorAt: int64(asUint64(out[16])),
		BoughtByRetailerAt:    int64(asUint64(out[17])),
		BoughtByConsumerAt:    int64(asUint64(out[18])),
	}
	if len(out) >= 22 {
		b.VerificationStatus = asUint8(out[19])
		b.VerificationBy = asAddress(out[20])
		b.VerificationAt = int64(asUint64(out[21]))
	}
	return b, nil
}

func asUint64(v interface{}) uint64 {
	switch t := v.(type) {
	case *big.Int:
		if t == nil {
			return 0
		}
		return t.Uint64()
	case uint64:
		return t
	case uint8:
		return uint64(t)
	}
	return 0
}

func asUint8(v interface{}) uint8 {
	switch t := v.(type) {
	case uint8:
		return t
	case *big.Int:
		if t == nil {
			return 0
		}
		return uint8(t.Uint64())
	}
	return 0
}

func asAddress(v interface{}) domain.Address {
	if a, ok := v.(common.Address); ok {
		return domain.Address(a.Hex())
	}
	return domain.ZeroAddress
}

func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v interface{}) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

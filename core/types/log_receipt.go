package types

import (
	"fmt"
	"math/big"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/rlp"
)

// Log is one EVM LOG0..LOG4 emission.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte

	// Indexing metadata, not part of the consensus encoding but useful to
	// callers (witness construction, L2 withdrawal-log extraction).
	BlockNumber uint64      `rlp:"-"`
	TxHash      common.Hash `rlp:"-"`
	TxIndex     uint        `rlp:"-"`
	Index       uint        `rlp:"-"`
}

func (l *Log) EncodeRLP() ([]byte, error) {
	return rlp.NewList().Add(l.Address).Add(l.Topics).Add(l.Data).Bytes()
}

// ReceiptStatus values per EIP-658 (post-Byzantium).
const (
	ReceiptStatusFailed  = uint64(0)
	ReceiptStatusSuccess = uint64(1)
)

// Receipt is the consensus receipt.
type Receipt struct {
	Type              uint8
	Status            uint64
	CumulativeGasUsed uint64
	Bloom             [256]byte
	Logs              []*Log

	// Non-consensus bookkeeping populated by the block executor.
	TxHash          common.Hash `rlp:"-"`
	ContractAddress common.Address `rlp:"-"`
	GasUsed         uint64      `rlp:"-"`
	BlockHash       common.Hash `rlp:"-"`
	BlockNumber     uint64      `rlp:"-"`
	TransactionIndex uint       `rlp:"-"`
}

// consensusPayload returns the four RLP-encoded consensus fields shared by
// every receipt, typed or legacy.
func (r *Receipt) consensusPayload() ([]byte, error) {
	return rlp.NewList().
		Add(r.Status).
		Add(r.CumulativeGasUsed).
		Add(r.Bloom).
		Add(r.Logs).
		Bytes()
}

// EncodeRLP encodes the receipt the way it is stored in the receipts trie:
// legacy receipts are a bare list, typed receipts are `type || rlp(list)`
// per EIP-2718.
func (r *Receipt) EncodeRLP() ([]byte, error) {
	payload, err := r.consensusPayload()
	if err != nil {
		return nil, err
	}
	if r.Type == LegacyTxType {
		return payload, nil
	}
	return append([]byte{r.Type}, payload...), nil
}

// CreateBloom computes the logs bloom for this receipt from its logs,
// matching go-ethereum's 2048-bit (256-byte) triple-hash bloom.
func CreateBloom(logs []*Log) [256]byte {
	var b [256]byte
	for _, log := range logs {
		bloomAdd(&b, log.Address.Bytes())
		for _, topic := range log.Topics {
			bloomAdd(&b, topic.Bytes())
		}
	}
	return b
}

func bloomAdd(b *[256]byte, data []byte) {
	h := common.Keccak256(data)
	for i := 0; i < 3; i++ {
		bit := (uint(h[2*i])<<8 | uint(h[2*i+1])) & 2047
		b[256-1-bit/8] |= 1 << (bit % 8)
	}
}

// Receipts is an ordered slice keyed into the receipts trie by RLP(tx_index).
type Receipts []*Receipt

func (rs Receipts) Len() int { return len(rs) }

// Withdrawal is a validator withdrawal credited during block finalization
// (Shanghai+).
type Withdrawal struct {
	Index     uint64
	Validator uint64
	Address   common.Address
	Amount    uint64 // in Gwei, per EIP-4895
}

func (w *Withdrawal) EncodeRLP() ([]byte, error) {
	return rlp.NewList().Add(w.Index).Add(w.Validator).Add(w.Address).Add(w.Amount).Bytes()
}

// DecodeWithdrawalRLP decodes a single withdrawal from an already-parsed
// RLP list item, the shape each entry of a block body's withdrawals list
// decodes into.
func DecodeWithdrawalRLP(item rlp.Item) (*Withdrawal, error) {
	if !item.IsList || len(item.List) != 4 {
		return nil, fmt.Errorf("rlp: withdrawal expects 4 fields, got %d", len(item.List))
	}
	f := item.List
	return &Withdrawal{
		Index:     new(big.Int).SetBytes(f[0].Bytes).Uint64(),
		Validator: new(big.Int).SetBytes(f[1].Bytes).Uint64(),
		Address:   common.BytesToAddress(f[2].Bytes),
		Amount:    new(big.Int).SetBytes(f[3].Bytes).Uint64(),
	}, nil
}

package types

import (
	"fmt"

	"github.com/corechain/execd/common"
	"github.com/corechain/execd/rlp"
)

// Body holds everything in a block besides the header.
type Body struct {
	Transactions []*Transaction
	Withdrawals  []*Withdrawal
	Uncles       []*Header // pre-Paris only
}

// Block pairs a Header with its Body. Execution never mutates a Block in
// place; the block executor produces a fresh state and new header fields.
type Block struct {
	header *Header
	body   Body

	hash common.Hash
}

func NewBlock(header *Header, body Body) *Block {
	b := &Block{header: header.Copy(), body: body}
	b.hash = b.header.Hash()
	return b
}

func (b *Block) Header() *Header               { return b.header }
func (b *Block) Transactions() []*Transaction   { return b.body.Transactions }
func (b *Block) Withdrawals() []*Withdrawal     { return b.body.Withdrawals }
func (b *Block) Uncles() []*Header              { return b.body.Uncles }
func (b *Block) Hash() common.Hash              { return b.hash }
func (b *Block) NumberU64() uint64 {
	if b.header.Number == nil {
		return 0
	}
	return b.header.Number.Uint64()
}
func (b *Block) Time() uint64     { return b.header.Time }
func (b *Block) GasLimit() uint64 { return b.header.GasLimit }

// EncodeRLP is the canonical wire/storage encoding a block is shipped or
// persisted as: [header, transactions, withdrawals, uncles].
func (b *Block) EncodeRLP() ([]byte, error) {
	headerEnc, err := b.header.EncodeRLP()
	if err != nil {
		return nil, err
	}
	txsEnc, err := EncodeTransactionsRLP(b.body.Transactions)
	if err != nil {
		return nil, err
	}
	wl := rlp.NewList()
	for _, w := range b.body.Withdrawals {
		enc, err := w.EncodeRLP()
		if err != nil {
			return nil, err
		}
		wl.Add(rlp.RawValue(enc))
	}
	withdrawalsEnc, err := wl.Bytes()
	if err != nil {
		return nil, err
	}
	ul := rlp.NewList()
	for _, u := range b.body.Uncles {
		enc, err := u.EncodeRLP()
		if err != nil {
			return nil, err
		}
		ul.Add(rlp.RawValue(enc))
	}
	unclesEnc, err := ul.Bytes()
	if err != nil {
		return nil, err
	}
	return rlp.NewList().
		Add(rlp.RawValue(headerEnc)).
		Add(rlp.RawValue(txsEnc)).
		Add(rlp.RawValue(withdrawalsEnc)).
		Add(rlp.RawValue(unclesEnc)).
		Bytes()
}

// DecodeBlockRLP decodes a block encoded by EncodeRLP.
func DecodeBlockRLP(enc []byte) (*Block, error) {
	item, n, err := rlp.Decode(enc)
	if err != nil {
		return nil, err
	}
	if n != len(enc) {
		return nil, fmt.Errorf("rlp: %d trailing bytes", len(enc)-n)
	}
	if !item.IsList || len(item.List) != 4 {
		return nil, fmt.Errorf("rlp: block expects 4 fields, got %d", len(item.List))
	}
	headerRaw, err := rlp.Reencode(item.List[0])
	if err != nil {
		return nil, err
	}
	header, err := DecodeHeaderRLP(headerRaw)
	if err != nil {
		return nil, err
	}

	var body Body
	if !item.List[1].IsList {
		return nil, fmt.Errorf("rlp: block transactions field is not a list")
	}
	for _, sub := range item.List[1].List {
		tx, err := DecodeTransactionFromItem(sub)
		if err != nil {
			return nil, err
		}
		body.Transactions = append(body.Transactions, tx)
	}
	if !item.List[2].IsList {
		return nil, fmt.Errorf("rlp: block withdrawals field is not a list")
	}
	for _, sub := range item.List[2].List {
		w, err := DecodeWithdrawalRLP(sub)
		if err != nil {
			return nil, err
		}
		body.Withdrawals = append(body.Withdrawals, w)
	}
	if !item.List[3].IsList {
		return nil, fmt.Errorf("rlp: block uncles field is not a list")
	}
	for _, sub := range item.List[3].List {
		raw, err := rlp.Reencode(sub)
		if err != nil {
			return nil, err
		}
		uncle, err := DecodeHeaderRLP(raw)
		if err != nil {
			return nil, err
		}
		body.Uncles = append(body.Uncles, uncle)
	}

	return NewBlock(header, body), nil
}

// EncodeTransactionsRLP builds the flat transactions-list encoding a
// block body carries: a legacy transaction is spliced in as its own raw
// RLP list (MarshalBinary already returns one), a typed transaction is
// embedded as the RLP string MarshalBinary produces (type byte followed
// by the payload's RLP encoding).
func EncodeTransactionsRLP(txs []*Transaction) ([]byte, error) {
	l := rlp.NewList()
	for _, tx := range txs {
		enc, err := tx.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if tx.Type() == LegacyTxType {
			l.Add(rlp.RawValue(enc))
		} else {
			l.Add(enc)
		}
	}
	return l.Bytes()
}

// Package model holds the chain and projection types shared by the indexer packages.
package model

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the timestamp format used by steemd.
const TimeLayout = "2006-01-02T15:04:05"

// ZeroHash is the previous hash of the genesis block.
var ZeroHash = strings.Repeat("0", 40)

// ErrInvalidBlockID is returned for block ids that do not encode a height.
var ErrInvalidBlockID = errors.New("invalid block id")

// HeightFromID derives the block height from the first four bytes of a block id.
func HeightFromID(id string) (uint64, error) {
	if len(id) < 8 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidBlockID, id)
	}
	prefix, err := hex.DecodeString(id[:8])
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidBlockID, id, err)
	}
	return uint64(binary.BigEndian.Uint32(prefix)), nil
}

// Time is a UTC timestamp in steemd's zone-less format.
type Time struct {
	time.Time
}

// ParseTime parses a steemd timestamp.
func ParseTime(s string) (Time, error) {
	t, err := time.ParseInLocation(TimeLayout, strings.TrimSuffix(s, "Z"), time.UTC)
	if err != nil {
		return Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return Time{Time: t}, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Time) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode time: %w", err)
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(TimeLayout))
}

// Block is a signed block as returned by block_api.get_block.
// Num is derived from ID and never read from the payload.
type Block struct {
	Num          uint64        `json:"-"`
	ID           string        `json:"block_id"`
	Previous     string        `json:"previous"`
	Timestamp    Time          `json:"timestamp"`
	Witness      string        `json:"witness"`
	Transactions []Transaction `json:"transactions"`

	// Raw keeps the payload the block was decoded from.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes a block and derives its height.
func (b *Block) UnmarshalJSON(data []byte) error {
	type plain Block
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	num, err := HeightFromID(decoded.ID)
	if err != nil {
		return err
	}
	*b = Block(decoded)
	b.Num = num
	b.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// OperationCount sums the operations of all transactions.
func (b *Block) OperationCount() int {
	n := 0
	for _, tx := range b.Transactions {
		n += len(tx.Operations)
	}
	return n
}

// Record returns the persisted form of the block.
func (b *Block) Record() BlockRecord {
	return BlockRecord{
		Num:       b.Num,
		Hash:      b.ID,
		Prev:      b.Previous,
		TxCount:   len(b.Transactions),
		OpCount:   b.OperationCount(),
		CreatedAt: b.Timestamp.Time,
	}
}

// Transaction is a signed transaction inside a block.
type Transaction struct {
	RefBlockNum    uint32      `json:"ref_block_num"`
	RefBlockPrefix uint32      `json:"ref_block_prefix"`
	Expiration     Time        `json:"expiration"`
	Operations     []Operation `json:"-"`
}

// UnmarshalJSON decodes a transaction and its tagged operations.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		RefBlockNum    uint32            `json:"ref_block_num"`
		RefBlockPrefix uint32            `json:"ref_block_prefix"`
		Expiration     *Time             `json:"expiration"`
		Operations     []json.RawMessage `json:"operations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ops := make([]Operation, 0, len(raw.Operations))
	for i, rawOp := range raw.Operations {
		op, err := DecodeOperation(rawOp)
		if err != nil {
			return fmt.Errorf("operation %d: %w", i, err)
		}
		ops = append(ops, op)
	}
	tx.RefBlockNum = raw.RefBlockNum
	tx.RefBlockPrefix = raw.RefBlockPrefix
	if raw.Expiration != nil {
		tx.Expiration = *raw.Expiration
	}
	tx.Operations = ops
	return nil
}

// BlockRecord is a row of hive_blocks.
type BlockRecord struct {
	Num       uint64
	Hash      string
	Prev      string
	TxCount   int
	OpCount   int
	CreatedAt time.Time
}

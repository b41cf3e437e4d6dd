package database

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"
)

// GenesisPreviousHash is the previous hash recorded in the genesis block.
const GenesisPreviousHash = "0"

// yieldEvery is the number of attempts between voluntary yields of the
// proof of work loop.
const yieldEvery = 1_000

// ErrNonceExhausted is returned when every nonce value has been tried
// without solving the puzzle.
var ErrNonceExhausted = errors.New("nonce space exhausted")

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	Index        uint64 `json:"index"`        // Position in the chain, genesis is 0.
	TimeStamp    int64  `json:"timestamp"`    // Unix milliseconds the block was created.
	Transactions []Tx   `json:"transactions"` // Transactions in the order they were pooled.
	PreviousHash string `json:"previousHash"` // Hash of the previous block in the chain.
	Hash         string `json:"hash"`         // Stored hash for this block.
	Nonce        uint64 `json:"nonce"`        // Value identified to solve the hash solution.
	Difficulty   int    `json:"difficulty"`   // Number of leading 0's the hash needed at mining.
}

// hashData is the canonical subset of block fields that is hashed. The
// difficulty and the hash itself are excluded.
type hashData struct {
	Index        uint64 `json:"index"`
	TimeStamp    int64  `json:"timestamp"`
	Transactions []Tx   `json:"transactions"`
	PreviousHash string `json:"previousHash"`
	Nonce        uint64 `json:"nonce"`
}

// NewGenesisBlock constructs the first block of a chain with its hash
// already calculated.
func NewGenesisBlock(difficulty int, now time.Time) Block {
	b := Block{
		Index:        0,
		TimeStamp:    now.UnixMilli(),
		Transactions: []Tx{},
		PreviousHash: GenesisPreviousHash,
		Nonce:        0,
		Difficulty:   difficulty,
	}
	b.Hash = b.CalculateHash()

	return b
}

// CalculateHash returns the lowercase hex SHA-256 of the canonical JSON
// form of the block. An empty string is returned when the block can't be
// encoded, use Digest to see the reason.
func (b Block) CalculateHash() string {
	hash, err := b.Digest()
	if err != nil {
		return ""
	}

	return hash
}

// Digest returns the lowercase hex SHA-256 of the canonical JSON form of
// the block or the error that kept the block from being encoded.
func (b Block) Digest() (string, error) {
	trans := b.Transactions
	if trans == nil {
		trans = []Tx{}
	}

	data, err := marshal(hashData{
		Index:        b.Index,
		TimeStamp:    b.TimeStamp,
		Transactions: trans,
		PreviousHash: b.PreviousHash,
		Nonce:        b.Nonce,
	}, "")
	if err != nil {
		return "", fmt.Errorf("encoding block %d: %w", b.Index, err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// MarshalChain renders the blocks as JSON indented with two spaces.
func MarshalChain(blocks []Block) ([]byte, error) {
	if blocks == nil {
		blocks = []Block{}
	}

	return marshal(blocks, "  ")
}

// marshal encodes the value without escaping HTML characters so addresses
// hash and export exactly as they were entered.
func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Clone returns a copy of the block that shares no memory with the original.
func (b Block) Clone() Block {
	trans := make([]Tx, len(b.Transactions))
	copy(trans, b.Transactions)
	b.Transactions = trans

	return b
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Miner        string
	Difficulty   int
	MiningReward float64
	PrevBlock    Block
	Trans        []Tx
	Now          time.Time
	Progress     func(nonce uint64)
	EvHandler    func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	if args.EvHandler == nil {
		args.EvHandler = func(v string, args ...any) {}
	}
	if args.Now.IsZero() {
		args.Now = time.Now()
	}

	// The pending transactions come first and the reward is always last.
	trans := make([]Tx, 0, len(args.Trans)+1)
	trans = append(trans, args.Trans...)
	trans = append(trans, NewRewardTx(args.Miner, args.MiningReward, args.Now))

	nb := Block{
		Index:        args.PrevBlock.Index + 1,
		TimeStamp:    args.Now.UnixMilli(),
		Transactions: trans,
		PreviousHash: args.PrevBlock.Hash,
		Nonce:        0,
		Difficulty:   args.Difficulty,
	}

	if err := nb.performPOW(ctx, args.Progress, args.EvHandler); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, progress func(nonce uint64), ev func(v string, args ...any)) error {
	ev("database: PerformPOW: MINING: started: blk[%d]: difficulty[%d]", b.Index, b.Difficulty)
	defer ev("database: PerformPOW: MINING: completed: blk[%d]", b.Index)

	for _, tx := range b.Transactions {
		ev("database: PerformPOW: MINING: tx[%s]", tx)
	}

	for {
		hash, err := b.Digest()
		if err != nil {
			ev("database: PerformPOW: MINING: ERROR: %s", err)
			return err
		}
		b.Hash = hash

		if progress != nil {
			progress(b.Nonce)
		}

		if IsHashSolved(b.Difficulty, b.Hash) {
			ev("database: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", b.PreviousHash, b.Hash, b.Nonce)
			return nil
		}

		if b.Nonce == math.MaxUint64 {
			return ErrNonceExhausted
		}
		b.Nonce++

		// Give the rest of the program a chance to run and see if we
		// were asked to stop.
		if b.Nonce%yieldEvery == 0 {
			runtime.Gosched()

			if ctx.Err() != nil {
				ev("database: PerformPOW: MINING: CANCELLED: nonce[%d]", b.Nonce)
				return ctx.Err()
			}
		}
	}
}

// =============================================================================

// IsHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func IsHashSolved(difficulty int, hash string) bool {
	if difficulty <= 0 {
		return true
	}

	if len(hash) < difficulty {
		return false
	}

	return hash[:difficulty] == strings.Repeat("0", difficulty)
}

// LeadingZeros counts the leading '0' characters in a hex hash.
func LeadingZeros(hash string) int {
	return len(hash) - len(strings.TrimLeft(hash, "0"))
}

// EstimateProgress turns a nonce into a rough percentage of the expected
// search for the difficulty. The value never reaches 100 before the block
// is actually solved.
func EstimateProgress(nonce uint64, difficulty int) float64 {
	expected := math.Pow(16, float64(difficulty))
	return math.Min(float64(nonce)/expected*100, 99)
}

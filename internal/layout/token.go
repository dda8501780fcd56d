package layout

import (
	"github.com/gagliardetto/solana-go"
)

// SPL token layouts.
const (
	TokenAccountSize = 165
	MintSize         = 82

	// Token-2022 mint extensions: account type byte, then TLV entries.
	Token2022AccountTypeOffset = 165
	Token2022AccountTypeMint   = 1
	Token2022TLVOffset         = 166
	ExtTransferFeeConfig       = 1
	TransferFeeConfigLen       = 108
)

// Token2022ProgramID is the Token Extensions program.
var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// TokenAccount is the part of an SPL token account the adapters read.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// DecodeTokenAccount decodes an SPL or Token-2022 token account.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	r, err := newReader(data, TokenAccountSize, "TokenAccount")
	if err != nil {
		return nil, err
	}
	a := &TokenAccount{
		Mint:   r.pubkey(0),
		Owner:  r.pubkey(32),
		Amount: r.u64(64),
	}
	return a, r.err
}

// TransferFee is one epoch-scoped Token-2022 transfer fee.
type TransferFee struct {
	Epoch       uint64
	MaximumFee  uint64
	BasisPoints uint16
}

// Mint is an SPL mint plus its transfer fee extension, if any.
type Mint struct {
	Supply         uint64
	Decimals       uint8
	OlderFee       *TransferFee
	NewerFee       *TransferFee
	HasTransferFee bool
}

// DecodeMint decodes a mint account. Token-2022 TLV extensions other than
// TransferFeeConfig are skipped.
func DecodeMint(data []byte) (*Mint, error) {
	r, err := newReader(data, MintSize, "Mint")
	if err != nil {
		return nil, err
	}
	m := &Mint{
		Supply:   r.u64(36),
		Decimals: r.u8(44),
	}
	if r.err != nil {
		return nil, r.err
	}

	if len(data) <= Token2022TLVOffset || data[Token2022AccountTypeOffset] != Token2022AccountTypeMint {
		return m, nil
	}

	for off := Token2022TLVOffset; off+4 <= len(data); {
		typ := r.u16(off)
		length := int(r.u16(off + 2))
		val := off + 4
		if typ == 0 || val+length > len(data) {
			break
		}
		if typ == ExtTransferFeeConfig && length >= TransferFeeConfigLen {
			m.HasTransferFee = true
			m.OlderFee = &TransferFee{
				Epoch:       r.u64(val + 72),
				MaximumFee:  r.u64(val + 80),
				BasisPoints: r.u16(val + 88),
			}
			m.NewerFee = &TransferFee{
				Epoch:       r.u64(val + 90),
				MaximumFee:  r.u64(val + 98),
				BasisPoints: r.u16(val + 106),
			}
		}
		off = val + length
	}
	return m, r.err
}

// TransferFeeAt returns the fee schedule in force at epoch, or nil.
func (m *Mint) TransferFeeAt(epoch uint64) *TransferFee {
	if !m.HasTransferFee {
		return nil
	}
	if epoch >= m.NewerFee.Epoch {
		return m.NewerFee
	}
	return m.OlderFee
}

package wallet_manager

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"

	"aptos-nft-auction/chain_client"
)

// BCS enum variants used on the wire.
const (
	entryFunctionPayloadVariant = 2
	ed25519AuthenticatorVariant = 0
	userTransactionVariant      = 0
)

var (
	rawTransactionSalt = []byte("APTOS::RawTransaction")
	transactionSalt    = []byte("APTOS::Transaction")
)

var ErrUnsupportedArgument = errors.New("unsupported argument type")

// TypeTag is a BCS encoded Move type.
type TypeTag []byte

var primitiveTypeTags = map[string]byte{
	"bool":    0,
	"u8":      1,
	"u64":     2,
	"u128":    3,
	"address": 4,
	"signer":  5,
	"u16":     8,
	"u32":     9,
	"u256":    10,
}

const vectorTypeTag = 6

// ParseTypeTag handles primitives and vectors of them. Struct tags need
// the full Move type grammar and are rejected.
func ParseTypeTag(s string) (TypeTag, error) {
	s = strings.TrimSpace(s)
	if tag, ok := primitiveTypeTags[s]; ok {
		return TypeTag{tag}, nil
	}
	if strings.HasPrefix(s, "vector<") && strings.HasSuffix(s, ">") {
		inner, err := ParseTypeTag(s[len("vector<") : len(s)-1])
		if err != nil {
			return nil, err
		}
		return append(TypeTag{vectorTypeTag}, inner...), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedArgument, "type argument %q", s)
}

type EntryFunction struct {
	ModuleAddress AccountAddress
	ModuleName    string
	Function      string
	TypeArgs      []TypeTag
	// Args are the individually BCS encoded argument values.
	Args [][]byte
}

type RawTransaction struct {
	Sender                  AccountAddress
	SequenceNumber          uint64
	Payload                 EntryFunction
	MaxGasAmount            uint64
	GasUnitPrice            uint64
	ExpirationTimestampSecs uint64
	ChainID                 uint8
}

func writeBytes(enc *bin.Encoder, b []byte) error {
	if err := enc.WriteUVarInt(len(b)); err != nil {
		return err
	}
	return enc.WriteBytes(b, false)
}

func (f *EntryFunction) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteUVarInt(entryFunctionPayloadVariant); err != nil {
		return err
	}
	if err := enc.WriteBytes(f.ModuleAddress[:], false); err != nil {
		return err
	}
	if err := writeBytes(enc, []byte(f.ModuleName)); err != nil {
		return err
	}
	if err := writeBytes(enc, []byte(f.Function)); err != nil {
		return err
	}
	if err := enc.WriteUVarInt(len(f.TypeArgs)); err != nil {
		return err
	}
	for _, tag := range f.TypeArgs {
		if err := enc.WriteBytes(tag, false); err != nil {
			return err
		}
	}
	if err := enc.WriteUVarInt(len(f.Args)); err != nil {
		return err
	}
	for _, arg := range f.Args {
		if err := writeBytes(enc, arg); err != nil {
			return err
		}
	}
	return nil
}

func (tx *RawTransaction) MarshalWithEncoder(enc *bin.Encoder) error {
	if err := enc.WriteBytes(tx.Sender[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint64(tx.SequenceNumber, binary.LittleEndian); err != nil {
		return err
	}
	if err := tx.Payload.MarshalWithEncoder(enc); err != nil {
		return err
	}
	if err := enc.WriteUint64(tx.MaxGasAmount, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint64(tx.GasUnitPrice, binary.LittleEndian); err != nil {
		return err
	}
	if err := enc.WriteUint64(tx.ExpirationTimestampSecs, binary.LittleEndian); err != nil {
		return err
	}
	return enc.WriteUint8(tx.ChainID)
}

func (tx *RawTransaction) MarshalBCS() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := tx.MarshalWithEncoder(bin.NewBinEncoder(buf)); err != nil {
		return nil, errors.Wrap(err, "failed to encode raw transaction")
	}
	return buf.Bytes(), nil
}

// SigningMessage is sha3-256(salt) || bcs(raw transaction).
func (tx *RawTransaction) SigningMessage() ([]byte, error) {
	raw, err := tx.MarshalBCS()
	if err != nil {
		return nil, err
	}
	prefix := sha3.Sum256(rawTransactionSalt)
	return append(prefix[:], raw...), nil
}

// EncodeSignedTransaction appends an ed25519 authenticator to the raw
// transaction bytes.
func EncodeSignedTransaction(rawTxn, publicKey, signature []byte) ([]byte, error) {
	buf := bytes.NewBuffer(append([]byte(nil), rawTxn...))
	enc := bin.NewBinEncoder(buf)
	if err := enc.WriteUVarInt(ed25519AuthenticatorVariant); err != nil {
		return nil, err
	}
	if err := writeBytes(enc, publicKey); err != nil {
		return nil, err
	}
	if err := writeBytes(enc, signature); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TransactionHash is the hash the node reports for a signed user
// transaction.
func TransactionHash(signedTxn []byte) string {
	prefix := sha3.Sum256(transactionSalt)
	h := sha3.New256()
	h.Write(prefix[:])
	h.Write([]byte{userTransactionVariant})
	h.Write(signedTxn)
	return "0x" + hexString(h.Sum(nil))
}

// EncodeArgument returns the BCS bytes of one entry-function argument.
func EncodeArgument(arg chain_client.Argument) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBinEncoder(buf)
	var err error
	switch arg.Type {
	case chain_client.ArgAddress:
		var addr AccountAddress
		addr, err = ParseAddress(arg.Value)
		if err == nil {
			err = enc.WriteBytes(addr[:], false)
		}
	case chain_client.ArgU64:
		var n uint64
		n, err = strconv.ParseUint(arg.Value, 10, 64)
		if err == nil {
			err = enc.WriteUint64(n, binary.LittleEndian)
		}
	case chain_client.ArgU8:
		var n uint64
		n, err = strconv.ParseUint(arg.Value, 10, 8)
		if err == nil {
			err = enc.WriteUint8(uint8(n))
		}
	case chain_client.ArgBool:
		var b bool
		b, err = strconv.ParseBool(arg.Value)
		if err == nil {
			err = enc.WriteUint8(boolByte(b))
		}
	case chain_client.ArgString:
		err = writeBytes(enc, []byte(arg.Value))
	default:
		return nil, errors.Wrapf(ErrUnsupportedArgument, "%q", arg.Type)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s argument %q", arg.Type, arg.Value)
	}
	return buf.Bytes(), nil
}

// NewEntryFunction converts a wallet payload into its BCS form.
func NewEntryFunction(payload chain_client.EntryFunctionPayload) (EntryFunction, error) {
	id, err := chain_client.ParseFunctionID(payload.Function)
	if err != nil {
		return EntryFunction{}, err
	}
	moduleAddress, err := ParseAddress(id.Address)
	if err != nil {
		return EntryFunction{}, err
	}
	fn := EntryFunction{
		ModuleAddress: moduleAddress,
		ModuleName:    id.Module,
		Function:      id.Name,
	}
	for _, typeArg := range payload.TypeArguments {
		tag, err := ParseTypeTag(typeArg)
		if err != nil {
			return EntryFunction{}, err
		}
		fn.TypeArgs = append(fn.TypeArgs, tag)
	}
	for _, arg := range payload.Arguments {
		encoded, err := EncodeArgument(arg)
		if err != nil {
			return EntryFunction{}, err
		}
		fn.Args = append(fn.Args, encoded)
	}
	return fn, nil
}

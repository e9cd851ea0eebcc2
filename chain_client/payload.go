package chain_client

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type ArgumentType string

const (
	ArgAddress ArgumentType = "address"
	ArgU8      ArgumentType = "u8"
	ArgU64     ArgumentType = "u64"
	ArgBool    ArgumentType = "bool"
	ArgString  ArgumentType = "string"
)

// Argument is one typed entry-function argument. Value holds the textual
// form the node's JSON API uses.
type Argument struct {
	Type  ArgumentType
	Value string
}

func AddressArg(address string) Argument {
	return Argument{Type: ArgAddress, Value: address}
}

func U64Arg(v uint64) Argument {
	return Argument{Type: ArgU64, Value: strconv.FormatUint(v, 10)}
}

func U8Arg(v uint8) Argument {
	return Argument{Type: ArgU8, Value: strconv.FormatUint(uint64(v), 10)}
}

func BoolArg(v bool) Argument {
	return Argument{Type: ArgBool, Value: strconv.FormatBool(v)}
}

func StringArg(v string) Argument {
	return Argument{Type: ArgString, Value: v}
}

func (a Argument) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ArgBool:
		b, err := strconv.ParseBool(a.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid bool argument %q", a.Value)
		}
		return json.Marshal(b)
	case ArgU8:
		n, err := strconv.ParseUint(a.Value, 10, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid u8 argument %q", a.Value)
		}
		return json.Marshal(n)
	default:
		return json.Marshal(a.Value)
	}
}

// EntryFunctionPayload is the wallet-facing description of a transaction:
// a fully qualified function, type arguments and ordered arguments.
type EntryFunctionPayload struct {
	Function      string     `json:"function"`
	TypeArguments []string   `json:"type_arguments"`
	Arguments     []Argument `json:"arguments"`
}

// FunctionID is <address>::<module>::<name>.
type FunctionID struct {
	Address string
	Module  string
	Name    string
}

func (f FunctionID) String() string {
	return f.Address + "::" + f.Module + "::" + f.Name
}

func ParseFunctionID(function string) (FunctionID, error) {
	parts := strings.Split(function, "::")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return FunctionID{}, errors.Errorf("invalid function id %q", function)
	}
	return FunctionID{Address: parts[0], Module: parts[1], Name: parts[2]}, nil
}

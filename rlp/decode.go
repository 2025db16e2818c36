package rlp

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
)

var (
	ErrUnexpectedEOF = errors.New("rlp: unexpected end of input")
	ErrExpectedList  = errors.New("rlp: expected list")
	ErrExpectedBytes = errors.New("rlp: expected string")
	ErrCanonicalSize = errors.New("rlp: non-canonical size")
)

// Item is a decoded RLP node: either a byte string or a list of Items.
type Item struct {
	IsList   bool
	Bytes    []byte
	List     []Item
	rawStart int
	rawEnd   int
}

// Decode parses the single RLP value at the start of data and returns it
// plus the number of bytes consumed.
func Decode(data []byte) (Item, int, error) {
	if len(data) == 0 {
		return Item{}, 0, ErrUnexpectedEOF
	}
	b0 := data[0]
	switch {
	case b0 < 0x80:
		return Item{Bytes: data[0:1]}, 1, nil
	case b0 < 0xB8:
		size := int(b0 - 0x80)
		if len(data) < 1+size {
			return Item{}, 0, ErrUnexpectedEOF
		}
		if size == 1 && data[1] < 0x80 {
			return Item{}, 0, ErrCanonicalSize
		}
		return Item{Bytes: data[1 : 1+size]}, 1 + size, nil
	case b0 < 0xC0:
		lenlen := int(b0 - 0xB7)
		if len(data) < 1+lenlen {
			return Item{}, 0, ErrUnexpectedEOF
		}
		size, err := decodeLength(data[1 : 1+lenlen])
		if err != nil {
			return Item{}, 0, err
		}
		if len(data) < 1+lenlen+size {
			return Item{}, 0, ErrUnexpectedEOF
		}
		return Item{Bytes: data[1+lenlen : 1+lenlen+size]}, 1 + lenlen + size, nil
	case b0 < 0xF8:
		size := int(b0 - 0xC0)
		if len(data) < 1+size {
			return Item{}, 0, ErrUnexpectedEOF
		}
		items, err := decodeList(data[1 : 1+size])
		if err != nil {
			return Item{}, 0, err
		}
		return Item{IsList: true, List: items}, 1 + size, nil
	default:
		lenlen := int(b0 - 0xF7)
		if len(data) < 1+lenlen {
			return Item{}, 0, ErrUnexpectedEOF
		}
		size, err := decodeLength(data[1 : 1+lenlen])
		if err != nil {
			return Item{}, 0, err
		}
		if len(data) < 1+lenlen+size {
			return Item{}, 0, ErrUnexpectedEOF
		}
		items, err := decodeList(data[1+lenlen : 1+lenlen+size])
		if err != nil {
			return Item{}, 0, err
		}
		return Item{IsList: true, List: items}, 1 + lenlen + size, nil
	}
}

func decodeLength(b []byte) (int, error) {
	if len(b) > 0 && b[0] == 0 {
		return 0, ErrCanonicalSize
	}
	var n uint64
	for _, c := range b {
		n = n<<8 | uint64(c)
	}
	return int(n), nil
}

func decodeList(data []byte) ([]Item, error) {
	var items []Item
	for len(data) > 0 {
		it, n, err := Decode(data)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		data = data[n:]
	}
	return items, nil
}

// DecodeBytes parses exactly one RLP value from data into val, which must be
// a pointer. It errors if trailing bytes remain.
func DecodeBytes(data []byte, val interface{}) error {
	item, n, err := Decode(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return fmt.Errorf("rlp: %d trailing bytes", len(data)-n)
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("rlp: DecodeBytes requires a non-nil pointer")
	}
	return assign(item, rv.Elem())
}

func assign(item Item, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Ptr:
		elem := reflect.New(v.Type().Elem())
		if err := assign(item, elem.Elem()); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	case reflect.Bool:
		if item.IsList {
			return ErrExpectedBytes
		}
		v.SetBool(len(item.Bytes) != 0 && item.Bytes[0] != 0)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if item.IsList {
			return ErrExpectedBytes
		}
		if len(item.Bytes) > 8 {
			return fmt.Errorf("rlp: uint overflow, %d bytes", len(item.Bytes))
		}
		var n uint64
		for _, c := range item.Bytes {
			n = n<<8 | uint64(c)
		}
		if len(item.Bytes) > 0 && item.Bytes[0] == 0 {
			return ErrCanonicalSize
		}
		v.SetUint(n)
		return nil
	case reflect.String:
		if item.IsList {
			return ErrExpectedBytes
		}
		v.SetString(string(item.Bytes))
		return nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if item.IsList {
				return ErrExpectedBytes
			}
			v.SetBytes(append([]byte(nil), item.Bytes...))
			return nil
		}
		if !item.IsList {
			return ErrExpectedList
		}
		s := reflect.MakeSlice(v.Type(), len(item.List), len(item.List))
		for i, sub := range item.List {
			if err := assign(sub, s.Index(i)); err != nil {
				return err
			}
		}
		v.Set(s)
		return nil
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			if item.IsList {
				return ErrExpectedBytes
			}
			reflect.Copy(v, reflect.ValueOf(item.Bytes))
			return nil
		}
		if !item.IsList {
			return ErrExpectedList
		}
		for i := 0; i < v.Len() && i < len(item.List); i++ {
			if err := assign(item.List[i], v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		if v.Type() == reflect.TypeOf(big.Int{}) {
			if item.IsList {
				return ErrExpectedBytes
			}
			var bi big.Int
			bi.SetBytes(item.Bytes)
			v.Set(reflect.ValueOf(bi))
			return nil
		}
		if !item.IsList {
			return ErrExpectedList
		}
		t := v.Type()
		fi := 0
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" || f.Tag.Get("rlp") == "-" {
				continue
			}
			if fi >= len(item.List) {
				return fmt.Errorf("rlp: too few list elements for %s", t.Name())
			}
			if err := assign(item.List[fi], v.Field(i)); err != nil {
				return err
			}
			fi++
		}
		return nil
	case reflect.Interface:
		if v.NumMethod() == 0 {
			// *big.Int special-case: caller's field type is *big.Int directly
			// handled above via Ptr->Struct path; generic interface{} decodes
			// to raw bytes or []interface{}.
			if item.IsList {
				out := make([]interface{}, len(item.List))
				for i, sub := range item.List {
					var x interface{}
					if sub.IsList {
						x = sub.List
					} else {
						x = sub.Bytes
					}
					out[i] = x
				}
				v.Set(reflect.ValueOf(out))
				return nil
			}
			v.Set(reflect.ValueOf(append([]byte(nil), item.Bytes...)))
			return nil
		}
		return fmt.Errorf("rlp: cannot decode into interface %s", v.Type())
	default:
		if v.Type() == reflect.TypeOf((*big.Int)(nil)) {
			bi := new(big.Int).SetBytes(item.Bytes)
			v.Set(reflect.ValueOf(bi))
			return nil
		}
		return fmt.Errorf("rlp: unsupported kind %s", v.Kind())
	}
}

// SplitList decodes the outermost list into its raw child encodings, used by
// the trie package to walk branch-node children without recursively
// allocating structs.
func SplitList(data []byte) ([][]byte, error) {
	item, n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if !item.IsList {
		return nil, ErrExpectedList
	}
	if n != len(data) {
		return nil, fmt.Errorf("rlp: %d trailing bytes", len(data)-n)
	}
	out := make([][]byte, len(item.List))
	for i, sub := range item.List {
		raw, err := reencode(sub)
		if err != nil {
			return nil, err
		}
		out[i] = raw
	}
	return out, nil
}

// Reencode serialises an already-decoded Item back into its canonical RLP
// bytes. Decode discards the raw byte ranges of nested items, so a caller
// holding only a sub-item (e.g. one entry of a decoded list) needs this to
// recover bytes it can hand to a type-specific decoder.
func Reencode(item Item) ([]byte, error) { return reencode(item) }

func reencode(item Item) ([]byte, error) {
	if !item.IsList {
		var buf []byte
		if len(item.Bytes) == 1 && item.Bytes[0] < 0x80 {
			buf = item.Bytes
		} else {
			b, err := EncodeToBytes(item.Bytes)
			if err != nil {
				return nil, err
			}
			buf = b
		}
		return buf, nil
	}
	enc := NewList()
	for _, sub := range item.List {
		raw, err := reencode(sub)
		if err != nil {
			return nil, err
		}
		enc.Add(RawValue(raw))
	}
	return enc.Bytes()
}

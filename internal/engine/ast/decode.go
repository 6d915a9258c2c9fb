package ast

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// Decode reads one JSON encoded tree. Nodes are objects with "kind", "flags",
// "lineno", "endLineno", "docComment" and "children"; children is either an
// object (named slots, order preserved) or an array (positional slots).
// Kinds may be given as AST_* names or as numbers.
func Decode(r io.Reader) (*Node, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	n, ok := v.(*Node)
	if !ok {
		return nil, fmt.Errorf("decode tree: root is not a node")
	}
	return n, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if t == '{' {
			return decodeNode(dec)
		}
		return nil, fmt.Errorf("decode tree: unexpected %q", t)
	case json.Number:
		return numberValue(t), nil
	case string, bool, nil:
		return t, nil
	}
	return nil, fmt.Errorf("decode tree: unexpected token %v", tok)
}

func decodeNode(dec *json.Decoder) (*Node, error) {
	n := &Node{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		switch key {
		case "kind":
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			if n.Kind, err = kindValue(v); err != nil {
				return nil, err
			}
		case "flags":
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			i, _ := v.(int64)
			n.Flags = Flags(i)
		case "lineno":
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			i, _ := v.(int64)
			n.Lineno = int(i)
		case "endLineno":
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			i, _ := v.(int64)
			n.EndLineno = int(i)
		case "docComment":
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			n.DocComment, _ = v.(string)
		case "children":
			if err := decodeChildren(dec, n); err != nil {
				return nil, err
			}
		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeChildren(dec *json.Decoder, n *Node) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return fmt.Errorf("decode tree: children of %s must be an object or array", n.Kind)
	}
	switch delim {
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			name, _ := keyTok.(string)
			v, err := decodeChild(dec)
			if err != nil {
				return err
			}
			n.Children.Set(name, v)
		}
	case '[':
		for i := 0; dec.More(); i++ {
			v, err := decodeChild(dec)
			if err != nil {
				return err
			}
			n.Children.Set(strconv.Itoa(i), v)
		}
	default:
		return fmt.Errorf("decode tree: unexpected %q in children", delim)
	}
	_, err = dec.Token()
	return err
}

func decodeChild(dec *json.Decoder) (any, error) {
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if n, ok := v.(*Node); ok && n == nil {
		return nil, nil
	}
	return v, nil
}

func kindValue(v any) (Kind, error) {
	switch k := v.(type) {
	case string:
		kind, ok := ParseKind(k)
		if !ok {
			return KindUnknown, fmt.Errorf("decode tree: unknown node kind %q", k)
		}
		return kind, nil
	case int64:
		return Kind(k), nil
	}
	return KindUnknown, fmt.Errorf("decode tree: invalid kind %v", v)
}

func numberValue(num json.Number) any {
	if i, err := num.Int64(); err == nil {
		return i
	}
	if f, err := num.Float64(); err == nil {
		return f
	}
	return num.String()
}

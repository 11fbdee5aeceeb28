package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Rolling is the in-memory copy of the rolling map: symbol nodes keyed by upper-case
// ticker plus every other top-level key (reserved "_" keys, undecodable entries)
// preserved verbatim.
type Rolling struct {
	Symbols map[string]*SymbolNode
	Other   map[string]json.RawMessage
}

func NewRolling() *Rolling {
	return &Rolling{
		Symbols: make(map[string]*SymbolNode),
		Other:   make(map[string]json.RawMessage),
	}
}

// IsReservedKey reports whether key is a global (non-symbol) record.
func IsReservedKey(key string) bool {
	return strings.HasPrefix(key, "_")
}

// UnmarshalJSON folds symbol keys to upper case. When several keys fold to the same
// symbol the exact upper-case key owns it (otherwise the first in sorted order) and
// the others are kept verbatim in Other.
func (r *Rolling) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ei, ej := isCanonicalSymbol(keys[i]), isCanonicalSymbol(keys[j])
		if ei != ej {
			return ei
		}
		return keys[i] < keys[j]
	})

	out := NewRolling()
	for _, key := range keys {
		v := raw[key]
		sym := strings.ToUpper(strings.TrimSpace(key))
		if IsReservedKey(key) || sym == "" {
			out.Other[key] = v
			continue
		}
		_, taken := out.Symbols[sym]
		_, shadowed := out.Other[sym]
		if taken || shadowed {
			out.Other[key] = v
			continue
		}
		var node SymbolNode
		if err := json.Unmarshal(v, &node); err != nil {
			out.Other[key] = v
			continue
		}
		if node.Symbol == "" || !strings.EqualFold(node.Symbol, sym) {
			node.Symbol = sym
		}
		out.Symbols[sym] = &node
	}
	*r = *out
	return nil
}

func isCanonicalSymbol(key string) bool {
	return key == strings.ToUpper(strings.TrimSpace(key))
}

func (r Rolling) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(r.Symbols)+len(r.Other))
	for k, v := range r.Other {
		out[k] = v
	}
	for sym, node := range r.Symbols {
		b, err := json.Marshal(node)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", sym, err)
		}
		out[sym] = b
	}
	return json.Marshal(out)
}

// SortedSymbols returns the symbol keys in ascending order.
func (r *Rolling) SortedSymbols() []string {
	out := make([]string, 0, len(r.Symbols))
	for sym := range r.Symbols {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// SetGlobal stores g under the reserved global key.
func (r *Rolling) SetGlobal(g GlobalState) error {
	b, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal global: %w", err)
	}
	if r.Other == nil {
		r.Other = make(map[string]json.RawMessage)
	}
	r.Other[GlobalKey] = b
	return nil
}

// Global decodes the reserved global record, if present.
func (r *Rolling) Global() (GlobalState, bool) {
	var g GlobalState
	raw, ok := r.Other[GlobalKey]
	if !ok {
		return g, false
	}
	if err := json.Unmarshal(raw, &g); err != nil {
		return g, false
	}
	return g, true
}

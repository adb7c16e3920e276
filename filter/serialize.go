package filter

import (
	"encoding/json"

	"github.com/cespare/xxhash/v2"
)

// ToMap serializes an AST into nested maps mirroring the node tags and
// children recursively. The output is used for audit trails, debug
// inspection and cache keys; for a given expression it is deterministic
// across calls.
func ToMap(n Node) map[string]interface{} {
	switch node := n.(type) {
	case *ColumnNode:
		return map[string]interface{}{
			"type": "column",
			"name": node.Name,
		}
	case *LiteralNode:
		return map[string]interface{}{
			"type":  "literal",
			"kind":  node.Kind.String(),
			"value": node.Value,
		}
	case *BinaryNode:
		return map[string]interface{}{
			"type":  "binary",
			"op":    node.Op.String(),
			"left":  ToMap(node.Left),
			"right": ToMap(node.Right),
		}
	case *UnaryNode:
		return map[string]interface{}{
			"type":    "not",
			"operand": ToMap(node.Operand),
		}
	case *InNode:
		return map[string]interface{}{
			"type":   "in",
			"column": node.Column,
			"values": node.Values,
			"negate": node.Negate,
		}
	case *BetweenNode:
		return map[string]interface{}{
			"type":   "between",
			"column": node.Column,
			"lower":  node.Lower,
			"upper":  node.Upper,
		}
	case *LikeNode:
		return map[string]interface{}{
			"type":    "like",
			"column":  node.Column,
			"pattern": node.Pattern,
			"negate":  node.Negate,
		}
	case *IsNullNode:
		return map[string]interface{}{
			"type":   "is_null",
			"column": node.Column,
			"negate": node.Negate,
		}
	default:
		return nil
	}
}

// Hash returns a stable content hash of the AST, suitable for deduplicating
// identical expressions in advisory caches. encoding/json sorts map keys,
// so the encoded form is canonical.
func Hash(n Node) uint64 {
	if n == nil {
		return 0
	}
	data, err := json.Marshal(ToMap(n))
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

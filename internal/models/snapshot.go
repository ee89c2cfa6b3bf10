package models

import (
	"fmt"
	"strconv"
	"strings"
)

// SnapshotLine is one captured (product, quantity) pair.
type SnapshotLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Snapshot is the ordered list of (product, quantity) pairs frozen into an
// order at checkout. Order is the cart's insertion order and must survive a
// round trip through the storage encoding.
type Snapshot []SnapshotLine

// Encode renders the snapshot in the stored wire form "pid:qty,pid:qty".
// The format is external: existing order rows depend on it.
func (s Snapshot) Encode() string {
	if len(s) == 0 {
		return ""
	}

	parts := make([]string, len(s))
	for i, line := range s {
		parts[i] = fmt.Sprintf("%d:%d", line.ProductID, line.Quantity)
	}
	return strings.Join(parts, ",")
}

// DecodeSnapshot parses the stored wire form back into the same ordered
// pairs. The empty string decodes to an empty snapshot.
func DecodeSnapshot(encoded string) (Snapshot, error) {
	if encoded == "" {
		return Snapshot{}, nil
	}

	parts := strings.Split(encoded, ",")
	snapshot := make(Snapshot, 0, len(parts))
	for _, part := range parts {
		pid, qty, found := strings.Cut(part, ":")
		if !found {
			return nil, fmt.Errorf("malformed snapshot entry %q", part)
		}

		productID, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse product id %q: %w", pid, err)
		}

		quantity, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("parse quantity %q: %w", qty, err)
		}
		if quantity < 1 {
			return nil, fmt.Errorf("quantity %d out of range in entry %q", quantity, part)
		}

		snapshot = append(snapshot, SnapshotLine{ProductID: productID, Quantity: quantity})
	}

	return snapshot, nil
}

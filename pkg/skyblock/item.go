package skyblock

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Rarity is the tier of an auctioned item.
type Rarity string

// Known rarities. The API introduces new tiers from time to time; unknown
// values decode without error and report Valid() == false.
const (
	RarityCommon    Rarity = "COMMON"
	RarityUncommon  Rarity = "UNCOMMON"
	RarityRare      Rarity = "RARE"
	RarityEpic      Rarity = "EPIC"
	RarityLegendary Rarity = "LEGENDARY"
	RarityArtifact  Rarity = "ARTIFACT"
	RaritySpecial   Rarity = "SPECIAL"
)

// Valid reports whether r is one of the known rarities.
func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic,
		RarityLegendary, RarityArtifact, RaritySpecial:
		return true
	}
	return false
}

// Item describes the item being auctioned.
type Item struct {
	// Name excludes Minecraft colour codes.
	Name string `json:"item_name"`
	// Lore includes Minecraft colour codes.
	Lore string `json:"item_lore"`
	// Count is only sent by some endpoints; see StackCount.
	Count *int8 `json:"item_count,omitempty"`
	// Extra aids text search: enchants plus the Minecraft item name.
	Extra    string    `json:"extra"`
	Category string    `json:"category"`
	Tier     Rarity    `json:"tier"`
	Bytes    ItemBytes `json:"item_bytes"`
}

// StackCount returns the number of items in the stack, taken from Count when
// the API sent it and from the item's NBT otherwise. ok is false when
// neither source is available.
func (i *Item) StackCount() (count int8, ok bool) {
	if i.Count != nil {
		return *i.Count, true
	}

	tag, err := i.NBT()
	if err != nil || len(tag.Items) == 0 {
		return 0, false
	}
	return tag.Items[0].Count, true
}

// ErrNoItemBytes is returned when an item carries no encoded metadata.
var ErrNoItemBytes = errors.New("item has no encoded bytes")

// ItemBytes holds an item's base64 encoded, gzip compressed NBT.
//
// The "auctions" endpoint sends a bare string while "auction" wraps it as
// {"type":0,"data":"..."}. Both decode into Data; Tagged remembers the
// wrapped form so encoding reproduces the original shape.
type ItemBytes struct {
	Data   string
	Tagged bool
}

type taggedItemBytes struct {
	Type json.RawMessage `json:"type"`
	Data string          `json:"data"`
}

// UnmarshalJSON accepts both wire shapes.
func (b *ItemBytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = ItemBytes{}
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode item bytes: %w", err)
		}
		*b = ItemBytes{Data: s}
		return nil
	}

	var tagged taggedItemBytes
	if err := json.Unmarshal(data, &tagged); err != nil {
		return fmt.Errorf("decode item bytes: %w", err)
	}
	*b = ItemBytes{Data: tagged.Data, Tagged: true}
	return nil
}

// MarshalJSON writes the shape the value was decoded from.
func (b ItemBytes) MarshalJSON() ([]byte, error) {
	if b.Tagged {
		return json.Marshal(taggedItemBytes{Type: json.RawMessage("0"), Data: b.Data})
	}
	return json.Marshal(b.Data)
}

// Raw decodes the base64 payload and decompresses it, returning the binary
// NBT document.
func (b ItemBytes) Raw() ([]byte, error) {
	if b.Data == "" {
		return nil, ErrNoItemBytes
	}

	compressed, err := base64.StdEncoding.DecodeString(b.Data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompress item bytes: %w", err)
	}
	return raw, nil
}

package skyblock

import (
	"fmt"

	"github.com/Tnze/go-mc/nbt"
)

// ItemNBT is the subset of an item's NBT document the client understands.
// The root compound holds a list "i" with one entry per stack.
type ItemNBT struct {
	Items []ItemStack `nbt:"i"`
}

// ItemStack is one entry of the "i" list.
type ItemStack struct {
	ID     int16   `nbt:"id"`
	Count  int8    `nbt:"Count"`
	Damage int16   `nbt:"Damage"`
	Tag    ItemTag `nbt:"tag"`
}

// ItemTag carries display data and SkyBlock attributes.
type ItemTag struct {
	Display         ItemDisplay     `nbt:"display"`
	ExtraAttributes ExtraAttributes `nbt:"ExtraAttributes"`
}

// ItemDisplay is the Minecraft display compound.
type ItemDisplay struct {
	Name string   `nbt:"Name"`
	Lore []string `nbt:"Lore"`
}

// ExtraAttributes is the SkyBlock specific compound.
type ExtraAttributes struct {
	ID           string           `nbt:"id"`
	UUID         string           `nbt:"uuid"`
	Enchantments map[string]int32 `nbt:"enchantments"`
}

// NBT decodes the item's metadata.
func (i *Item) NBT() (*ItemNBT, error) {
	raw, err := i.Bytes.Raw()
	if err != nil {
		return nil, err
	}

	var tag ItemNBT
	if err := nbt.Unmarshal(raw, &tag); err != nil {
		return nil, fmt.Errorf("decode item nbt: %w", err)
	}
	return &tag, nil
}

// SkyBlockID returns the SkyBlock item id (for example "ASPECT_OF_THE_DRAGON")
// of the first stack, or "" when it cannot be read.
func (i *Item) SkyBlockID() string {
	tag, err := i.NBT()
	if err != nil || len(tag.Items) == 0 {
		return ""
	}
	return tag.Items[0].Tag.ExtraAttributes.ID
}

package entity

import "slices"

type House string

const (
	HousePhoenix House = "phoenix"
	HouseGriffin House = "griffin"
	HouseDragon  House = "dragon"
	HouseKraken  House = "kraken"
)

// Houses lists every house in a stable order.
var Houses = []House{HouseDragon, HouseGriffin, HouseKraken, HousePhoenix}

func (h House) Valid() bool {
	return slices.Contains(Houses, h)
}

func (h House) String() string {
	return string(h)
}

package card

import "strings"

// Rarity is the printed rarity of a card.
type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityMythic   Rarity = "mythic"
)

// Rank orders rarities from common (1) to mythic (4). Unknown rarities rank 0.
func (r Rarity) Rank() int {
	switch r {
	case RarityCommon:
		return 1
	case RarityUncommon:
		return 2
	case RarityRare:
		return 3
	case RarityMythic:
		return 4
	default:
		return 0
	}
}

// Color is one of the five mana colors.
type Color string

const (
	ColorWhite Color = "W"
	ColorBlue  Color = "U"
	ColorBlack Color = "B"
	ColorRed   Color = "R"
	ColorGreen Color = "G"
)

// AllColors lists colors in WUBRG order.
var AllColors = []Color{ColorWhite, ColorBlue, ColorBlack, ColorRed, ColorGreen}

// Card is an immutable reference to a printed card. The draft engine moves and
// counts cards but only looks at rarity and mana cost.
type Card struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Colors       []Color `json:"colors,omitempty"`
	ManaCost     string  `json:"mana_cost,omitempty"`
	CMC          int     `json:"cmc"`
	Rarity       Rarity  `json:"rarity"`
	ImageURI     string  `json:"image_uri,omitempty"`
	BackImageURI string  `json:"back_image_uri,omitempty"`
}

// ColorSymbols counts colored mana symbols in the card's mana cost.
// Hybrid symbols such as {W/U} count once for each color they name.
func (c Card) ColorSymbols() map[Color]int {
	out := make(map[Color]int, len(AllColors))
	cost := strings.ToUpper(c.ManaCost)
	for {
		open := strings.IndexByte(cost, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(cost[open:], '}')
		if end < 0 {
			break
		}
		symbol := cost[open+1 : open+end]
		for _, color := range AllColors {
			if strings.Contains(symbol, string(color)) {
				out[color]++
			}
		}
		cost = cost[open+end+1:]
	}

	return out
}

// CountColorSymbols sums colored mana symbols across cards.
func CountColorSymbols(cards []Card) map[Color]int {
	out := make(map[Color]int, len(AllColors))
	for _, c := range cards {
		for color, n := range c.ColorSymbols() {
			out[color] += n
		}
	}

	return out
}

// IndexOf returns the position of the card with id in cards, or -1.
func IndexOf(cards []Card, id string) int {
	for i := range cards {
		if cards[i].ID == id {
			return i
		}
	}

	return -1
}

// Remove returns a copy of cards without the element at index, keeping order.
func Remove(cards []Card, index int) []Card {
	out := make([]Card, 0, len(cards)-1)
	out = append(out, cards[:index]...)
	return append(out, cards[index+1:]...)
}

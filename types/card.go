package types

// CardValue is one of the selectable estimation cards.
type CardValue string

// CardX is the special non-numeric card, it sorts after all numeric cards.
const CardX CardValue = "X"

// CardValues is the full deck in display order.
var CardValues = []CardValue{"1", "2", "3", "5", "8", "13", "20", CardX}

var cardRank = map[CardValue]int{
	"1":   1,
	"2":   2,
	"3":   3,
	"5":   5,
	"8":   8,
	"13":  13,
	"20":  20,
	CardX: 99,
}

// noCardRank places players without a selection after every carded player.
const noCardRank = 999

// Rank returns the position of a selection in the reveal order. A nil
// selection ranks last.
func Rank(card *CardValue) int {
	if card == nil {
		return noCardRank
	}
	if r, ok := cardRank[*card]; ok {
		return r
	}
	return noCardRank
}

// IsValidCard reports whether card is part of the deck.
func IsValidCard(card CardValue) bool {
	_, ok := cardRank[card]
	return ok
}

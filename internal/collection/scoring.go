package collection

import "strings"

var rarityWeights = map[string]int{
	"common":    1,
	"uncommon":  2,
	"rare":      3,
	"epic":      4,
	"very rare": 4,
	"legendary": 5,
}

// RarityWeight is the score contribution of one plate. Unknown or missing
// rarity counts as 1.
func RarityWeight(rarity string) int {
	if w, ok := rarityWeights[strings.ToLower(strings.TrimSpace(rarity))]; ok {
		return w
	}
	return 1
}

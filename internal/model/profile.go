package model

// Tier is the subscription level recorded on a profile.
type Tier string

const (
	TierFree Tier = "free"
	TierPaid Tier = "paid"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t == TierFree || t == TierPaid
}

// UserProfile is the per-principal document in the users collection.
//
// VocabIDs is the ownership index: a deck belongs to the user exactly when its
// id appears here. Decks carry no owner field. The list is only ever changed
// with the store's atomic array union/remove.
type UserProfile struct {
	ID             string   `json:"-"`
	VocabIDs       []string `json:"vocabIDs"`
	NativeLanguage string   `json:"nativeLanguage"`
	Name           string   `json:"name"`
	Tier           Tier     `json:"tier"`
}

// Owns reports whether deckID is present in the ownership index.
func (p *UserProfile) Owns(deckID string) bool {
	for _, id := range p.VocabIDs {
		if id == deckID {
			return true
		}
	}
	return false
}

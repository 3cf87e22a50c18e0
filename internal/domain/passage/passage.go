// Package passage defines the fine-grained retrieval unit derived from documents.
package passage

import (
	"crypto/md5" //nolint:gosec // content addressing, not security
	"encoding/hex"
)

// Type classifies the factual content of a passage.
type Type string

// Passage types, mirroring the sections a business document decomposes into.
const (
	TypeGeneral     Type = "general"
	TypeBeneficiary Type = "beneficiary"
	TypeOffer       Type = "offer"
	TypeTelephony   Type = "telephony"
	TypeEquipment   Type = "equipment"
	TypeDocuments   Type = "documents"
	TypeNote        Type = "note"
	TypeOther       Type = "other"
)

// Passage is one atomic factual statement extracted from a document.
// Numeric attributes are pre-parsed so boosting never re-parses text at query time.
type Passage struct {
	ID         string
	DocID      string
	EntityCode string
	Type       Type
	Text       string

	PriceDA     float64
	HasPrice    bool
	IsFree      bool
	SpeedMbps   float64
	Beneficiary string

	// Signature holds the normalized tokens used by the discriminant-token booster.
	Signature []string

	Position int
}

// NewID derives a stable content-addressed passage identifier.
func NewID(docID, text string) string {
	h := md5.Sum([]byte(docID + "|" + text)) //nolint:gosec // content addressing
	return hex.EncodeToString(h[:])[:12]
}
